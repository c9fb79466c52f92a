package output

import (
	"fmt"
	"io"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a workbook with Orders, Materials, Machines and
// Inventory sheets.
func WriteXLSX(w io.Writer, run *entities.RunResult, _ Config) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	if err := f.SetSheetName("Sheet1", "Orders"); err != nil {
		return err
	}
	orders := make([][]interface{}, 0, len(run.Results))
	for _, r := range run.Results {
		row := make([]interface{}, 0, len(ResultHeader))
		for _, v := range resultRow(r) {
			row = append(row, v)
		}
		row[3] = r.ActualBags
		row[11] = r.Cost.InexactFloat64()
		orders = append(orders, row)
	}
	if err := writeSheet(f, "Orders", ResultHeader, orders, headerStyle); err != nil {
		return err
	}

	var materials [][]interface{}
	for _, r := range run.Results {
		if r.BOM == nil {
			continue
		}
		for _, l := range r.BOM.Lines {
			materials = append(materials, []interface{}{
				r.Index + 1, orderName(r), string(l.MaterialCode), l.Description, l.UnitOfMeasure,
				l.PerBagQty.InexactFloat64(), l.TotalQty.InexactFloat64(),
				l.UnitPrice.InexactFloat64(), l.TotalCost.InexactFloat64(),
			})
		}
	}
	if err := writeSheet(f, "Materials", []string{
		"index", "order", "material_code", "description", "uom", "per_bag_qty", "total_qty", "unit_price", "total_cost",
	}, materials, headerStyle); err != nil {
		return err
	}

	var machines [][]interface{}
	for _, u := range run.Summary.MachineUtilization {
		machines = append(machines, []interface{}{
			u.MachineID, u.Name, u.ScheduledOrders, u.ScheduledBags, u.ScheduledHours, u.UtilizationPct,
		})
	}
	if err := writeSheet(f, "Machines", []string{
		"machine_id", "name", "orders", "bags", "hours", "utilization_pct",
	}, machines, headerStyle); err != nil {
		return err
	}

	var stock [][]interface{}
	for _, code := range sortedCodes(run.Summary.InitialInventory) {
		initial := run.Summary.InitialInventory[code]
		final := run.Summary.FinalInventory[code]
		stock = append(stock, []interface{}{
			string(code), initial.InexactFloat64(), final.InexactFloat64(), initial.Sub(final).InexactFloat64(),
		})
	}
	if err := writeSheet(f, "Inventory", []string{"material_code", "initial", "final", "consumed"}, stock, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, style int) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
	}
	for i, h := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
