// Package xlsx reads order sheets exported from spreadsheets. The first
// sheet must use the same header as the CSV order format.
package xlsx

import (
	"fmt"
	"io"
	"os"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	csvrepo "github.com/vsinha/bagplan/pkg/infrastructure/repositories/csv"
	"github.com/xuri/excelize/v2"
)

// Loader handles loading orders from XLSX workbooks
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadOrders loads orders from an XLSX file
func (l *Loader) LoadOrders(filename string) ([]entities.Order, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders workbook %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadOrders(file)
}

// ReadOrders parses the first sheet of a workbook
func (l *Loader) ReadOrders(r io.Reader) ([]entities.Order, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("orders sheet must have header and at least one data row")
	}
	if !csvrepo.ValidateHeader(pad(rows[0]), csvrepo.OrderHeader) {
		return nil, fmt.Errorf("orders sheet header mismatch. Expected: %v, Got: %v", csvrepo.OrderHeader, rows[0])
	}

	orders := make([]entities.Order, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) > len(csvrepo.OrderHeader) {
			return nil, fmt.Errorf("orders sheet row %d: expected %d columns, got %d", i+2, len(csvrepo.OrderHeader), len(row))
		}
		order, err := csvrepo.ParseOrderRecord(pad(row))
		if err != nil {
			return nil, fmt.Errorf("orders sheet row %d: %w", i+2, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// pad restores the trailing empty cells GetRows drops
func pad(row []string) []string {
	if len(row) >= len(csvrepo.OrderHeader) {
		return row
	}
	out := make([]string, len(csvrepo.OrderHeader))
	copy(out, row)
	return out
}

// WriteTemplate writes an empty orders workbook with the expected header
func WriteTemplate(w io.Writer) error {
	return WriteOrders(w, nil)
}

// WriteOrders writes orders to the first sheet in the loader's layout
func WriteOrders(w io.Writer, orders []entities.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range csvrepo.OrderHeader {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		_ = f.SetCellStyle(sheet, cell, cell, boldStyle)
	}
	for i, o := range orders {
		record := csvrepo.FormatOrderRecord(o)
		row := make([]interface{}, len(record))
		for j, v := range record {
			row[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order %d: %w", i+1, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
