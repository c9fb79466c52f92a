package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/xuri/excelize/v2"
)

func sampleRun() *entities.RunResult {
	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	score := 0.8123
	return &entities.RunResult{
		Results: []entities.OrderResult{
			{
				Index:             0,
				Order:             entities.Order{ID: "ORD-1", BagName: "Shopper 32"},
				ActualBags:        1000,
				InventoryFeasible: true,
				MachineFeasible:   true,
				Feasible:          true,
				AssignedMachine:   "M1",
				MachineScore:      &score,
				Schedule:          &entities.MachineSchedule{MachineID: "M1", OrderID: "ORD-1", Start: start, End: start.Add(2 * time.Hour), Bags: 1000},
				BOM: &entities.BillOfMaterials{Lines: []entities.MaterialRequirement{
					{MaterialCode: "1003696", Description: "PAPER", UnitOfMeasure: "KG", PerBagQty: decimal.RequireFromString("0.038124"), TotalQty: decimal.RequireFromString("38.124"), UnitPrice: decimal.RequireFromString("1.15"), TotalCost: decimal.RequireFromString("43.84")},
				}},
				Cost: decimal.RequireFromString("63.69"),
			},
			{
				Index:                 1,
				Order:                 entities.Order{ID: "ORD-2", BagName: "Shopper 32"},
				ActualBags:            1000,
				MachineFeasible:       true,
				AssignedMachine:       "M3",
				InsufficientMaterials: []string{"PAPER (need 38.124, have 11.876)"},
				Cost:                  decimal.RequireFromString("63.69"),
			},
			{
				Index: 2,
				Order: entities.Order{BagName: "Broken"},
				Error: "bom: malformed dimensions",
			},
		},
		Summary: entities.RunSummary{
			RunID:            "run-1",
			OrdersSubmitted:  3,
			OrdersProcessed:  3,
			FeasibleCount:    1,
			InfeasibleCount:  1,
			ErrorCount:       1,
			TotalCost:        decimal.RequireFromString("63.69"),
			InitialInventory: entities.StockSnapshot{"1003696": decimal.RequireFromString("50")},
			FinalInventory:   entities.StockSnapshot{"1003696": decimal.RequireFromString("11.876")},
			MachineUtilization: []entities.MachineUtilization{
				{MachineID: "M1", Name: "Garant GL-1", ScheduledOrders: 1, ScheduledBags: 1000, ScheduledHours: 2, UtilizationPct: 100},
			},
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleRun(), Config{Format: "text"}))

	out := buf.String()
	assert.Contains(t, out, "Committed Cost: 63.69")
	assert.Contains(t, out, "ORD-2: PAPER (need 38.124, have 11.876)")
	assert.Contains(t, out, "Broken: error: bom: malformed dimensions")
	assert.Contains(t, out, "Garant GL-1")
	assert.Contains(t, out, "11.876 (from 50)")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleRun(), Config{Format: "json"}))

	var decoded entities.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.Summary.RunID)
	assert.Len(t, decoded.Results, 3)
}

func TestGenerate_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, sampleRun(), Config{Format: "csv"}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ResultHeader, rows[0])
	assert.Equal(t, []string{
		"1", "ORD-1", "Shopper 32", "1000", "true", "true", "true", "M1", "0.8123",
		"2025-03-03T06:00:00Z", "2025-03-03T08:00:00Z", "63.69", "", "",
	}, rows[1])
	assert.Equal(t, "PAPER (need 38.124, have 11.876)", rows[2][12])
	assert.Equal(t, "bom: malformed dimensions", rows[3][13])
}

func TestGenerate_XLSXToDirectory(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	require.NoError(t, Generate(&stdout, sampleRun(), Config{Format: "xlsx", OutputDir: dir, Verbose: true}))
	assert.Contains(t, stdout.String(), "bagplan_results.xlsx")

	data, err := os.ReadFile(filepath.Join(dir, "bagplan_results.xlsx"))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Orders", "Materials", "Machines", "Inventory"}, f.GetSheetList())
	rows, err := f.GetRows("Materials")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1003696", rows[1][2])

	code, err := f.GetCellValue("Inventory", "A2")
	require.NoError(t, err)
	assert.Equal(t, "1003696", code)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	assert.Error(t, Generate(&bytes.Buffer{}, sampleRun(), Config{Format: "pdf"}))
}
