package csv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

func TestWriteOrders_ReadableByLoader(t *testing.T) {
	orders := []entities.Order{
		{ID: "G-1", BagName: "Shopper, large", Quantity: 12000, Unit: entities.UnitBags,
			Width: 320, Gusset: 160, Height: 380, GSM: 90, HandleType: entities.TwistedHandle,
			PaperGrade: "BROWN KRAFT", DeliveryDays: 10, Colors: 2},
		{ID: "G-2", BagName: "Bakery", Quantity: 8, Unit: entities.UnitCartons, BagsPerCarton: 500,
			Width: 220.5, Gusset: 100, Height: 300, GSM: 70, HandleType: entities.NoHandle,
			PaperGrade: "WHITE KRAFT", PaperWidth: 900},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	loaded, err := NewLoader().ReadOrders(&buf)
	require.NoError(t, err)
	assert.Equal(t, orders, loaded)
}

func TestWriteSnapshot(t *testing.T) {
	snapshot := entities.StockSnapshot{
		"1004040": decimal.RequireFromString("12.5"),
		"1003696": decimal.RequireFromString("1500"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, snapshot, map[entities.MaterialCode]string{"1003696": "PAPER"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"material_code,description,quantity",
		"1003696,PAPER,1500",
		"1004040,,12.5",
	}, lines)

	loaded, err := NewLoader().ReadSnapshot(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.True(t, loaded["1004040"].Equal(snapshot["1004040"]))
}
