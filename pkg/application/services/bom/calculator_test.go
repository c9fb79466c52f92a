package bom

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(Config{BagsPerCarton: 250})
	require.NoError(t, err)
	return calc
}

func shopperOrder() entities.Order {
	return entities.Order{
		ID:         "ORD-1",
		BagName:    "Shopper 32",
		Quantity:   1000,
		Unit:       entities.UnitBags,
		Width:      320,
		Gusset:     160,
		Height:     380,
		GSM:        90,
		HandleType: entities.FlatHandle,
		PaperGrade: "BROWN KRAFT",
	}
}

func TestCompute_FlatHandleShopper(t *testing.T) {
	calc := newTestCalculator(t)

	bom, specs, bags, err := calc.Compute(shopperOrder())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), bags)
	assert.Equal(t, entities.MaterialCode("1003696"), specs.PaperCode)
	assert.False(t, specs.GSMSubstituted)

	codes := make([]entities.MaterialCode, len(bom.Lines))
	for i, l := range bom.Lines {
		codes[i] = l.MaterialCode
	}
	assert.Equal(t, []entities.MaterialCode{
		"1003696", CodeColdGlue, CodeFlatHandle, CodeFlatPatch, CodeHotMeltGlue, CodeCarton,
	}, codes)

	paper, ok := bom.Line("1003696")
	require.True(t, ok)
	assert.Equal(t, "0.038124", paper.PerBagQty.String())
	assert.Equal(t, "38.124", paper.TotalQty.String())
	assert.Equal(t, "43.84", paper.TotalCost.String())

	carton, ok := bom.Line(CodeCarton)
	require.True(t, ok)
	assert.Equal(t, "4", carton.TotalQty.String())

	sum := decimal.Zero
	for _, l := range bom.Lines {
		sum = sum.Add(l.TotalCost)
	}
	assert.True(t, sum.Equal(bom.TotalCost), "total %s != sum %s", bom.TotalCost, sum)
	assert.Equal(t, "63.69", bom.TotalCost.String())
	assert.Equal(t, "0.047224", bom.BagWeightKg.String())
	assert.Equal(t, "47.224", bom.TotalWeightKg.String())
}

func TestCompute_TwistedHandleRecipe(t *testing.T) {
	calc := newTestCalculator(t)
	order := shopperOrder()
	order.HandleType = entities.TwistedHandle

	bom, _, _, err := calc.Compute(order)
	require.NoError(t, err)

	_, ok := bom.Line(CodeTwistedHandle)
	assert.True(t, ok)
	_, ok = bom.Line(CodeTwistedPatch)
	assert.True(t, ok)
	_, ok = bom.Line(CodeFlatHandle)
	assert.False(t, ok)

	glue, ok := bom.Line(CodeHotMeltGlue)
	require.True(t, ok)
	assert.Equal(t, "0.8", glue.TotalQty.String())
}

func TestCompute_NoHandleAddsNoConsumables(t *testing.T) {
	calc := newTestCalculator(t)
	order := shopperOrder()
	order.HandleType = "DIE CUT"

	bom, specs, _, err := calc.Compute(order)
	require.NoError(t, err)

	assert.Equal(t, entities.HandleType("DIE CUT"), specs.HandleType)
	require.Len(t, bom.Lines, 3)
	_, ok := bom.Line(CodeColdGlue)
	assert.True(t, ok)
	_, ok = bom.Line(CodeCarton)
	assert.True(t, ok)
}

func TestCompute_CartonConversion(t *testing.T) {
	calc := newTestCalculator(t)

	order := shopperOrder()
	order.Quantity = 4
	order.Unit = entities.UnitCartons

	_, specs, bags, err := calc.Compute(order)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bags)
	assert.Equal(t, int64(250), specs.BagsPerCarton)

	order.BagsPerCarton = 500
	_, specs, bags, err = calc.Compute(order)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), bags)
	assert.Equal(t, int64(500), specs.BagsPerCarton)
}

func TestCompute_GSMFallback(t *testing.T) {
	calc := newTestCalculator(t)

	order := shopperOrder()
	order.GSM = 85

	bom, specs, _, err := calc.Compute(order)
	require.NoError(t, err)

	assert.True(t, specs.GSMSubstituted)
	assert.Equal(t, entities.MaterialCode("1003696"), specs.PaperCode)
	assert.Equal(t, 90.0, specs.PaperGSM)

	// weight still follows the ordered GSM
	paper, _ := bom.Line("1003696")
	expected := calc.PaperWeightPerBagKg(320, 160, 380, 85).Round(entities.PerBagPrecision)
	assert.True(t, expected.Equal(paper.PerBagQty))
}

func TestCompute_UnknownGradeUsesDefault(t *testing.T) {
	calc := newTestCalculator(t)

	order := shopperOrder()
	order.PaperGrade = "GLASSINE"

	_, specs, _, err := calc.Compute(order)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaperGrade, specs.PaperGrade)
	assert.Equal(t, entities.MaterialCode("1003696"), specs.PaperCode)
}

func TestCompute_RejectsNonPositiveBags(t *testing.T) {
	calc := newTestCalculator(t)

	order := shopperOrder()
	order.Unit = entities.UnitCartons
	order.BagsPerCarton = -1

	_, _, _, err := calc.Compute(order)
	assert.Error(t, err)

	// a bag-unit order still divides by its packing size for the carton line
	order.Unit = entities.UnitBags
	bom, _, _, err := calc.Compute(order)
	assert.Nil(t, bom)
	assert.ErrorContains(t, err, "bags per carton must be positive, got -1")
}

func TestCompute_RejectsCartonOverflow(t *testing.T) {
	calc := newTestCalculator(t)

	order := shopperOrder()
	order.Unit = entities.UnitCartons
	order.Quantity = 36893488147419104
	order.BagsPerCarton = 500

	_, err := calc.ActualBags(order)
	assert.ErrorContains(t, err, "overflows the bag count")
	bom, _, _, err := calc.Compute(order)
	assert.Nil(t, bom)
	assert.ErrorContains(t, err, "overflows the bag count")

	// the configured default packing size is checked too
	order.BagsPerCarton = 0
	order.Quantity = math.MaxInt64/250 + 1
	_, _, _, err = calc.Compute(order)
	assert.ErrorContains(t, err, "overflows the bag count")

	order.Quantity = math.MaxInt64 / 250
	bags, err := calc.ActualBags(order)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/250*250), bags)
}

func TestCompute_RejectsNonFiniteMeasurements(t *testing.T) {
	calc := newTestCalculator(t)

	for name, mutate := range map[string]func(o *entities.Order){
		"width":       func(o *entities.Order) { o.Width = math.NaN() },
		"gusset":      func(o *entities.Order) { o.Gusset = math.Inf(1) },
		"height":      func(o *entities.Order) { o.Height = math.Inf(-1) },
		"gsm":         func(o *entities.Order) { o.GSM = math.NaN() },
		"paper width": func(o *entities.Order) { o.PaperWidth = math.Inf(1) },
	} {
		t.Run(name, func(t *testing.T) {
			order := shopperOrder()
			mutate(&order)
			bom, _, _, err := calc.Compute(order)
			assert.Nil(t, bom)
			assert.ErrorContains(t, err, name+" must be a finite number")
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	calc := newTestCalculator(t)

	a, _, _, err := calc.Compute(shopperOrder())
	require.NoError(t, err)
	b, _, _, err := calc.Compute(shopperOrder())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPriceTable_Fallback(t *testing.T) {
	prices := DefaultPriceTable()
	assert.Equal(t, "1.15", prices.Price("1003696").String())
	assert.True(t, prices.Price("UNKNOWN").Equal(FallbackUnitPrice))
}

func TestNewCalculator_RequiresBagsPerCarton(t *testing.T) {
	_, err := NewCalculator(Config{})
	assert.EqualError(t, err, "bags per carton must be positive, got 0")

	_, err = NewCalculator(Config{BagsPerCarton: 250, Papers: PaperCatalog{}})
	assert.Error(t, err)
}
