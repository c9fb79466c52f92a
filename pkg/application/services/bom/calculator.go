package bom

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// DefaultSeamAllowanceMM is the glued side-seam overlap added to the paper area
const DefaultSeamAllowanceMM = 20.0

var (
	mm2PerM2 = decimal.NewFromInt(1_000_000)
	gPerKg   = decimal.NewFromInt(1_000)
)

// Config holds the calculator's catalogue and defaults
type Config struct {
	// BagsPerCarton converts carton quantities to bags when the order
	// does not carry its own packing size. Required.
	BagsPerCarton   int64
	SeamAllowanceMM float64
	Papers          PaperCatalog
	Prices          PriceTable
}

// Calculator computes a bag order's Bill of Materials. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	bagsPerCarton int64
	seamMM        decimal.Decimal
	papers        PaperCatalog
	prices        PriceTable
}

// NewCalculator creates a calculator, filling catalogue defaults
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.BagsPerCarton <= 0 {
		return nil, fmt.Errorf("bags per carton must be positive, got %d", cfg.BagsPerCarton)
	}
	if cfg.SeamAllowanceMM < 0 {
		return nil, fmt.Errorf("seam allowance cannot be negative, got %g", cfg.SeamAllowanceMM)
	}
	if cfg.SeamAllowanceMM == 0 {
		cfg.SeamAllowanceMM = DefaultSeamAllowanceMM
	}
	if cfg.Papers == nil {
		cfg.Papers = DefaultPaperCatalog()
	}
	if _, ok := cfg.Papers[DefaultPaperGrade]; !ok {
		return nil, fmt.Errorf("paper catalogue must contain the default grade %s", DefaultPaperGrade)
	}
	if cfg.Prices == nil {
		cfg.Prices = DefaultPriceTable()
	}

	return &Calculator{
		bagsPerCarton: cfg.BagsPerCarton,
		seamMM:        decimal.NewFromFloat(cfg.SeamAllowanceMM),
		papers:        cfg.Papers,
		prices:        cfg.Prices,
	}, nil
}

// BagsPerCarton returns the configured default packing size
func (c *Calculator) BagsPerCarton() int64 {
	return c.bagsPerCarton
}

// ActualBags converts the order quantity to a bag count. A carton count
// whose bag count does not fit in an int64 is an error.
func (c *Calculator) ActualBags(order entities.Order) (int64, error) {
	if order.Unit != entities.UnitCartons {
		return order.Quantity, nil
	}
	bpc := c.effectiveBagsPerCarton(order)
	if bpc <= 0 {
		return 0, fmt.Errorf("order %s: bags per carton must be positive, got %d", order.ID, bpc)
	}
	if order.Quantity > math.MaxInt64/bpc || order.Quantity < math.MinInt64/bpc {
		return 0, fmt.Errorf("order %s: %d cartons of %d bags overflows the bag count", order.ID, order.Quantity, bpc)
	}
	return order.Quantity * bpc, nil
}

func (c *Calculator) effectiveBagsPerCarton(order entities.Order) int64 {
	if order.BagsPerCarton != 0 {
		return order.BagsPerCarton
	}
	return c.bagsPerCarton
}

// PaperAreaMM2 returns the flattened paper area of one bag: front and back,
// two gusset panels, the bottom panel and the side-seam overlap.
func (c *Calculator) PaperAreaMM2(width, gusset, height float64) decimal.Decimal {
	w := decimal.NewFromFloat(width)
	g := decimal.NewFromFloat(gusset)
	h := decimal.NewFromFloat(height)
	two := decimal.NewFromInt(2)

	frontBack := two.Mul(w).Mul(h)
	gussets := two.Mul(g).Mul(h)
	bottom := w.Mul(g)
	seam := c.seamMM.Mul(h)
	return frontBack.Add(gussets).Add(bottom).Add(seam)
}

// PaperWeightPerBagKg converts the bag's paper area at the given GSM to kg
func (c *Calculator) PaperWeightPerBagKg(width, gusset, height, gsm float64) decimal.Decimal {
	area := c.PaperAreaMM2(width, gusset, height)
	return area.Div(mm2PerM2).Mul(decimal.NewFromFloat(gsm)).Div(gPerKg)
}

// Compute builds the Bill of Materials for an order and returns it with the
// effective specs and the actual bag count.
func (c *Calculator) Compute(order entities.Order) (*entities.BillOfMaterials, entities.EffectiveSpecs, int64, error) {
	handle := entities.ParseHandleType(string(order.HandleType))
	grade := strings.ToUpper(strings.TrimSpace(order.PaperGrade))
	if grade == "" {
		grade = DefaultPaperGrade
	}
	bpc := c.effectiveBagsPerCarton(order)

	paperCode, paperGSM, resolvedGrade, substituted := c.papers.Lookup(grade, order.GSM)
	specs := entities.EffectiveSpecs{
		Width:          order.Width,
		Gusset:         order.Gusset,
		Height:         order.Height,
		GSM:            order.GSM,
		HandleType:     handle,
		PaperGrade:     resolvedGrade,
		PaperCode:      paperCode,
		PaperGSM:       paperGSM,
		GSMSubstituted: substituted,
		BagsPerCarton:  bpc,
		PaperWidth:     order.PaperWidth,
	}

	if bpc <= 0 {
		return nil, specs, 0, fmt.Errorf("order %s: bags per carton must be positive, got %d", order.ID, bpc)
	}
	bags, err := c.ActualBags(order)
	if err != nil {
		return nil, specs, 0, err
	}
	if bags <= 0 {
		return nil, specs, bags, fmt.Errorf("order %s resolves to %d bags", order.ID, bags)
	}
	for _, m := range []struct {
		name  string
		value float64
	}{{"width", order.Width}, {"gusset", order.Gusset}, {"height", order.Height}, {"gsm", order.GSM}, {"paper width", order.PaperWidth}} {
		if math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return nil, specs, bags, fmt.Errorf("order %s: %s must be a finite number, got %g", order.ID, m.name, m.value)
		}
	}

	bom := &entities.BillOfMaterials{Lines: make([]entities.MaterialRequirement, 0, 6)}
	bagWeight := decimal.Zero

	add := func(code entities.MaterialCode, desc, uom string, perBag decimal.Decimal) error {
		line, err := entities.NewMaterialRequirement(code, desc, uom, perBag, bags, c.prices.Price(code))
		if err != nil {
			return fmt.Errorf("%s line: %w", desc, err)
		}
		bom.Lines = append(bom.Lines, *line)
		bom.TotalCost = bom.TotalCost.Add(line.TotalCost)
		if uom == "KG" {
			bagWeight = bagWeight.Add(line.PerBagQty)
		}
		return nil
	}

	paperKg := c.PaperWeightPerBagKg(order.Width, order.Gusset, order.Height, order.GSM)
	paperDesc := fmt.Sprintf("PAPER %s %g GSM", resolvedGrade, paperGSM)
	if err := add(paperCode, paperDesc, "KG", paperKg); err != nil {
		return nil, specs, bags, err
	}
	if err := add(coldGlue.code, coldGlue.description, coldGlue.uom, coldGlue.perBagKg); err != nil {
		return nil, specs, bags, err
	}
	for _, item := range handleRecipes[handle] {
		if err := add(item.code, item.description, item.uom, item.perBagKg); err != nil {
			return nil, specs, bags, err
		}
	}
	cartonsPerBag := decimal.NewFromInt(1).Div(decimal.NewFromInt(bpc))
	if err := add(CodeCarton, fmt.Sprintf("CARTON (%d BAGS)", bpc), "EA", cartonsPerBag); err != nil {
		return nil, specs, bags, err
	}

	bom.TotalCost = entities.RoundCost(bom.TotalCost)
	bom.BagWeightKg = bagWeight.Round(entities.PerBagPrecision)
	bom.TotalWeightKg = entities.RoundQty(bom.BagWeightKg.Mul(decimal.NewFromInt(bags)))
	return bom, specs, bags, nil
}
