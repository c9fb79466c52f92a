package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaterialRequirement represents a single line in a bag's Bill of Materials
type MaterialRequirement struct {
	MaterialCode  MaterialCode    `json:"material_code"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	PerBagQty     decimal.Decimal `json:"per_bag_qty"`
	TotalQty      decimal.Decimal `json:"total_qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// NewMaterialRequirement creates a BOM line, deriving and rounding the totals
// from the per-bag quantity and the actual bag count.
func NewMaterialRequirement(
	code MaterialCode,
	description, uom string,
	perBag decimal.Decimal,
	bags int64,
	unitPrice decimal.Decimal,
) (*MaterialRequirement, error) {
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	if perBag.IsNegative() {
		return nil, fmt.Errorf("per-bag quantity cannot be negative, got %s", perBag)
	}
	if bags < 0 {
		return nil, fmt.Errorf("bag count cannot be negative, got %d", bags)
	}

	perBag = perBag.Round(PerBagPrecision)
	total := RoundQty(perBag.Mul(decimal.NewFromInt(bags)))
	return &MaterialRequirement{
		MaterialCode:  code,
		Description:   description,
		UnitOfMeasure: uom,
		PerBagQty:     perBag,
		TotalQty:      total,
		UnitPrice:     unitPrice,
		TotalCost:     RoundCost(total.Mul(unitPrice)),
	}, nil
}

// BillOfMaterials is the ordered list of requirements for one order
type BillOfMaterials struct {
	Lines         []MaterialRequirement `json:"lines"`
	TotalCost     decimal.Decimal       `json:"total_cost"`
	BagWeightKg   decimal.Decimal       `json:"bag_weight_kg"`
	TotalWeightKg decimal.Decimal       `json:"total_weight_kg"`
}

// Line returns the first line carrying the given material code
func (b *BillOfMaterials) Line(code MaterialCode) (MaterialRequirement, bool) {
	for _, l := range b.Lines {
		if l.MaterialCode == code {
			return l, true
		}
	}
	return MaterialRequirement{}, false
}

// EffectiveSpecs holds the order specs after defaults and catalogue lookups
type EffectiveSpecs struct {
	Width          float64      `json:"width_mm"`
	Gusset         float64      `json:"gusset_mm"`
	Height         float64      `json:"height_mm"`
	GSM            float64      `json:"gsm"`
	HandleType     HandleType   `json:"handle_type"`
	PaperGrade     string       `json:"paper_grade"`
	PaperCode      MaterialCode `json:"paper_code"`
	PaperGSM       float64      `json:"paper_gsm"`
	GSMSubstituted bool         `json:"gsm_substituted"`
	BagsPerCarton  int64        `json:"bags_per_carton"`
	PaperWidth     float64      `json:"paper_width_mm,omitempty"`
}
