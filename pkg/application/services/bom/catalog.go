package bom

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// Material codes of the consumables every recipe draws from.
const (
	CodeFlatHandle       entities.MaterialCode = "1004010"
	CodeFlatPatch        entities.MaterialCode = "1004020"
	CodeTwistedHandle    entities.MaterialCode = "1004110"
	CodeTwistedPatch     entities.MaterialCode = "1004120"
	CodeHotMeltGlue      entities.MaterialCode = "1004030"
	CodeColdGlue         entities.MaterialCode = "1004040"
	CodeCarton           entities.MaterialCode = "1005001"
	DefaultPaperGrade                          = "BROWN KRAFT"
	fallbackUnitPriceLit                       = "1.00"
)

// PaperGrade lists the catalogued GSM variants of one paper grade
type PaperGrade struct {
	Name       string
	DefaultGSM float64
	ByGSM      map[float64]entities.MaterialCode
}

// PaperCatalog maps grade name to its GSM variants
type PaperCatalog map[string]PaperGrade

// DefaultPaperCatalog returns the stocked paper SKUs
func DefaultPaperCatalog() PaperCatalog {
	return PaperCatalog{
		"BROWN KRAFT": {
			Name:       "BROWN KRAFT",
			DefaultGSM: 90,
			ByGSM: map[float64]entities.MaterialCode{
				70:  "1003694",
				80:  "1003695",
				90:  "1003696",
				100: "1003697",
				120: "1003698",
			},
		},
		"WHITE KRAFT": {
			Name:       "WHITE KRAFT",
			DefaultGSM: 80,
			ByGSM: map[float64]entities.MaterialCode{
				70:  "1003701",
				80:  "1003702",
				90:  "1003703",
				100: "1003704",
			},
		},
		"RECYCLED KRAFT": {
			Name:       "RECYCLED KRAFT",
			DefaultGSM: 100,
			ByGSM: map[float64]entities.MaterialCode{
				90:  "1003711",
				100: "1003712",
				120: "1003713",
			},
		},
	}
}

// Lookup selects the paper SKU for a grade and GSM. When the GSM is not
// catalogued the grade's default-GSM entry is returned with substituted=true;
// an unknown grade resolves against the default grade.
func (c PaperCatalog) Lookup(grade string, gsm float64) (code entities.MaterialCode, catalogGSM float64, resolvedGrade string, substituted bool) {
	g, ok := c[grade]
	if !ok {
		g = c[DefaultPaperGrade]
	}
	if code, ok := g.ByGSM[gsm]; ok {
		return code, gsm, g.Name, false
	}
	return g.ByGSM[g.DefaultGSM], g.DefaultGSM, g.Name, true
}

// consumable is a fixed per-bag recipe entry
type consumable struct {
	code        entities.MaterialCode
	description string
	uom         string
	perBagKg    decimal.Decimal
}

// handleRecipes holds the handle, patch and hot-melt lines per handle type
var handleRecipes = map[entities.HandleType][]consumable{
	entities.FlatHandle: {
		{CodeFlatHandle, "FLAT PAPER HANDLE", "KG", decimal.RequireFromString("0.0052")},
		{CodeFlatPatch, "FLAT HANDLE PATCH", "KG", decimal.RequireFromString("0.0018")},
		{CodeHotMeltGlue, "HOT MELT GLUE", "KG", decimal.RequireFromString("0.0006")},
	},
	entities.TwistedHandle: {
		{CodeTwistedHandle, "TWISTED PAPER HANDLE", "KG", decimal.RequireFromString("0.0068")},
		{CodeTwistedPatch, "TWISTED HANDLE PATCH", "KG", decimal.RequireFromString("0.0020")},
		{CodeHotMeltGlue, "HOT MELT GLUE", "KG", decimal.RequireFromString("0.0008")},
	},
}

var coldGlue = consumable{CodeColdGlue, "COLD GLUE", "KG", decimal.RequireFromString("0.0015")}

// PriceTable maps material code to unit price
type PriceTable map[entities.MaterialCode]decimal.Decimal

// DefaultPriceTable returns the standard material prices
func DefaultPriceTable() PriceTable {
	p := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return PriceTable{
		"1003694":         p("1.08"),
		"1003695":         p("1.10"),
		"1003696":         p("1.15"),
		"1003697":         p("1.18"),
		"1003698":         p("1.24"),
		"1003701":         p("1.32"),
		"1003702":         p("1.35"),
		"1003703":         p("1.38"),
		"1003704":         p("1.42"),
		"1003711":         p("0.96"),
		"1003712":         p("0.98"),
		"1003713":         p("1.02"),
		CodeFlatHandle:    p("1.60"),
		CodeFlatPatch:     p("1.45"),
		CodeTwistedHandle: p("2.10"),
		CodeTwistedPatch:  p("1.55"),
		CodeHotMeltGlue:   p("3.20"),
		CodeColdGlue:      p("2.40"),
		CodeCarton:        p("0.85"),
	}
}

// FallbackUnitPrice is charged for codes absent from the price table
var FallbackUnitPrice = decimal.RequireFromString(fallbackUnitPriceLit)

// Price returns the unit price for code, or FallbackUnitPrice
func (t PriceTable) Price(code entities.MaterialCode) decimal.Decimal {
	if p, ok := t[code]; ok {
		return p
	}
	return FallbackUnitPrice
}
