package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StockSnapshot maps material codes to on-hand quantity
type StockSnapshot map[MaterialCode]decimal.Decimal

// Clone returns an independent copy of the snapshot
func (s StockSnapshot) Clone() StockSnapshot {
	out := make(StockSnapshot, len(s))
	for code, qty := range s {
		out[code] = qty
	}
	return out
}

// Consumption represents the quantity of one material an order would draw
type Consumption struct {
	MaterialCode MaterialCode    `json:"material_code"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// Shortfall represents one BOM line the ledger cannot cover
type Shortfall struct {
	MaterialCode MaterialCode    `json:"material_code"`
	Description  string          `json:"description"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
}

// String renders the shortfall as "{description} (need {required}, have {available})"
func (s Shortfall) String() string {
	return fmt.Sprintf("%s (need %s, have %s)", s.Description, s.Required.String(), s.Available.String())
}
