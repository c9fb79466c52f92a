package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaterialCode represents a raw-material identifier in the ERP material ledger
type MaterialCode string

// Unit represents the unit an order quantity is expressed in
type Unit string

const (
	UnitBags    Unit = "bags"
	UnitCartons Unit = "cartons"
)

// ParseUnit normalizes a unit string. Unknown values are returned as-is so
// validation can report them.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bag", "bags", "pcs", "pieces":
		return UnitBags
	case "carton", "cartons", "ctn", "ctns":
		return UnitCartons
	default:
		return Unit(strings.ToLower(strings.TrimSpace(s)))
	}
}

// Valid reports whether the unit is one the calculator understands
func (u Unit) Valid() bool {
	return u == UnitBags || u == UnitCartons
}

// HandleType represents the handle construction of a bag
type HandleType string

const (
	FlatHandle    HandleType = "FLAT HANDLE"
	TwistedHandle HandleType = "TWISTED HANDLE"
	NoHandle      HandleType = "NO HANDLE"
)

// ParseHandleType normalizes free-form handle text to a HandleType
func ParseHandleType(s string) HandleType {
	norm := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	switch norm {
	case "FLAT", "FLAT HANDLE", "FLAT HANDLES":
		return FlatHandle
	case "TWISTED", "TWIST", "TWISTED HANDLE", "TWISTED HANDLES":
		return TwistedHandle
	case "", "NONE", "NO HANDLE":
		return NoHandle
	default:
		return HandleType(norm)
	}
}

// String method for HandleType
func (h HandleType) String() string {
	return string(h)
}

// Rounding precision used wherever quantities and money leave a calculation.
const (
	PerBagPrecision   int32 = 6
	QuantityPrecision int32 = 3
	CostPrecision     int32 = 2
)

// RoundQty rounds a total material quantity to ledger precision
func RoundQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPrecision)
}

// RoundCost rounds a monetary amount to cost precision
func RoundCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(CostPrecision)
}
