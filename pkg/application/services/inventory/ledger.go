package inventory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// ErrInsufficientStock is returned by Commit when a consumption exceeds the
// ledger's current quantity, which means the list was computed against a stale view.
var ErrInsufficientStock = errors.New("insufficient stock")

// CheckResult is the read-only outcome of checking a BOM against the ledger
type CheckResult struct {
	Feasible     bool
	Shortfalls   []entities.Shortfall
	Consumptions []entities.Consumption
}

// ShortfallMessages renders each shortfall as display text
func (r CheckResult) ShortfallMessages() []string {
	if len(r.Shortfalls) == 0 {
		return nil
	}
	out := make([]string, len(r.Shortfalls))
	for i, s := range r.Shortfalls {
		out[i] = s.String()
	}
	return out
}

// Ledger is the running-total view of material stock for one run. It is not
// safe for concurrent use; the processor owns it for the duration of a run.
type Ledger struct {
	initial entities.StockSnapshot
	stock   entities.StockSnapshot
}

// NewLedger seeds a ledger from a feed snapshot. The snapshot is copied.
func NewLedger(snapshot entities.StockSnapshot) *Ledger {
	return &Ledger{
		initial: snapshot.Clone(),
		stock:   snapshot.Clone(),
	}
}

// Available returns the current quantity of a material; unknown codes are zero
func (l *Ledger) Available(code entities.MaterialCode) decimal.Decimal {
	if qty, ok := l.stock[code]; ok {
		return qty
	}
	return decimal.Zero
}

// Check compares every coded BOM line with current stock without mutating it.
// Lines sharing a material code are summed before comparison.
func (l *Ledger) Check(bom *entities.BillOfMaterials) CheckResult {
	result := CheckResult{Feasible: true}
	if bom == nil {
		return result
	}

	required := make(map[entities.MaterialCode]decimal.Decimal)
	descriptions := make(map[entities.MaterialCode]string)
	var codes []entities.MaterialCode
	for _, line := range bom.Lines {
		if line.MaterialCode == "" {
			continue
		}
		if _, seen := required[line.MaterialCode]; !seen {
			codes = append(codes, line.MaterialCode)
			descriptions[line.MaterialCode] = line.Description
		}
		required[line.MaterialCode] = required[line.MaterialCode].Add(line.TotalQty)
	}

	for _, code := range codes {
		need := required[code]
		have := l.Available(code)
		if have.LessThan(need) {
			result.Feasible = false
			result.Shortfalls = append(result.Shortfalls, entities.Shortfall{
				MaterialCode: code,
				Description:  descriptions[code],
				Required:     need,
				Available:    have,
			})
			continue
		}
		result.Consumptions = append(result.Consumptions, entities.Consumption{
			MaterialCode: code,
			Description:  descriptions[code],
			Quantity:     need,
		})
	}

	if !result.Feasible {
		result.Consumptions = nil
	}
	return result
}

// Commit decrements the ledger by a consumption list previously returned by
// Check. It is all-or-nothing: nothing is applied if any line is short.
func (l *Ledger) Commit(consumptions []entities.Consumption) error {
	totals := make(map[entities.MaterialCode]decimal.Decimal, len(consumptions))
	for _, c := range consumptions {
		if c.Quantity.IsNegative() {
			return fmt.Errorf("consumption of %s cannot be negative, got %s", c.MaterialCode, c.Quantity)
		}
		totals[c.MaterialCode] = totals[c.MaterialCode].Add(c.Quantity)
		if have := l.Available(c.MaterialCode); have.LessThan(totals[c.MaterialCode]) {
			return fmt.Errorf("%w: %s needs %s, ledger has %s", ErrInsufficientStock, c.MaterialCode, totals[c.MaterialCode], have)
		}
	}
	for _, c := range consumptions {
		l.stock[c.MaterialCode] = l.Available(c.MaterialCode).Sub(c.Quantity)
	}
	return nil
}

// Snapshot returns a copy of the current stock
func (l *Ledger) Snapshot() entities.StockSnapshot {
	return l.stock.Clone()
}

// Initial returns a copy of the stock the ledger was seeded with
func (l *Ledger) Initial() entities.StockSnapshot {
	return l.initial.Clone()
}

// Consumed returns initial minus current stock per code, sorted by code
func (l *Ledger) Consumed() []entities.Consumption {
	var out []entities.Consumption
	for code, start := range l.initial {
		used := start.Sub(l.Available(code))
		if used.IsPositive() {
			out = append(out, entities.Consumption{MaterialCode: code, Quantity: used})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialCode < out[j].MaterialCode })
	return out
}
