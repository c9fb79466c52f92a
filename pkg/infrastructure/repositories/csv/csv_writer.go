package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// FormatOrderRecord renders an order as an OrderHeader-shaped row
func FormatOrderRecord(o entities.Order) []string {
	optionalInt := func(v int64) string {
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	optionalFloat := func(v float64) string {
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return []string{
		o.ID,
		o.BagName,
		o.SKU,
		strconv.FormatInt(o.Quantity, 10),
		string(o.Unit),
		optionalInt(o.BagsPerCarton),
		strconv.FormatFloat(o.Width, 'f', -1, 64),
		strconv.FormatFloat(o.Gusset, 'f', -1, 64),
		strconv.FormatFloat(o.Height, 'f', -1, 64),
		strconv.FormatFloat(o.GSM, 'f', -1, 64),
		string(o.HandleType),
		o.PaperGrade,
		o.Certification,
		strconv.Itoa(o.DeliveryDays),
		strconv.Itoa(o.Colors),
		optionalFloat(o.PaperWidth),
	}
}

// WriteOrders writes orders with the OrderHeader layout
func WriteOrders(w io.Writer, orders []entities.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OrderHeader); err != nil {
		return fmt.Errorf("failed to write orders header: %w", err)
	}
	for i, o := range orders {
		if err := cw.Write(FormatOrderRecord(o)); err != nil {
			return fmt.Errorf("failed to write order %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSnapshot writes a stock snapshot sorted by material code. Codes
// missing from descriptions get an empty description.
func WriteSnapshot(w io.Writer, snapshot entities.StockSnapshot, descriptions map[entities.MaterialCode]string) error {
	codes := make([]entities.MaterialCode, 0, len(snapshot))
	for code := range snapshot {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	cw := csv.NewWriter(w)
	if err := cw.Write(SnapshotHeader); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	for _, code := range codes {
		qty := snapshot[code]
		if err := cw.Write([]string{string(code), descriptions[code], qty.String()}); err != nil {
			return fmt.Errorf("failed to write stock for %s: %w", code, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
