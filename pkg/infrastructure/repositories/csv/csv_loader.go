package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// OrderHeader is the exact column layout of an orders sheet
var OrderHeader = []string{
	"id", "bag_name", "sku", "quantity", "unit", "bags_per_carton",
	"width_mm", "gusset_mm", "height_mm", "gsm", "handle_type", "paper_grade",
	"certification", "delivery_days", "colors", "paper_width_mm",
}

// SnapshotHeader is the exact column layout of an inventory snapshot
var SnapshotHeader = []string{"material_code", "description", "quantity"}

// Loader handles loading orders and stock snapshots from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadOrders loads orders from a CSV file
func (l *Loader) LoadOrders(filename string) ([]entities.Order, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadOrders(file)
}

// ReadOrders parses orders CSV content. Values are parsed, not validated.
func (l *Loader) ReadOrders(r io.Reader) ([]entities.Order, error) {
	records, err := readAll(r, "orders")
	if err != nil {
		return nil, err
	}
	if !ValidateHeader(records[0], OrderHeader) {
		return nil, fmt.Errorf("orders CSV header mismatch. Expected: %v, Got: %v", OrderHeader, records[0])
	}

	orders := make([]entities.Order, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		order, err := ParseOrderRecord(record)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// LoadSnapshot loads an inventory snapshot from a CSV file
func (l *Loader) LoadSnapshot(filename string) (entities.StockSnapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadSnapshot(file)
}

// ReadSnapshot parses snapshot CSV content. Repeated codes are summed.
func (l *Loader) ReadSnapshot(r io.Reader) (entities.StockSnapshot, error) {
	records, err := readAll(r, "inventory")
	if err != nil {
		return nil, err
	}
	if !ValidateHeader(records[0], SnapshotHeader) {
		return nil, fmt.Errorf("inventory CSV header mismatch. Expected: %v, Got: %v", SnapshotHeader, records[0])
	}

	snapshot := make(entities.StockSnapshot, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		if len(record) != len(SnapshotHeader) {
			return nil, fmt.Errorf("inventory CSV row %d: expected %d columns, got %d", i+2, len(SnapshotHeader), len(record))
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, fmt.Errorf("inventory CSV row %d: material_code cannot be empty", i+2)
		}
		qty, err := decimal.NewFromString(cleanNumber(record[2]))
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: invalid quantity %q", i+2, record[2])
		}
		if qty.IsNegative() {
			return nil, fmt.Errorf("inventory CSV row %d: quantity cannot be negative, got %s", i+2, qty)
		}
		mc := entities.MaterialCode(code)
		snapshot[mc] = snapshot[mc].Add(qty)
	}
	return snapshot, nil
}

func readAll(r io.Reader, kind string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}
	return records, nil
}

// ValidateHeader compares a header row case- and space-insensitively
func ValidateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff")))
		if name != col {
			return false
		}
	}
	return true
}

// ParseOrderRecord converts one OrderHeader-shaped row into an Order
func ParseOrderRecord(record []string) (entities.Order, error) {
	if len(record) != len(OrderHeader) {
		return entities.Order{}, fmt.Errorf("expected %d columns, got %d", len(OrderHeader), len(record))
	}
	col := func(i int) string { return strings.TrimSpace(record[i]) }

	quantity, err := parseInt(col(3), "quantity")
	if err != nil {
		return entities.Order{}, err
	}
	bagsPerCarton, err := parseInt(col(5), "bags_per_carton")
	if err != nil {
		return entities.Order{}, err
	}
	dims := make([]float64, 4)
	for j, name := range []string{"width_mm", "gusset_mm", "height_mm", "gsm"} {
		if dims[j], err = parseFloat(col(6+j), name); err != nil {
			return entities.Order{}, err
		}
	}
	deliveryDays, err := parseInt(col(13), "delivery_days")
	if err != nil {
		return entities.Order{}, err
	}
	colors, err := parseInt(col(14), "colors")
	if err != nil {
		return entities.Order{}, err
	}
	paperWidth, err := parseFloat(col(15), "paper_width_mm")
	if err != nil {
		return entities.Order{}, err
	}

	return entities.Order{
		ID:            col(0),
		BagName:       col(1),
		SKU:           col(2),
		Quantity:      quantity,
		Unit:          entities.ParseUnit(col(4)),
		BagsPerCarton: bagsPerCarton,
		Width:         dims[0],
		Gusset:        dims[1],
		Height:        dims[2],
		GSM:           dims[3],
		HandleType:    entities.ParseHandleType(col(10)),
		PaperGrade:    strings.ToUpper(col(11)),
		Certification: col(12),
		DeliveryDays:  int(deliveryDays),
		Colors:        int(colors),
		PaperWidth:    paperWidth,
	}, nil
}

func parseInt(s, field string) (int64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("invalid %s: %s", field, s)
		}
		v = int64(f)
	}
	return v, nil
}

func parseFloat(s, field string) (float64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return v, nil
}

func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
