package entities

import (
	"fmt"
	"math"
	"strings"
)

// Order represents one normalized production order for a paper bag
type Order struct {
	ID            string     `json:"id"`
	BagName       string     `json:"bag_name"`
	SKU           string     `json:"sku,omitempty"`
	Quantity      int64      `json:"quantity"`
	Unit          Unit       `json:"unit"`
	BagsPerCarton int64      `json:"bags_per_carton,omitempty"` // 0 = configured default
	Width         float64    `json:"width_mm"`
	Gusset        float64    `json:"gusset_mm"`
	Height        float64    `json:"height_mm"`
	GSM           float64    `json:"gsm"`
	HandleType    HandleType `json:"handle_type"`
	PaperGrade    string     `json:"paper_grade"`
	Certification string     `json:"certification,omitempty"`
	DeliveryDays  int        `json:"delivery_days"` // 0 = no deadline
	Colors        int        `json:"colors"`
	PaperWidth    float64    `json:"paper_width_mm,omitempty"` // roll width, 0 = not given
}

// NewOrder creates a validated Order
func NewOrder(
	id, bagName string,
	quantity int64,
	unit Unit,
	width, gusset, height, gsm float64,
	handleType HandleType,
	paperGrade string,
	deliveryDays int,
) (*Order, error) {
	o := &Order{
		ID:           id,
		BagName:      bagName,
		Quantity:     quantity,
		Unit:         unit,
		Width:        width,
		Gusset:       gusset,
		Height:       height,
		GSM:          gsm,
		HandleType:   handleType,
		PaperGrade:   paperGrade,
		DeliveryDays: deliveryDays,
	}
	if errs := o.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid order %s: %s", id, strings.Join(errs, "; "))
	}
	return o, nil
}

// Validate returns the list of problems that make the order unprocessable
func (o *Order) Validate() []string {
	var errs []string
	if strings.TrimSpace(o.BagName) == "" {
		errs = append(errs, "bag name cannot be empty")
	}
	if o.Quantity <= 0 {
		errs = append(errs, fmt.Sprintf("quantity must be positive, got %d", o.Quantity))
	}
	if !o.Unit.Valid() {
		errs = append(errs, fmt.Sprintf("unit must be bags or cartons, got %q", o.Unit))
	}
	if o.BagsPerCarton < 0 {
		errs = append(errs, fmt.Sprintf("bags per carton cannot be negative, got %d", o.BagsPerCarton))
	}
	if o.Unit == UnitCartons && o.Quantity > 0 && o.BagsPerCarton > 0 && o.Quantity > math.MaxInt64/o.BagsPerCarton {
		errs = append(errs, fmt.Sprintf("%d cartons of %d bags overflows the bag count", o.Quantity, o.BagsPerCarton))
	}
	for _, m := range []struct {
		name  string
		value float64
	}{{"width", o.Width}, {"gusset", o.Gusset}, {"height", o.Height}, {"gsm", o.GSM}} {
		switch {
		case !isFinite(m.value):
			errs = append(errs, fmt.Sprintf("%s must be a finite number, got %g", m.name, m.value))
		case m.value <= 0:
			errs = append(errs, fmt.Sprintf("%s must be positive, got %g", m.name, m.value))
		}
	}
	if o.DeliveryDays < 0 {
		errs = append(errs, fmt.Sprintf("delivery days cannot be negative, got %d", o.DeliveryDays))
	}
	switch {
	case !isFinite(o.PaperWidth):
		errs = append(errs, fmt.Sprintf("paper width must be a finite number, got %g", o.PaperWidth))
	case o.PaperWidth < 0:
		errs = append(errs, fmt.Sprintf("paper width cannot be negative, got %g", o.PaperWidth))
	}
	return errs
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Label returns a short human-readable identifier for logs and reports
func (o *Order) Label() string {
	if o.SKU != "" {
		return fmt.Sprintf("%s (%s)", o.BagName, o.SKU)
	}
	return o.BagName
}
