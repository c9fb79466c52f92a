package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// OrderValidator rejects malformed orders before they reach the processor
type OrderValidator struct{}

// NewOrderValidator creates a new order validator
func NewOrderValidator() *OrderValidator {
	return &OrderValidator{}
}

// ValidationResult contains the results of validating an order batch
type ValidationResult struct {
	Valid        []entities.Order
	Rejected     []RejectedOrder
	DuplicateIDs []string
	Errors       []string
}

// RejectedOrder is an input row that failed validation
type RejectedOrder struct {
	Index  int            `json:"index"`
	Order  entities.Order `json:"order"`
	Errors []string       `json:"errors"`
}

// OK reports whether every order passed validation
func (r *ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// ValidateOrders normalizes and validates a batch, keeping the input order of
// the valid rows. Orders without an id get a generated one.
func (v *OrderValidator) ValidateOrders(orders []entities.Order) *ValidationResult {
	result := &ValidationResult{
		Valid:        make([]entities.Order, 0, len(orders)),
		Rejected:     make([]RejectedOrder, 0),
		DuplicateIDs: make([]string, 0),
		Errors:       make([]string, 0),
	}

	if len(orders) == 0 {
		result.Errors = append(result.Errors, "order batch is empty")
		return result
	}

	seen := make(map[string]bool, len(orders))
	for i, o := range orders {
		o = v.normalize(o)

		errs := o.Validate()
		if o.ID != "" && seen[o.ID] {
			result.DuplicateIDs = append(result.DuplicateIDs, o.ID)
			errs = append(errs, fmt.Sprintf("duplicate order id %s", o.ID))
		}
		if len(errs) > 0 {
			result.Rejected = append(result.Rejected, RejectedOrder{Index: i, Order: o, Errors: errs})
			result.Errors = append(result.Errors, fmt.Sprintf("order %d (%s): %s", i+1, o.Label(), strings.Join(errs, "; ")))
			continue
		}

		if o.ID == "" {
			o.ID = uuid.New().String()
		}
		seen[o.ID] = true
		result.Valid = append(result.Valid, o)
	}

	return result
}

// normalize canonicalizes free-form text fields
func (v *OrderValidator) normalize(o entities.Order) entities.Order {
	o.ID = strings.TrimSpace(o.ID)
	o.BagName = strings.TrimSpace(o.BagName)
	o.SKU = strings.TrimSpace(o.SKU)
	o.Unit = entities.ParseUnit(string(o.Unit))
	o.HandleType = entities.ParseHandleType(string(o.HandleType))
	o.PaperGrade = strings.ToUpper(strings.TrimSpace(o.PaperGrade))
	o.Certification = strings.TrimSpace(o.Certification)
	return o
}
