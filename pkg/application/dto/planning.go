package dto

import (
	"time"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/services"
)

// PlanRequest is the body of a batch planning request
type PlanRequest struct {
	Orders []entities.Order `json:"orders" binding:"required"`
}

// BOMRequest asks for the bill of materials of a single order
type BOMRequest struct {
	Order entities.Order `json:"order"`
}

// PlanningResult contains a processed run plus the orders rejected before it
type PlanningResult struct {
	Run      *entities.RunResult      `json:"run"`
	Rejected []services.RejectedOrder `json:"rejected,omitempty"`
}

// BOMResult is the bill of materials for one order with its effective specs
type BOMResult struct {
	Order      entities.Order            `json:"order"`
	Specs      entities.EffectiveSpecs   `json:"specs"`
	ActualBags int64                     `json:"actual_bags"`
	BOM        *entities.BillOfMaterials `json:"bom"`
}

// RunEvent is one recorded step of a planning run
type RunEvent struct {
	Version   int         `json:"version"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RunList is a page of stored run summaries, newest first
type RunList struct {
	Runs  []entities.RunSummary `json:"runs"`
	Total int                   `json:"total"`
}
