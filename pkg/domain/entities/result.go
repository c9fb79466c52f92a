package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderResult represents the outcome of evaluating one order in a run
type OrderResult struct {
	Index                 int              `json:"index"`
	Order                 Order            `json:"order"`
	Specs                 EffectiveSpecs   `json:"specs"`
	ActualBags            int64            `json:"actual_bags"`
	BOM                   *BillOfMaterials `json:"bom,omitempty"`
	InventoryFeasible     bool             `json:"inventory_feasible"`
	MachineFeasible       bool             `json:"machine_feasible"`
	Feasible              bool             `json:"feasible"`
	InsufficientMaterials []string         `json:"insufficient_materials,omitempty"`
	Shortfalls            []Shortfall      `json:"shortfalls,omitempty"`
	AssignedMachine       string           `json:"assigned_machine,omitempty"`
	MachineScore          *float64         `json:"machine_score,omitempty"`
	Schedule              *MachineSchedule `json:"schedule,omitempty"`
	Consumed              []Consumption    `json:"consumed,omitempty"`
	Cost                  decimal.Decimal  `json:"cost"`
	Error                 string           `json:"error,omitempty"`
}

// Failed reports whether the order hit a processing error
func (r *OrderResult) Failed() bool {
	return r.Error != ""
}

// RunSummary aggregates a whole processing run
type RunSummary struct {
	RunID              string               `json:"run_id"`
	StartedAt          time.Time            `json:"started_at"`
	CompletedAt        time.Time            `json:"completed_at"`
	OrdersSubmitted    int                  `json:"orders_submitted"`
	OrdersProcessed    int                  `json:"orders_processed"`
	FeasibleCount      int                  `json:"feasible_count"`
	InfeasibleCount    int                  `json:"infeasible_count"`
	ErrorCount         int                  `json:"error_count"`
	TotalCost          decimal.Decimal      `json:"total_cost"`
	InitialInventory   StockSnapshot        `json:"initial_inventory"`
	FinalInventory     StockSnapshot        `json:"final_inventory"`
	MachineUtilization []MachineUtilization `json:"machine_utilization"`
	FeedDegraded       bool                 `json:"feed_degraded"`
	Cancelled          bool                 `json:"cancelled"`
}

// RunResult is the complete output of one processing run
type RunResult struct {
	Results []OrderResult `json:"results"`
	Summary RunSummary    `json:"summary"`
}
