package events

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

const (
	RunStartedEvent        = "run.started"
	OrderEvaluatedEvent    = "order.evaluated"
	MachineScheduledEvent  = "machine.scheduled"
	InventoryConsumedEvent = "inventory.consumed"
	OrderFailedEvent       = "order.failed"
	FeedDegradedEvent      = "feed.degraded"
	RunCompletedEvent      = "run.completed"
)

type RunStarted struct {
	OrdersSubmitted int `json:"orders_submitted"`
	Materials       int `json:"materials"`
	Machines        int `json:"machines"`
}

type OrderEvaluated struct {
	Index             int             `json:"index"`
	OrderID           string          `json:"order_id"`
	ActualBags        int64           `json:"actual_bags"`
	InventoryFeasible bool            `json:"inventory_feasible"`
	MachineFeasible   bool            `json:"machine_feasible"`
	Feasible          bool            `json:"feasible"`
	Shortfalls        []string        `json:"shortfalls,omitempty"`
	Cost              decimal.Decimal `json:"cost"`
}

type MachineScheduled struct {
	Schedule entities.MachineSchedule `json:"schedule"`
	Score    *float64                 `json:"score,omitempty"`
}

type InventoryConsumed struct {
	OrderID      string                 `json:"order_id"`
	Consumptions []entities.Consumption `json:"consumptions"`
}

type OrderFailed struct {
	Index   int    `json:"index"`
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

type FeedDegraded struct {
	Error string `json:"error"`
}

type RunCompleted struct {
	Summary entities.RunSummary `json:"summary"`
}

func NewRunStartedEvent(runID string, orders, materials, machines int, at time.Time) Event {
	return NewEvent(RunStartedEvent, runID, RunStarted{
		OrdersSubmitted: orders,
		Materials:       materials,
		Machines:        machines,
	}, at)
}

func NewOrderEvaluatedEvent(runID string, r *entities.OrderResult, at time.Time) Event {
	return NewEvent(OrderEvaluatedEvent, runID, OrderEvaluated{
		Index:             r.Index,
		OrderID:           r.Order.ID,
		ActualBags:        r.ActualBags,
		InventoryFeasible: r.InventoryFeasible,
		MachineFeasible:   r.MachineFeasible,
		Feasible:          r.Feasible,
		Shortfalls:        r.InsufficientMaterials,
		Cost:              r.Cost,
	}, at)
}

func NewMachineScheduledEvent(runID string, sched entities.MachineSchedule, score *float64, at time.Time) Event {
	return NewEvent(MachineScheduledEvent, runID, MachineScheduled{Schedule: sched, Score: score}, at)
}

func NewInventoryConsumedEvent(runID, orderID string, consumptions []entities.Consumption, at time.Time) Event {
	return NewEvent(InventoryConsumedEvent, runID, InventoryConsumed{
		OrderID:      orderID,
		Consumptions: consumptions,
	}, at)
}

func NewOrderFailedEvent(runID string, index int, orderID string, err error, at time.Time) Event {
	return NewEvent(OrderFailedEvent, runID, OrderFailed{Index: index, OrderID: orderID, Error: err.Error()}, at)
}

func NewFeedDegradedEvent(runID string, err error, at time.Time) Event {
	return NewEvent(FeedDegradedEvent, runID, FeedDegraded{Error: err.Error()}, at)
}

func NewRunCompletedEvent(summary entities.RunSummary, at time.Time) Event {
	return NewEvent(RunCompletedEvent, summary.RunID, RunCompleted{Summary: summary}, at)
}
