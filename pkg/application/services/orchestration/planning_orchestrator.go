package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vsinha/bagplan/pkg/application/dto"
	"github.com/vsinha/bagplan/pkg/application/services/processor"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"github.com/vsinha/bagplan/pkg/domain/services"
	"github.com/vsinha/bagplan/pkg/infrastructure/events"
	"go.uber.org/zap"
)

// ErrNoValidOrders is returned when validation rejects every order in a batch
var ErrNoValidOrders = errors.New("no valid orders")

// RunProcessor evaluates a validated order batch
type RunProcessor interface {
	Process(ctx context.Context, orders []entities.Order) (*entities.RunResult, error)
}

// PlanningOrchestrator coordinates validation, processing and run storage
type PlanningOrchestrator struct {
	validator  *services.OrderValidator
	processor  RunProcessor
	calculator processor.BOMCalculator
	store      repositories.BulkOrderStore
	machines   []entities.MachineSpec
	eventLog   events.Reader
	logger     *zap.Logger
}

// NewPlanningOrchestrator creates a new planning orchestrator. A nil store
// means runs are not persisted.
func NewPlanningOrchestrator(
	proc RunProcessor,
	calculator processor.BOMCalculator,
	store repositories.BulkOrderStore,
	machines []entities.MachineSpec,
	logger *zap.Logger,
) *PlanningOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningOrchestrator{
		validator:  services.NewOrderValidator(),
		processor:  proc,
		calculator: calculator,
		store:      store,
		machines:   machines,
		logger:     logger,
	}
}

// WithEventLog makes run events readable through RunEvents
func (po *PlanningOrchestrator) WithEventLog(log events.Reader) *PlanningOrchestrator {
	po.eventLog = log
	return po
}

// RunPlanning validates the batch, processes the valid orders and stores
// the run. A cancelled run is still stored and returned with the context
// error.
func (po *PlanningOrchestrator) RunPlanning(ctx context.Context, orders []entities.Order) (*dto.PlanningResult, error) {
	validation := po.validator.ValidateOrders(orders)
	if len(validation.Valid) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoValidOrders, strings.Join(validation.Errors, "; "))
	}
	if len(validation.Rejected) > 0 {
		po.logger.Warn("orders rejected by validation",
			zap.Int("rejected", len(validation.Rejected)),
			zap.Int("accepted", len(validation.Valid)),
		)
	}

	run, err := po.processor.Process(ctx, validation.Valid)
	if run == nil {
		return nil, err
	}

	if po.store != nil {
		if saveErr := po.store.Save(context.WithoutCancel(ctx), run); saveErr != nil {
			return nil, fmt.Errorf("failed to store run %s: %w", run.Summary.RunID, saveErr)
		}
	}

	return &dto.PlanningResult{Run: run, Rejected: validation.Rejected}, err
}

// ComputeBOM validates one order and returns its bill of materials without
// touching inventory or machines.
func (po *PlanningOrchestrator) ComputeBOM(order entities.Order) (*dto.BOMResult, error) {
	validation := po.validator.ValidateOrders([]entities.Order{order})
	if !validation.OK() {
		return nil, fmt.Errorf("%w: %s", ErrNoValidOrders, strings.Join(validation.Errors, "; "))
	}
	order = validation.Valid[0]

	bom, specs, bags, err := po.calculator.Compute(order)
	if err != nil {
		return nil, err
	}
	return &dto.BOMResult{Order: order, Specs: specs, ActualBags: bags, BOM: bom}, nil
}

// GetRun returns a stored run
func (po *PlanningOrchestrator) GetRun(ctx context.Context, runID string) (*entities.RunResult, error) {
	if po.store == nil {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}
	return po.store.Get(ctx, runID)
}

// RunEvents returns the recorded events of a run in order. Runs without
// retained events report ErrRunNotFound.
func (po *PlanningOrchestrator) RunEvents(runID string) ([]dto.RunEvent, error) {
	if po.eventLog == nil {
		return nil, fmt.Errorf("%w: no event log for %s", repositories.ErrRunNotFound, runID)
	}
	stream, err := po.eventLog.ReadEvents(runID, 1)
	if err != nil {
		return nil, err
	}
	if len(stream) == 0 {
		return nil, fmt.Errorf("%w: no events for %s", repositories.ErrRunNotFound, runID)
	}
	out := make([]dto.RunEvent, 0, len(stream))
	for _, e := range stream {
		out = append(out, dto.RunEvent{Version: e.Version(), Type: e.Type(), Timestamp: e.Timestamp(), Data: e.Data()})
	}
	return out, nil
}

// ListRuns returns summaries of all stored runs, newest first
func (po *PlanningOrchestrator) ListRuns(ctx context.Context) (*dto.RunList, error) {
	if po.store == nil {
		return &dto.RunList{Runs: []entities.RunSummary{}}, nil
	}
	runs, err := po.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.RunList{Runs: runs, Total: len(runs)}, nil
}

// Machines returns the fleet definition runs are scheduled on
func (po *PlanningOrchestrator) Machines() []entities.MachineSpec {
	out := make([]entities.MachineSpec, len(po.machines))
	copy(out, po.machines)
	return out
}
