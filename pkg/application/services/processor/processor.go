// Package processor evaluates a batch of bag orders one at a time against a
// single inventory snapshot and a freshly booked machine fleet.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/application/services/fleet"
	"github.com/vsinha/bagplan/pkg/application/services/inventory"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"github.com/vsinha/bagplan/pkg/infrastructure/events"
	"go.uber.org/zap"
)

// ErrNoOrders is returned when Process is called with an empty batch
var ErrNoOrders = errors.New("no orders to process")

// CommitPolicy decides when machine time is booked for an order
type CommitPolicy string

const (
	// CommitAlways books the machine whenever one is compatible, even if
	// the order is short of material.
	CommitAlways CommitPolicy = "always"
	// CommitFeasibleOnly books the machine only for fully feasible orders.
	CommitFeasibleOnly CommitPolicy = "feasible_only"
)

// ParseCommitPolicy parses a policy name; empty means CommitAlways
func ParseCommitPolicy(s string) (CommitPolicy, error) {
	switch CommitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CommitAlways:
		return CommitAlways, nil
	case CommitFeasibleOnly:
		return CommitFeasibleOnly, nil
	default:
		return "", fmt.Errorf("unknown machine commit policy %q (want %s or %s)", s, CommitAlways, CommitFeasibleOnly)
	}
}

// BOMCalculator computes an order's bill of materials
type BOMCalculator interface {
	Compute(order entities.Order) (*entities.BillOfMaterials, entities.EffectiveSpecs, int64, error)
}

// MetricsRecorder receives run and order outcomes
type MetricsRecorder interface {
	RecordOrder(feasible, failed bool, cost float64)
	RecordFeedDegraded()
	RecordRun(outcome string, seconds float64)
	SetMachineLoad(machineID string, hours, utilizationPct float64)
}

// Clock returns the current time
type Clock func() time.Time

// IDSource returns a new run ID
type IDSource func() string

func newRunID() string {
	return uuid.New().String()
}

// Config wires the processor's collaborators. Calculator and Machines are
// required; everything else has a usable default.
type Config struct {
	Calculator BOMCalculator
	Feed       repositories.InventoryFeed
	Machines   []entities.MachineSpec
	Scoring    fleet.ScoringConfig
	Policy     CommitPolicy
	Clock      Clock
	NewRunID   IDSource
	Logger     *zap.Logger
	Events     events.Publisher
	Metrics    MetricsRecorder
}

// Processor runs order batches. Each Process call owns its own ledger and
// fleet, so one Processor may serve concurrent runs.
type Processor struct {
	calc     BOMCalculator
	feed     repositories.InventoryFeed
	machines []entities.MachineSpec
	scoring  fleet.ScoringConfig
	policy   CommitPolicy
	clock    Clock
	newRunID IDSource
	logger   *zap.Logger
	events   events.Publisher
	metrics  MetricsRecorder
}

// NewProcessor creates a processor from cfg
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.Calculator == nil {
		return nil, fmt.Errorf("processor requires a BOM calculator")
	}
	if len(cfg.Machines) == 0 {
		return nil, fmt.Errorf("processor requires at least one machine")
	}
	policy, err := ParseCommitPolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.NewRunID == nil {
		cfg.NewRunID = newRunID
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if _, err := fleet.NewFleet(cfg.Machines, cfg.Clock(), cfg.Scoring); err != nil {
		return nil, fmt.Errorf("invalid fleet: %w", err)
	}

	machines := make([]entities.MachineSpec, len(cfg.Machines))
	copy(machines, cfg.Machines)

	return &Processor{
		calc:     cfg.Calculator,
		feed:     cfg.Feed,
		machines: machines,
		scoring:  cfg.Scoring,
		policy:   policy,
		clock:    cfg.Clock,
		newRunID: cfg.NewRunID,
		logger:   cfg.Logger,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
	}, nil
}

// Policy returns the machine commit policy in effect
func (p *Processor) Policy() CommitPolicy {
	return p.policy
}

// run holds the mutable state of one Process call
type run struct {
	id     string
	ledger *inventory.Ledger
	fleet  *fleet.Fleet
}

// Process evaluates orders strictly in slice order. Each order sees the
// stock and machine bookings committed by every order before it. A failing
// order is recorded and the batch continues. When ctx is cancelled the run
// stops between orders and returns the partial result together with ctx.Err().
func (p *Processor) Process(ctx context.Context, orders []entities.Order) (*entities.RunResult, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	startedAt := p.clock()
	runID := p.newRunID()
	logger := p.logger.With(zap.String("run_id", runID))

	snapshot, degraded := p.fetchStock(ctx, runID, logger)
	f, err := fleet.NewFleet(p.machines, startedAt, p.scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to build fleet: %w", err)
	}
	r := &run{id: runID, ledger: inventory.NewLedger(snapshot), fleet: f}

	p.publish(logger, events.NewRunStartedEvent(runID, len(orders), len(snapshot), len(p.machines), startedAt))
	logger.Info("planning run started",
		zap.Int("orders", len(orders)),
		zap.Int("materials", len(snapshot)),
		zap.String("policy", string(p.policy)))

	results := make([]entities.OrderResult, 0, len(orders))
	var cancelErr error
	for i, order := range orders {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			logger.Warn("planning run cancelled", zap.Int("processed", i), zap.Error(err))
			break
		}

		res := p.evaluate(r, i, order, logger)
		results = append(results, res)

		if p.metrics != nil {
			p.metrics.RecordOrder(res.Feasible, res.Failed(), res.Cost.InexactFloat64())
		}
	}

	summary := p.summarize(r, orders, results, startedAt, degraded, cancelErr != nil)
	p.publish(logger, events.NewRunCompletedEvent(summary, summary.CompletedAt))

	if p.metrics != nil {
		outcome := "completed"
		if summary.Cancelled {
			outcome = "cancelled"
		}
		p.metrics.RecordRun(outcome, summary.CompletedAt.Sub(startedAt).Seconds())
		for _, u := range summary.MachineUtilization {
			p.metrics.SetMachineLoad(u.MachineID, u.ScheduledHours, u.UtilizationPct)
		}
	}

	logger.Info("planning run completed",
		zap.Int("processed", summary.OrdersProcessed),
		zap.Int("feasible", summary.FeasibleCount),
		zap.Int("infeasible", summary.InfeasibleCount),
		zap.Int("errors", summary.ErrorCount),
		zap.String("total_cost", summary.TotalCost.StringFixed(entities.CostPrecision)),
		zap.Bool("cancelled", summary.Cancelled))

	return &entities.RunResult{Results: results, Summary: summary}, cancelErr
}

// fetchStock reads the feed exactly once. Any failure degrades to an empty
// snapshot so every order fails its inventory check deterministically.
func (p *Processor) fetchStock(ctx context.Context, runID string, logger *zap.Logger) (entities.StockSnapshot, bool) {
	if p.feed == nil {
		logger.Warn("no inventory feed configured, starting from an empty ledger")
		p.recordDegraded(logger, runID, errors.New("inventory feed not configured"))
		return entities.StockSnapshot{}, true
	}

	snapshot, err := p.feed.FetchStock(ctx)
	if err != nil {
		logger.Warn("inventory feed unavailable, starting from an empty ledger", zap.Error(err))
		p.recordDegraded(logger, runID, err)
		return entities.StockSnapshot{}, true
	}
	if snapshot == nil {
		snapshot = entities.StockSnapshot{}
	}
	return snapshot, false
}

func (p *Processor) recordDegraded(logger *zap.Logger, runID string, err error) {
	if p.metrics != nil {
		p.metrics.RecordFeedDegraded()
	}
	p.publish(logger, events.NewFeedDegradedEvent(runID, err, p.clock()))
}

// evaluate runs the per-order state machine. Panics from any step are
// converted into an error result for this order only.
func (p *Processor) evaluate(r *run, index int, order entities.Order, logger *zap.Logger) (res entities.OrderResult) {
	res = entities.OrderResult{Index: index, Order: order, Cost: decimal.Zero}
	orderID := order.ID
	if orderID == "" {
		orderID = fmt.Sprintf("order-%d", index+1)
	}

	defer func() {
		if rec := recover(); rec != nil {
			p.fail(r, &res, orderID, fmt.Errorf("panic: %v", rec), logger)
		}
	}()

	bom, specs, bags, err := p.calc.Compute(order)
	res.Specs = specs
	res.ActualBags = bags
	if err != nil {
		p.fail(r, &res, orderID, fmt.Errorf("bom: %w", err), logger)
		return res
	}
	res.BOM = bom
	res.Cost = bom.TotalCost

	check := r.ledger.Check(bom)
	res.InventoryFeasible = check.Feasible
	res.Shortfalls = check.Shortfalls
	res.InsufficientMaterials = check.ShortfallMessages()

	machine, score := r.fleet.FindCompatible(specs, bags, order.DeliveryDays)
	res.MachineFeasible = machine != nil
	res.Feasible = res.InventoryFeasible && res.MachineFeasible
	if machine != nil {
		res.AssignedMachine = machine.Spec.ID
		res.MachineScore = score
	}

	// Record each commit on res as soon as it happens so a later failure
	// reports the bookings and stock that were actually taken.
	if machine != nil && (p.policy == CommitAlways || res.Feasible) {
		sched, err := r.fleet.Schedule(machine, bags, orderID)
		if err != nil {
			p.fail(r, &res, orderID, fmt.Errorf("schedule: %w", err), logger)
			return res
		}
		res.Schedule = &sched
	}

	if res.Feasible {
		if err := r.ledger.Commit(check.Consumptions); err != nil {
			p.fail(r, &res, orderID, fmt.Errorf("inventory commit: %w", err), logger)
			return res
		}
		res.Consumed = check.Consumptions
	}

	if res.Schedule != nil {
		p.publish(logger, events.NewMachineScheduledEvent(r.id, *res.Schedule, score, p.clock()))
	}
	if res.Consumed != nil {
		p.publish(logger, events.NewInventoryConsumedEvent(r.id, orderID, res.Consumed, p.clock()))
	}
	p.publish(logger, events.NewOrderEvaluatedEvent(r.id, &res, p.clock()))
	logger.Debug("order evaluated",
		zap.Int("index", index),
		zap.String("order_id", orderID),
		zap.Int64("bags", bags),
		zap.Bool("inventory_feasible", res.InventoryFeasible),
		zap.Bool("machine_feasible", res.MachineFeasible),
		zap.String("machine", res.AssignedMachine))
	return res
}

// fail records err on the order. An order whose stock was already committed
// stays feasible so the ledger reconciles against the feasible orders.
func (p *Processor) fail(r *run, res *entities.OrderResult, orderID string, err error, logger *zap.Logger) {
	if res.Consumed == nil {
		res.Feasible = false
	}
	res.Error = err.Error()
	logger.Error("order failed",
		zap.Int("index", res.Index),
		zap.String("order_id", orderID),
		zap.Error(err))
	p.publish(logger, events.NewOrderFailedEvent(r.id, res.Index, orderID, err, p.clock()))
}

func (p *Processor) summarize(
	r *run,
	orders []entities.Order,
	results []entities.OrderResult,
	startedAt time.Time,
	degraded, cancelled bool,
) entities.RunSummary {
	summary := entities.RunSummary{
		RunID:              r.id,
		StartedAt:          startedAt,
		OrdersSubmitted:    len(orders),
		OrdersProcessed:    len(results),
		TotalCost:          decimal.Zero,
		InitialInventory:   r.ledger.Initial(),
		FinalInventory:     r.ledger.Snapshot(),
		MachineUtilization: r.fleet.Utilization(),
		FeedDegraded:       degraded,
		Cancelled:          cancelled,
	}
	for i := range results {
		switch {
		case results[i].Feasible:
			summary.FeasibleCount++
			summary.TotalCost = summary.TotalCost.Add(results[i].Cost)
			if results[i].Failed() {
				summary.ErrorCount++
			}
		case results[i].Failed():
			summary.ErrorCount++
		default:
			summary.InfeasibleCount++
		}
	}
	summary.TotalCost = entities.RoundCost(summary.TotalCost)
	summary.CompletedAt = p.clock()
	return summary
}

// publish hands event to the configured store. Subscriber failures, panics
// included, are logged and never affect the order being evaluated.
func (p *Processor) publish(logger *zap.Logger, event events.Event) {
	if p.events == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("run event subscriber panicked",
				zap.String("event_type", event.Type()),
				zap.Any("panic", rec))
		}
	}()
	if err := p.events.AppendEvent(event.StreamID(), event); err != nil {
		logger.Warn("failed to publish run event", zap.String("event_type", event.Type()), zap.Error(err))
	}
}
