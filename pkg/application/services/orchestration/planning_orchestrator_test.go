package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/application/services/fleet"
	"github.com/vsinha/bagplan/pkg/application/services/processor"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"github.com/vsinha/bagplan/pkg/infrastructure/events"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/bagplan/pkg/infrastructure/testing"
)

func newOrchestrator(t *testing.T, store repositories.BulkOrderStore) *PlanningOrchestrator {
	t.Helper()
	calc, err := bom.NewCalculator(bom.Config{BagsPerCarton: 250})
	require.NoError(t, err)

	machines := fleet.DefaultCatalog()
	proc, err := processor.NewProcessor(processor.Config{
		Calculator: calc,
		Feed:       testhelpers.BuildStaticFeed(500, 1000),
		Machines:   machines,
		Clock:      testhelpers.FixedClock,
	})
	require.NoError(t, err)

	return NewPlanningOrchestrator(proc, calc, store, machines, nil)
}

func TestRunPlanning_ProcessesValidAndStoresRun(t *testing.T) {
	store := memory.NewRunStore()
	po := newOrchestrator(t, store)

	bad := testhelpers.BuildShopperOrder("BAD", 0)
	result, err := po.RunPlanning(context.Background(), []entities.Order{
		testhelpers.BuildShopperOrder("A", 1000), bad, testhelpers.BuildShopperOrder("", 500),
	})
	require.NoError(t, err)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)

	run := result.Run
	require.Len(t, run.Results, 2)
	assert.Equal(t, "A", run.Results[0].Order.ID)
	assert.NotEmpty(t, run.Results[1].Order.ID, "missing ids are generated")
	assert.Equal(t, "BROWN KRAFT", run.Results[0].Order.PaperGrade)
	assert.Equal(t, 2, run.Summary.FeasibleCount)

	stored, err := po.GetRun(context.Background(), run.Summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Summary.RunID, stored.Summary.RunID)

	list, err := po.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestRunPlanning_AllRejected(t *testing.T) {
	po := newOrchestrator(t, memory.NewRunStore())

	_, err := po.RunPlanning(context.Background(), []entities.Order{testhelpers.BuildShopperOrder("A", -5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoValidOrders))

	_, err = po.RunPlanning(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoValidOrders))
}

func TestRunPlanning_CancelledRunIsStillStored(t *testing.T) {
	store := memory.NewRunStore()
	po := newOrchestrator(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := po.RunPlanning(ctx, []entities.Order{testhelpers.BuildShopperOrder("A", 1000)})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.True(t, result.Run.Summary.Cancelled)

	_, err = store.Get(context.Background(), result.Run.Summary.RunID)
	assert.NoError(t, err)
}

func TestComputeBOM(t *testing.T) {
	po := newOrchestrator(t, nil)

	order := testhelpers.BuildShopperOrder("A", 4)
	order.Unit = entities.UnitCartons
	result, err := po.ComputeBOM(order)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.ActualBags)
	line, ok := result.BOM.Line("1003696")
	require.True(t, ok)
	assert.Equal(t, "38.124", line.TotalQty.String())

	_, err = po.ComputeBOM(testhelpers.BuildShopperOrder("A", 0))
	assert.True(t, errors.Is(err, ErrNoValidOrders))
}

func TestRunEvents(t *testing.T) {
	calc, err := bom.NewCalculator(bom.Config{BagsPerCarton: 250})
	require.NoError(t, err)
	log := events.NewBoundedEventStore(nil, 1)
	machines := fleet.DefaultCatalog()
	proc, err := processor.NewProcessor(processor.Config{
		Calculator: calc,
		Feed:       testhelpers.BuildStaticFeed(500, 1000),
		Machines:   machines,
		Clock:      testhelpers.FixedClock,
		Events:     log,
	})
	require.NoError(t, err)
	po := NewPlanningOrchestrator(proc, calc, nil, machines, nil).WithEventLog(log)

	first, err := po.RunPlanning(context.Background(), []entities.Order{testhelpers.BuildShopperOrder("A", 1000)})
	require.NoError(t, err)
	stream, err := po.RunEvents(first.Run.Summary.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, stream)
	assert.Equal(t, events.RunStartedEvent, stream[0].Type)
	assert.Equal(t, 1, stream[0].Version)
	assert.Equal(t, events.RunCompletedEvent, stream[len(stream)-1].Type)
	assert.Equal(t, testhelpers.RunStart, stream[0].Timestamp)

	// Retention of one run evicts the first once a second run starts
	second, err := po.RunPlanning(context.Background(), []entities.Order{testhelpers.BuildShopperOrder("B", 10)})
	require.NoError(t, err)
	_, err = po.RunEvents(first.Run.Summary.RunID)
	assert.True(t, errors.Is(err, repositories.ErrRunNotFound))
	_, err = po.RunEvents(second.Run.Summary.RunID)
	assert.NoError(t, err)

	_, err = newOrchestrator(t, nil).RunEvents(second.Run.Summary.RunID)
	assert.True(t, errors.Is(err, repositories.ErrRunNotFound))
}

func TestWithoutStore(t *testing.T) {
	po := newOrchestrator(t, nil)

	result, err := po.RunPlanning(context.Background(), []entities.Order{testhelpers.BuildShopperOrder("A", 10)})
	require.NoError(t, err)

	_, err = po.GetRun(context.Background(), result.Run.Summary.RunID)
	assert.True(t, errors.Is(err, repositories.ErrRunNotFound))

	list, err := po.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Zero(t, list.Total)
	assert.Len(t, po.Machines(), len(fleet.DefaultCatalog()))
}
