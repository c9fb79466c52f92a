package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/domain/entities"
)

var at = time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	require.NoError(t, store.AppendEvent("run-1", NewRunStartedEvent("run-1", 2, 5, 8, at)))
	require.NoError(t, store.AppendEvent("run-2", NewRunStartedEvent("run-2", 1, 5, 8, at)))
	require.NoError(t, store.AppendEvent("run-1", NewOrderFailedEvent("run-1", 0, "O1", errors.New("boom"), at)))

	run1, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, 1, run1[0].Version())
	assert.Equal(t, 2, run1[1].Version())
	assert.Equal(t, OrderFailedEvent, run1[1].Type())
	assert.Equal(t, OrderFailed{Index: 0, OrderID: "O1", Error: "boom"}, run1[1].Data())

	tail, err := store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	none, err := store.ReadEvents("run-1", 3)
	require.NoError(t, err)
	assert.Empty(t, none)

	run2, err := store.ReadEvents("run-2", 1)
	require.NoError(t, err)
	require.Len(t, run2, 1)
	assert.Equal(t, "run-2", run2[0].StreamID())
	assert.Equal(t, 2, store.StreamCount())
}

func TestBoundedEventStore_EvictsOldestRuns(t *testing.T) {
	store := NewBoundedEventStore(nil, 2)

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.AppendEvent(id, NewRunStartedEvent(id, 1, 1, 1, at)))
	}
	require.NoError(t, store.AppendEvent("run-2", NewRunCompletedEvent(entities.RunSummary{RunID: "run-2"}, at)))

	assert.Equal(t, 2, store.StreamCount())
	evicted, err := store.ReadEvents("run-1", 1)
	require.NoError(t, err)
	assert.Empty(t, evicted)

	kept, err := store.ReadEvents("run-2", 1)
	require.NoError(t, err)
	require.Len(t, kept, 2, "appending to a retained stream does not evict it")
	assert.Equal(t, 2, kept[1].Version())
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	var scheduled []Event
	handler := NewFuncHandler(func(e Event) error {
		scheduled = append(scheduled, e)
		return errors.New("handler errors are logged, not returned")
	}, MachineScheduledEvent)
	require.NoError(t, store.Subscribe([]string{MachineScheduledEvent, RunCompletedEvent}, handler))

	sched := entities.MachineSchedule{MachineID: "M1", OrderID: "O1", Bags: 100}
	require.NoError(t, store.AppendEvent("run-1", NewMachineScheduledEvent("run-1", sched, nil, at)))
	require.NoError(t, store.AppendEvent("run-1", NewRunCompletedEvent(entities.RunSummary{RunID: "run-1"}, at)))

	require.Len(t, scheduled, 1, "CanHandle filters run.completed")
	assert.Equal(t, sched, scheduled[0].Data().(MachineScheduled).Schedule)

	require.NoError(t, store.Unsubscribe(handler))
	require.NoError(t, store.AppendEvent("run-1", NewMachineScheduledEvent("run-1", sched, nil, at)))
	assert.Len(t, scheduled, 1)
}
