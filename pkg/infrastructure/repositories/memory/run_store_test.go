package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
)

func sampleRun(id string, started time.Time) *entities.RunResult {
	return &entities.RunResult{
		Results: []entities.OrderResult{{
			Index:           0,
			Order:           entities.Order{ID: "O1", BagName: "Shopper", Quantity: 1000, Unit: entities.UnitBags},
			Feasible:        true,
			AssignedMachine: "M1",
			Cost:            decimal.RequireFromString("63.69"),
		}},
		Summary: entities.RunSummary{
			RunID:           id,
			StartedAt:       started,
			OrdersProcessed: 1,
			FeasibleCount:   1,
			TotalCost:       decimal.RequireFromString("63.69"),
			FinalInventory:  entities.StockSnapshot{"1003696": decimal.RequireFromString("11.876")},
		},
	}
}

func TestRunStore_SaveGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	run := sampleRun("run-1", time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC))

	require.NoError(t, store.Save(ctx, run))
	run.Results[0].AssignedMachine = "mutated"

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "M1", got.Results[0].AssignedMachine)
	assert.Equal(t, "63.69", got.Summary.TotalCost.String())
	assert.Equal(t, "11.876", got.Summary.FinalInventory["1003696"].String())

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, repositories.ErrRunNotFound))

	assert.Error(t, store.Save(ctx, &entities.RunResult{}))
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, sampleRun("old", base)))
	require.NoError(t, store.Save(ctx, sampleRun("new", base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, sampleRun("b-tie", base)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "b-tie", "old"}, []string{list[0].RunID, list[1].RunID, list[2].RunID})
}
