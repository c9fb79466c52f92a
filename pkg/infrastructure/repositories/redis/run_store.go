// Package redis stores planning runs as JSON documents in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/memory"
)

// RunStore keeps each run under prefix+runID with a TTL and indexes run
// ids in a sorted set scored by start time.
type RunStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Verify interface compliance
var _ repositories.BulkOrderStore = (*RunStore)(nil)

// NewRunStore creates a store. A zero ttl keeps runs until deleted.
func NewRunStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RunStore {
	if prefix == "" {
		prefix = "bagplan:run:"
	}
	return &RunStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RunStore) key(runID string) string {
	return s.prefix + runID
}

func (s *RunStore) indexKey() string {
	return s.prefix + "index"
}

// Save writes the run document and its index entry in one transaction
func (s *RunStore) Save(ctx context.Context, run *entities.RunResult) error {
	if run == nil || run.Summary.RunID == "" {
		return fmt.Errorf("run must have a run id")
	}
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.Summary.RunID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(run.Summary.RunID), doc, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(run.Summary.StartedAt.UnixNano()),
			Member: run.Summary.RunID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.Summary.RunID, err)
	}
	return nil
}

// Get loads a run document
func (s *RunStore) Get(ctx context.Context, runID string) (*entities.RunResult, error) {
	doc, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var run entities.RunResult
	if err := json.Unmarshal(doc, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &run, nil
}

// List returns summaries of runs that have not expired, newest first.
// Index entries whose documents expired are pruned.
func (s *RunStore) List(ctx context.Context) ([]entities.RunSummary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run index: %w", err)
	}
	if len(ids) == 0 {
		return []entities.RunSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	docs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	out := make([]entities.RunSummary, 0, len(ids))
	var expired []interface{}
	for i, raw := range docs {
		str, ok := raw.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var run struct {
			Summary entities.RunSummary `json:"summary"`
		}
		if err := json.Unmarshal([]byte(str), &run); err != nil {
			return nil, fmt.Errorf("failed to decode run %s: %w", ids[i], err)
		}
		out = append(out, run.Summary)
	}
	if len(expired) > 0 {
		s.client.ZRem(ctx, s.indexKey(), expired...)
	}

	memory.SortSummaries(out)
	return out, nil
}
