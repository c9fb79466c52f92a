package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/domain/repositories"
)

// RunStore provides in-memory run storage. Runs are kept as encoded
// documents so callers never share state with the store.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string][]byte
	meta map[string]entities.RunSummary
}

// NewRunStore creates a new in-memory run store
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string][]byte),
		meta: make(map[string]entities.RunSummary),
	}
}

// Verify interface compliance
var _ repositories.BulkOrderStore = (*RunStore)(nil)

// Save stores or replaces a run under its run id
func (s *RunStore) Save(ctx context.Context, run *entities.RunResult) error {
	if run == nil || run.Summary.RunID == "" {
		return fmt.Errorf("run must have a run id")
	}
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.Summary.RunID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.Summary.RunID] = doc
	s.meta[run.Summary.RunID] = run.Summary
	return nil
}

// Get returns a stored run
func (s *RunStore) Get(ctx context.Context, runID string) (*entities.RunResult, error) {
	s.mu.RLock()
	doc, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}

	var run entities.RunResult
	if err := json.Unmarshal(doc, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &run, nil
}

// List returns run summaries, newest first
func (s *RunStore) List(ctx context.Context) ([]entities.RunSummary, error) {
	s.mu.RLock()
	out := make([]entities.RunSummary, 0, len(s.meta))
	for _, summary := range s.meta {
		out = append(out, summary)
	}
	s.mu.RUnlock()

	SortSummaries(out)
	return out, nil
}

// SortSummaries orders summaries newest first, then by run id
func SortSummaries(summaries []entities.RunSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.After(b.StartedAt)
		}
		return a.RunID < b.RunID
	})
}
