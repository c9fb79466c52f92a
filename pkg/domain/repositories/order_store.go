package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// ErrRunNotFound is returned when a run id is unknown to the store
var ErrRunNotFound = errors.New("run not found")

// BulkOrderStore persists run results as documents keyed by run id
type BulkOrderStore interface {
	Save(ctx context.Context, run *entities.RunResult) error
	Get(ctx context.Context, runID string) (*entities.RunResult, error)
	List(ctx context.Context) ([]entities.RunSummary, error)
}
