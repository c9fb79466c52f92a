package feed

import (
	"context"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// StaticFeed serves a fixed snapshot, typically loaded from a CSV file
type StaticFeed struct {
	snapshot entities.StockSnapshot
}

func NewStaticFeed(snapshot entities.StockSnapshot) *StaticFeed {
	return &StaticFeed{snapshot: snapshot.Clone()}
}

// FetchStock returns a copy so runs cannot affect each other
func (f *StaticFeed) FetchStock(ctx context.Context) (entities.StockSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.snapshot.Clone(), nil
}
