package repositories

import (
	"context"

	"github.com/vsinha/bagplan/pkg/domain/entities"
)

// InventoryFeed provides the on-hand stock snapshot a run starts from
type InventoryFeed interface {
	FetchStock(ctx context.Context) (entities.StockSnapshot, error)
}
