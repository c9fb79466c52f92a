package testing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/infrastructure/feed"
)

// RunStart is the fixed planning clock used across service tests
var RunStart = time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)

// FixedClock returns RunStart
func FixedClock() time.Time {
	return RunStart
}

// BuildShopperOrder builds the reference 320x160x380 mm 90 GSM flat-handle
// brown kraft shopper. 1000 bags need 38.124 kg of paper.
func BuildShopperOrder(id string, bags int64) entities.Order {
	return entities.Order{
		ID:         id,
		BagName:    "Shopper 32",
		Quantity:   bags,
		Unit:       entities.UnitBags,
		Width:      320,
		Gusset:     160,
		Height:     380,
		GSM:        90,
		HandleType: entities.FlatHandle,
		PaperGrade: "BROWN KRAFT",
	}
}

// BuildStockSnapshot stocks paperKg of brown kraft 90 GSM and accessoryQty
// of every handle, glue and carton material.
func BuildStockSnapshot(paperKg, accessoryQty int64) entities.StockSnapshot {
	stock := entities.StockSnapshot{"1003696": decimal.NewFromInt(paperKg)}
	if accessoryQty <= 0 {
		return stock
	}
	for _, code := range []entities.MaterialCode{
		bom.CodeFlatHandle, bom.CodeFlatPatch, bom.CodeTwistedHandle, bom.CodeTwistedPatch,
		bom.CodeHotMeltGlue, bom.CodeColdGlue, bom.CodeCarton,
	} {
		stock[code] = decimal.NewFromInt(accessoryQty)
	}
	return stock
}

// BuildStaticFeed wraps BuildStockSnapshot in a feed
func BuildStaticFeed(paperKg, accessoryQty int64) *feed.StaticFeed {
	return feed.NewStaticFeed(BuildStockSnapshot(paperKg, accessoryQty))
}
