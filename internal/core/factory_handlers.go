package core

import (
	"strings"

	"MarketGraph/internal/bigmath"
	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/store"
)

// handleInit bootstraps the factory singleton. Re-emission overwrites
// the configuration fields in place but never resets counters —
// load-or-create, not create-or-replace.
func (c *ProjectionCore) handleInit(evt *event.Init) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		f = entity.NewFactory(entity.FactoryID)
	}

	f.Owner = evt.Owner
	f.ReportingWindow = evt.ReportingWindow
	f.WaitingWindow = evt.WaitingWindow
	f.DisputeWindow = evt.DisputeWindow
	f.MinMarketDuration = evt.MinMarketDuration
	f.MaxMarketDuration = evt.MaxMarketDuration
	f.CreatorFee = evt.CreatorFee
	f.SettlerFee = evt.SettlerFee
	f.PlatformFee = evt.PlatformFee
	f.LossConstant = evt.LossConstant
	f.MinMarketLiquidity = bigmath.Clone(evt.MinMarketLiquidity)

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

// handleAddAsset registers a tradeable pair. The composite symbol
// string must split on ":" into exactly two parts.
func (c *ProjectionCore) handleAddAsset(evt *event.AddAsset) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	parts := strings.Split(evt.Symbols, ":")
	if len(parts) != 2 {
		return nil, "bad_symbols"
	}

	a := c.loadAsset(evt.AssetID)
	if a == nil {
		a = entity.NewAsset(evt.AssetID)
	}
	a.Symbol0 = parts[0]
	a.Symbol1 = parts[1]
	a.FeedType = entity.FeedTypeFrom(evt.FeedType)
	a.Feed = evt.Feed
	a.Creator = evt.Creator
	a.Decimals = evt.Decimals

	f.TotalAssets++

	b := store.NewBatch()
	b.Put(a)
	b.Put(f)
	return b, ""
}

func (c *ProjectionCore) handleAddMarketToken(evt *event.AddMarketToken) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.TotalTokens++

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

// The parameter-update handlers each overwrite only their own fields.
// Markets created before an update keep their creation-time snapshot.

func (c *ProjectionCore) handleUpdateMinMarketLiquidity(evt *event.UpdateMinMarketLiquidity) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.MinMarketLiquidity = bigmath.Clone(evt.MinMarketLiquidity)

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

func (c *ProjectionCore) handleUpdateLossConstant(evt *event.UpdateLossConstant) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.LossConstant = evt.LossConstant

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

func (c *ProjectionCore) handleUpdateMarketWindowParams(evt *event.UpdateMarketWindowParams) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.ReportingWindow = evt.ReportingWindow
	f.WaitingWindow = evt.WaitingWindow
	f.DisputeWindow = evt.DisputeWindow

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

func (c *ProjectionCore) handleUpdateMarketDurationParams(evt *event.UpdateMarketDurationParams) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.MinMarketDuration = evt.MinMarketDuration
	f.MaxMarketDuration = evt.MaxMarketDuration

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}

func (c *ProjectionCore) handleUpdateMarketFeesPercentage(evt *event.UpdateMarketFeesPercentage) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}

	f.CreatorFee = evt.CreatorFee
	f.SettlerFee = evt.SettlerFee
	f.PlatformFee = evt.PlatformFee

	b := store.NewBatch()
	b.Put(f)
	return b, ""
}
