package core

import (
	"MarketGraph/internal/bigmath"
	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/rollup"
	"MarketGraph/internal/store"
)

// handleCreateMarket spawns a market instance with its full pool
// partition. All pools for a market are created atomically here.
func (c *ProjectionCore) handleCreateMarket(evt *event.CreateMarket) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}
	a := c.loadAsset(evt.AssetID)
	if a == nil {
		return nil, "missing_asset"
	}

	f.TotalMarkets++
	f.TotalMarketsInTrading++
	a.TotalMarkets++

	creator, isNewUser := c.materializeUser(evt.Creator)
	creator.TotalMarketCreated++
	if isNewUser {
		f.TotalParticipants++
	}

	m := entity.NewMarket(evt.Market)

	mu, isNewMarketUser := c.materializeMarketUser(evt.Market, evt.Creator)
	mu.IsMarketCreator = true
	if isNewMarketUser {
		creator.TotalMarketParticipated++
		m.Users = append(m.Users, creator.ID)
	}

	m.Asset = evt.AssetID
	m.Creator = evt.Creator
	m.Token = evt.Token
	m.Phase = entity.MarketPhaseTrading
	m.Duration = evt.Duration
	m.Liquidity = bigmath.Clone(evt.Liquidity)

	// Window math. The reporting and waiting windows are each capped by
	// the market's own duration; the dispute window is not, and
	// disputeEnd hangs off reportingEnd rather than waitingEnd —
	// matching the contract, which can leave it inside the waiting
	// period.
	m.CreatedTimestamp = evt.CreationTime
	m.TradingEndTimestamp = evt.CreationTime + evt.Duration
	m.ReportingEndTimestamp = m.TradingEndTimestamp + bigmath.Min(f.ReportingWindow, evt.Duration)
	m.WaitingEndTimestamp = m.ReportingEndTimestamp + bigmath.Min(f.WaitingWindow, evt.Duration)
	m.DisputeEndTimestamp = m.ReportingEndTimestamp + f.DisputeWindow

	// Fee snapshot: later factory parameter changes must not affect
	// this market.
	m.CreatorFee = f.CreatorFee
	m.SettlerFee = f.SettlerFee
	m.PlatformFee = f.PlatformFee
	m.LossConstant = f.LossConstant

	b := store.NewBatch()

	// Pool partition: n ascending thresholds carve the outcome domain
	// into n+1 contiguous half-open intervals covering [0, 2^256-1).
	lower := bigmath.Zero()
	for i, threshold := range evt.PoolsRange {
		b.Put(entity.NewPool(m.ID, int64(i), lower, threshold))
		lower = threshold
	}
	b.Put(entity.NewPool(m.ID, int64(len(evt.PoolsRange)), lower, bigmath.Infinity()))

	b.Put(m)
	b.Put(mu)
	b.Put(creator)
	b.Put(a)
	b.Put(f)

	ts := evt.Timestamp
	b.Put(rollup.FactoryHour(f, ts))
	b.Put(rollup.FactoryDay(f, ts))
	b.Put(rollup.AssetHour(a, ts))
	b.Put(rollup.AssetDay(a, ts))

	return b, ""
}
