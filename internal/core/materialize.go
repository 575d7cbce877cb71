package core

import (
	"MarketGraph/internal/entity"
)

// Typed load helpers. Each returns the caller-owned copy the store
// hands out, or nil when the record has never been written.

func (c *ProjectionCore) loadFactory() *entity.Factory {
	if rec := c.store.Get(entity.KindFactory, entity.FactoryID); rec != nil {
		return rec.(*entity.Factory)
	}
	return nil
}

func (c *ProjectionCore) loadAsset(id string) *entity.Asset {
	if rec := c.store.Get(entity.KindAsset, id); rec != nil {
		return rec.(*entity.Asset)
	}
	return nil
}

func (c *ProjectionCore) loadMarket(id string) *entity.Market {
	if rec := c.store.Get(entity.KindMarket, id); rec != nil {
		return rec.(*entity.Market)
	}
	return nil
}

func (c *ProjectionCore) loadPool(id string) *entity.Pool {
	if rec := c.store.Get(entity.KindPool, id); rec != nil {
		return rec.(*entity.Pool)
	}
	return nil
}

func (c *ProjectionCore) loadSchedule(id string) *entity.VestingSchedule {
	if rec := c.store.Get(entity.KindVestingSchedule, id); rec != nil {
		return rec.(*entity.VestingSchedule)
	}
	return nil
}

func (c *ProjectionCore) loadUser(id string) *entity.User {
	if rec := c.store.Get(entity.KindUser, id); rec != nil {
		return rec.(*entity.User)
	}
	return nil
}

// materializeUser is the shared load-or-create path for users. Every
// handler that can first-touch an address goes through here so the
// defaulting is identical at all call sites. The second return reports
// whether the user is new — callers owe Factory.totalParticipants
// bookkeeping only where their event category says so.
func (c *ProjectionCore) materializeUser(id string) (*entity.User, bool) {
	if u := c.loadUser(id); u != nil {
		return u, false
	}
	return entity.NewUser(id), true
}

// materializeMarketUser is the shared load-or-create path for the
// (market, user) junction record. Creation must be idempotent across
// all five event categories that can first see the pair.
func (c *ProjectionCore) materializeMarketUser(marketID, userID string) (*entity.MarketUser, bool) {
	id := entity.MarketUserID(marketID, userID)
	if rec := c.store.Get(entity.KindMarketUser, id); rec != nil {
		return rec.(*entity.MarketUser), false
	}
	return entity.NewMarketUser(marketID, userID), true
}
