package core

import (
	"math/big"

	"MarketGraph/internal/bigmath"
	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/rollup"
	"MarketGraph/internal/store"
)

// handlePlacePrediction records a stake on one pool of a trading
// market and fans the amounts out to every aggregate that tracks them.
func (c *ProjectionCore) handlePlacePrediction(evt *event.PlacePrediction) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}
	m := c.loadMarket(evt.Market)
	if m == nil {
		return nil, "missing_market"
	}
	a := c.loadAsset(m.Asset)
	if a == nil {
		return nil, "missing_asset"
	}
	pool := c.loadPool(entity.PoolID(evt.Market, evt.PoolIndex))
	if pool == nil {
		return nil, "missing_pool"
	}

	user, isNewUser := c.materializeUser(evt.User)
	if isNewUser {
		f.TotalParticipants++
	}

	mu, isNewMarketUser := c.materializeMarketUser(evt.Market, evt.User)
	if isNewMarketUser {
		user.TotalMarketParticipated++
		m.Users = append(m.Users, user.ID)
	}
	if mu.TotalPredictions == 0 {
		// First prediction in this market; the junction record may
		// predate it (market creator, settler).
		m.TotalParticipants++
	}

	prediction := &entity.MarketPrediction{
		ID:         evt.IdempotencyKey(),
		Market:     m.ID,
		MarketUser: mu.ID,
		User:       user.ID,
		Pool:       pool.ID,
		Amount:     bigmath.Clone(evt.Amount),
		Leverage:   evt.Leverage,
		Positions:  bigmath.Clone(evt.Positions),
		BoostMode:  false,
		Timestamp:  evt.Timestamp,
	}

	reward := bigmath.LeverageAdjustedReward(evt.Amount, evt.Leverage, m.LossConstant)

	pool.Staked.Add(pool.Staked, evt.Amount)
	pool.Rewards.Add(pool.Rewards, reward)
	pool.Positions.Add(pool.Positions, evt.Positions)

	m.TotalPredictions++
	m.TotalParticipation.Add(m.TotalParticipation, evt.Amount)
	m.PotentialRewardPool.Add(m.PotentialRewardPool, reward)

	a.TotalPredictions++
	a.TotalParticipation.Add(a.TotalParticipation, evt.Amount)

	f.TotalPredictions++
	f.TotalParticipation.Add(f.TotalParticipation, evt.Amount)

	user.TotalPredictions++
	user.TotalParticipationAmount.Add(user.TotalParticipationAmount, evt.Amount)
	user.NumReturnsPending++

	mu.TotalPredictions++
	mu.TotalParticipationAmount.Add(mu.TotalParticipationAmount, evt.Amount)

	b := store.NewBatch()
	b.Put(prediction)
	b.Put(pool)
	b.Put(mu)
	b.Put(m)
	b.Put(user)
	b.Put(a)
	b.Put(f)

	ts := evt.Timestamp
	b.Put(rollup.FactoryHour(f, ts))
	b.Put(rollup.FactoryDay(f, ts))
	b.Put(rollup.AssetHour(a, ts))
	b.Put(rollup.AssetDay(a, ts))

	return b, ""
}

// handleSettleMarket resolves a market: exactly one pool wins and the
// reward pools are fixed. Expected once per market; re-emission is an
// upstream contract invariant the core does not re-validate.
func (c *ProjectionCore) handleSettleMarket(evt *event.SettleMarket) (*store.Batch, string) {
	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}
	m := c.loadMarket(evt.Market)
	if m == nil {
		return nil, "missing_market"
	}
	pool := c.loadPool(entity.PoolID(evt.Market, evt.WinningPool))
	if pool == nil {
		return nil, "missing_pool"
	}
	a := c.loadAsset(m.Asset)
	if a == nil {
		return nil, "missing_asset"
	}

	settler, isNewUser := c.materializeUser(evt.Settler)
	if isNewUser {
		f.TotalParticipants++
	}

	mu, isNewMarketUser := c.materializeMarketUser(evt.Market, evt.Settler)
	if isNewMarketUser {
		settler.TotalMarketParticipated++
		m.Users = append(m.Users, settler.ID)
	}

	settler.TotalSettled++
	mu.IsMarketSettler = true

	pool.WinningPool = true

	m.Phase = entity.MarketPhaseSettled
	m.WinningPool = pool.ID
	m.Settler = evt.Settler
	m.CreatorReward = bigmath.Clone(evt.CreatorReward)
	m.PlatformReward = bigmath.Clone(evt.PlatformReward)
	m.SettlerReward = bigmath.Clone(evt.SettlerReward)
	m.UsersRewardPool = bigmath.Clone(evt.UsersRewardPool)
	m.RewardPool = bigmath.Clone(evt.RewardPool)
	m.SettlementTimestamp = evt.Timestamp

	f.TotalMarketsSettled++
	if f.TotalMarketsInTrading > 0 {
		f.TotalMarketsInTrading--
	}
	f.TotalRewards.Add(f.TotalRewards, evt.RewardPool)
	a.TotalRewards.Add(a.TotalRewards, evt.RewardPool)

	b := store.NewBatch()
	b.Put(settler)
	b.Put(pool)
	b.Put(mu)
	b.Put(m)
	b.Put(a)
	b.Put(f)

	ts := evt.Timestamp
	b.Put(rollup.FactoryHour(f, ts))
	b.Put(rollup.FactoryDay(f, ts))
	b.Put(rollup.AssetHour(a, ts))
	b.Put(rollup.AssetDay(a, ts))

	return b, ""
}

// handleDistributeMarketFee pays the creation/settlement/platform fee
// for a settled market. Award types outside {0,1,2} are dropped; the
// platform branch touches no user-side accounting because the platform
// is not a tracked user.
func (c *ProjectionCore) handleDistributeMarketFee(evt *event.DistributeMarketFee) (*store.Batch, string) {
	if evt.AwardType < event.AwardTypeCreator || evt.AwardType > event.AwardTypePlatform {
		return nil, "bad_award_type"
	}

	f := c.loadFactory()
	if f == nil {
		return nil, "missing_factory"
	}
	m := c.loadMarket(evt.Market)
	if m == nil {
		return nil, "missing_market"
	}

	user, _ := c.materializeUser(evt.User)
	mu, isNewMarketUser := c.materializeMarketUser(evt.Market, evt.User)
	if isNewMarketUser {
		user.TotalMarketParticipated++
		m.Users = append(m.Users, user.ID)
	}

	switch evt.AwardType {
	case event.AwardTypeCreator:
		mu.CreationRewardClaimed = true
		mu.CreationReward = bigmath.Clone(evt.Amount)
		m.CreationRewardClaimed = true
		user.TotalMarketCreationRewardClaimed.Add(user.TotalMarketCreationRewardClaimed, evt.Amount)

	case event.AwardTypeSettler:
		mu.SettlementRewardClaimed = true
		mu.SettlementReward = bigmath.Clone(evt.Amount)
		m.SettlementRewardClaimed = true
		user.TotalSettlementRewardClaimed.Add(user.TotalSettlementRewardClaimed, evt.Amount)

	case event.AwardTypePlatform:
		m.PlatformRewardClaimed = true
	}

	if evt.AwardType != event.AwardTypePlatform {
		user.TotalRewardsClaimed.Add(user.TotalRewardsClaimed, evt.Amount)
		user.TotalPNL.Add(user.TotalPNL, evt.Amount)
		mu.PNL.Add(mu.PNL, evt.Amount)
	}

	b := store.NewBatch()
	b.Put(mu)
	b.Put(m)
	b.Put(user)

	return b, ""
}

// handleClaimReturns is a user collecting their returns from a settled
// market. The profit/loss split is asymmetric: a realized loss reduces
// totalPNL but never reduces totalRewardsClaimed.
func (c *ProjectionCore) handleClaimReturns(evt *event.ClaimReturns) (*store.Batch, string) {
	user, _ := c.materializeUser(evt.User)
	mu, _ := c.materializeMarketUser(evt.Market, evt.User)

	profitLoss := new(big.Int).Sub(evt.TotalReturns, evt.ParticipationAmount)

	mu.TotalReturns.Add(mu.TotalReturns, evt.TotalReturns)
	mu.PNL.Add(mu.PNL, profitLoss)
	mu.ReturnsClaimed = true

	user.TotalReturnsClaimed.Add(user.TotalReturnsClaimed, evt.TotalReturns)
	if profitLoss.Sign() >= 0 {
		user.TotalRewardsClaimed.Add(user.TotalRewardsClaimed, profitLoss)
	}
	user.TotalPNL.Add(user.TotalPNL, profitLoss)
	if user.NumReturnsPending > 0 {
		user.NumReturnsPending--
	}

	b := store.NewBatch()
	b.Put(mu)
	b.Put(user)

	ts := evt.Timestamp
	b.Put(rollup.UserDay(user, ts))
	b.Put(rollup.UserMonth(user, ts))

	return b, ""
}
