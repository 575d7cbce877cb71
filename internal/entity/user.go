package entity

import (
	"fmt"
	"math/big"

	"MarketGraph/internal/bigmath"
)

// User holds one address's lifetime counters across all markets and the
// vesting stream. Created lazily on first interaction of any kind.
type User struct {
	ID string `json:"id"`

	TotalMarketCreated       int64    `json:"total_market_created"`
	TotalMarketParticipated  int64    `json:"total_market_participated"`
	TotalPredictions         int64    `json:"total_predictions"`
	TotalParticipationAmount *big.Int `json:"total_participation_amount"`
	TotalSettled             int64    `json:"total_settled"`

	TotalRewardsClaimed              *big.Int `json:"total_rewards_claimed"`
	TotalMarketCreationRewardClaimed *big.Int `json:"total_market_creation_reward_claimed"`
	TotalSettlementRewardClaimed     *big.Int `json:"total_settlement_reward_claimed"`
	TotalReturnsClaimed              *big.Int `json:"total_returns_claimed"`

	// Signed: realized losses subtract
	TotalPNL *big.Int `json:"total_pnl"`

	// Clamped at zero on decrement, never negative
	NumReturnsPending int64 `json:"num_returns_pending"`

	// Vesting stream
	TotalAllocation *big.Int `json:"total_allocation"`
	TotalReleased   *big.Int `json:"total_released"`
}

// NewUser is the single construction path for users; every handler that
// can first-touch an address goes through it so defaulting is identical
// everywhere.
func NewUser(id string) *User {
	return &User{
		ID:                               id,
		TotalParticipationAmount:         bigmath.Zero(),
		TotalRewardsClaimed:              bigmath.Zero(),
		TotalMarketCreationRewardClaimed: bigmath.Zero(),
		TotalSettlementRewardClaimed:     bigmath.Zero(),
		TotalReturnsClaimed:              bigmath.Zero(),
		TotalPNL:                         bigmath.Zero(),
		TotalAllocation:                  bigmath.Zero(),
		TotalReleased:                    bigmath.Zero(),
	}
}

func (u *User) EntityKind() Kind  { return KindUser }
func (u *User) EntityKey() string { return u.ID }

func (u *User) Clone() Record {
	c := *u
	c.TotalParticipationAmount = bigmath.Clone(u.TotalParticipationAmount)
	c.TotalRewardsClaimed = bigmath.Clone(u.TotalRewardsClaimed)
	c.TotalMarketCreationRewardClaimed = bigmath.Clone(u.TotalMarketCreationRewardClaimed)
	c.TotalSettlementRewardClaimed = bigmath.Clone(u.TotalSettlementRewardClaimed)
	c.TotalReturnsClaimed = bigmath.Clone(u.TotalReturnsClaimed)
	c.TotalPNL = bigmath.Clone(u.TotalPNL)
	c.TotalAllocation = bigmath.Clone(u.TotalAllocation)
	c.TotalReleased = bigmath.Clone(u.TotalReleased)
	return &c
}

// MarketUser is the junction record capturing one user's participation
// history within one market. Whichever handler first sees the pair
// creates it; creation is idempotent across all creating events.
type MarketUser struct {
	ID     string `json:"id"`
	Market string `json:"market"`
	User   string `json:"user"`

	TotalParticipationAmount *big.Int `json:"total_participation_amount"`
	TotalPredictions         int64    `json:"total_predictions"`

	IsMarketCreator bool `json:"is_market_creator"`
	IsMarketSettler bool `json:"is_market_settler"`

	CreationRewardClaimed   bool     `json:"creation_reward_claimed"`
	CreationReward          *big.Int `json:"creation_reward"`
	SettlementRewardClaimed bool     `json:"settlement_reward_claimed"`
	SettlementReward        *big.Int `json:"settlement_reward"`

	TotalReturns   *big.Int `json:"total_returns"`
	PNL            *big.Int `json:"pnl"`
	ReturnsClaimed bool     `json:"returns_claimed"`
}

// MarketUserID builds the composite key {marketId}-{userId}.
func MarketUserID(marketID, userID string) string {
	return fmt.Sprintf("%s-%s", marketID, userID)
}

// NewMarketUser is the single construction path for market-user junction
// records, shared by every handler that can create the pair.
func NewMarketUser(marketID, userID string) *MarketUser {
	return &MarketUser{
		ID:                       MarketUserID(marketID, userID),
		Market:                   marketID,
		User:                     userID,
		TotalParticipationAmount: bigmath.Zero(),
		CreationReward:           bigmath.Zero(),
		SettlementReward:         bigmath.Zero(),
		TotalReturns:             bigmath.Zero(),
		PNL:                      bigmath.Zero(),
	}
}

func (mu *MarketUser) EntityKind() Kind  { return KindMarketUser }
func (mu *MarketUser) EntityKey() string { return mu.ID }

func (mu *MarketUser) Clone() Record {
	c := *mu
	c.TotalParticipationAmount = bigmath.Clone(mu.TotalParticipationAmount)
	c.CreationReward = bigmath.Clone(mu.CreationReward)
	c.SettlementReward = bigmath.Clone(mu.SettlementReward)
	c.TotalReturns = bigmath.Clone(mu.TotalReturns)
	c.PNL = bigmath.Clone(mu.PNL)
	return &c
}
