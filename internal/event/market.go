package event

import "math/big"

// PlacePrediction is a stake placed on one pool of a trading market.
type PlacePrediction struct {
	Meta
	Market    string
	User      string
	PoolIndex int64
	Amount    *big.Int
	Leverage  int64
	Positions *big.Int
}

func (e *PlacePrediction) EventType() EventType { return EventTypePlacePrediction }
func (e *PlacePrediction) ChainMeta() Meta      { return e.Meta }

// SettleMarket resolves a market: one pool wins and the reward pools are
// fixed. Expected exactly once per market; the core does not guard against
// re-emission (upstream contract invariant).
type SettleMarket struct {
	Meta
	Market          string
	WinningPool     int64
	Settler         string
	CreatorReward   *big.Int
	PlatformReward  *big.Int
	SettlerReward   *big.Int
	UsersRewardPool *big.Int
	RewardPool      *big.Int
}

func (e *SettleMarket) EventType() EventType { return EventTypeSettleMarket }
func (e *SettleMarket) ChainMeta() Meta      { return e.Meta }

// AwardType discriminates DistributeMarketFee payouts.
const (
	AwardTypeCreator  int32 = 0
	AwardTypeSettler  int32 = 1
	AwardTypePlatform int32 = 2
)

// DistributeMarketFee pays the creation/settlement/platform fee for a
// settled market. Award types outside {0,1,2} are silently ignored.
type DistributeMarketFee struct {
	Meta
	Market    string
	User      string
	AwardType int32
	Amount    *big.Int
}

func (e *DistributeMarketFee) EventType() EventType { return EventTypeDistributeMarketFee }
func (e *DistributeMarketFee) ChainMeta() Meta      { return e.Meta }

// ClaimReturns is a user collecting their returns from a settled market.
// ProfitLoss is derived as TotalReturns - ParticipationAmount and may be
// negative.
type ClaimReturns struct {
	Meta
	Market              string
	User                string
	TotalReturns        *big.Int
	ParticipationAmount *big.Int
}

func (e *ClaimReturns) EventType() EventType { return EventTypeClaimReturns }
func (e *ClaimReturns) ChainMeta() Meta      { return e.Meta }
