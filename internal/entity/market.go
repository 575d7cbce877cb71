package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// MarketPhase is the persisted, event-driven lifecycle attribute. It is
// written exactly twice: Trading at creation, Settled at settlement. The
// reporting/waiting/dispute sub-periods are never persisted — derive them
// with StatusAt.
type MarketPhase int32

const (
	MarketPhaseTrading MarketPhase = iota
	MarketPhaseSettled
)

func (p MarketPhase) String() string {
	if p == MarketPhaseSettled {
		return "Settled"
	}
	return "Trading"
}

// MarketStatus is the time-derived lifecycle view of a market, computed
// from wall-clock time against the timestamps fixed at creation.
type MarketStatus int32

const (
	MarketStatusTrading MarketStatus = iota
	MarketStatusReporting
	MarketStatusWaiting
	MarketStatusDisputing
	MarketStatusPendingSettlement
	MarketStatusSettled
)

func (s MarketStatus) String() string {
	switch s {
	case MarketStatusReporting:
		return "Reporting"
	case MarketStatusWaiting:
		return "Waiting"
	case MarketStatusDisputing:
		return "Disputing"
	case MarketStatusPendingSettlement:
		return "PendingSettlement"
	case MarketStatusSettled:
		return "Settled"
	default:
		return "Trading"
	}
}

// Market is one prediction instance over an asset's outcome domain,
// partitioned into pools, with a bounded trading period followed by
// settlement. Fee parameters are snapshotted from the factory at creation
// so later factory updates never affect existing markets.
type Market struct {
	ID      string      `json:"id"`
	Asset   string      `json:"asset"`
	Creator string      `json:"creator"`
	Token   string      `json:"token"`
	Phase   MarketPhase `json:"phase"`

	Duration              int64 `json:"duration"`
	CreatedTimestamp      int64 `json:"created_timestamp"`
	TradingEndTimestamp   int64 `json:"trading_end_timestamp"`
	ReportingEndTimestamp int64 `json:"reporting_end_timestamp"`
	WaitingEndTimestamp   int64 `json:"waiting_end_timestamp"`
	DisputeEndTimestamp   int64 `json:"dispute_end_timestamp"`
	SettlementTimestamp   int64 `json:"settlement_timestamp"`

	Liquidity *big.Int `json:"liquidity"`

	// Creation-time factory snapshot
	CreatorFee   int64 `json:"creator_fee"`
	SettlerFee   int64 `json:"settler_fee"`
	PlatformFee  int64 `json:"platform_fee"`
	LossConstant int64 `json:"loss_constant"`

	TotalParticipants   int64    `json:"total_participants"`
	TotalPredictions    int64    `json:"total_predictions"`
	TotalParticipation  *big.Int `json:"total_participation"`
	PotentialRewardPool *big.Int `json:"potential_reward_pool"`

	// Settlement outcome
	WinningPool     string   `json:"winning_pool"`
	Settler         string   `json:"settler"`
	CreatorReward   *big.Int `json:"creator_reward"`
	PlatformReward  *big.Int `json:"platform_reward"`
	SettlerReward   *big.Int `json:"settler_reward"`
	UsersRewardPool *big.Int `json:"users_reward_pool"`
	RewardPool      *big.Int `json:"reward_pool"`

	CreationRewardClaimed   bool `json:"creation_reward_claimed"`
	SettlementRewardClaimed bool `json:"settlement_reward_claimed"`
	PlatformRewardClaimed   bool `json:"platform_reward_claimed"`

	// Append-only list of participant user ids
	Users []string `json:"users"`
}

// NewMarket constructs a market with zeroed aggregates.
func NewMarket(id string) *Market {
	return &Market{
		ID:                  id,
		Liquidity:           bigmath.Zero(),
		TotalParticipation:  bigmath.Zero(),
		PotentialRewardPool: bigmath.Zero(),
		CreatorReward:       bigmath.Zero(),
		PlatformReward:      bigmath.Zero(),
		SettlerReward:       bigmath.Zero(),
		UsersRewardPool:     bigmath.Zero(),
		RewardPool:          bigmath.Zero(),
	}
}

// StatusAt derives the market's logical lifecycle stage at time now. The
// intermediate stages exist only as time windows computed at creation;
// no handler ever persists them.
func (m *Market) StatusAt(now int64) MarketStatus {
	if m.Phase == MarketPhaseSettled {
		return MarketStatusSettled
	}
	switch {
	case now < m.TradingEndTimestamp:
		return MarketStatusTrading
	case now < m.ReportingEndTimestamp:
		return MarketStatusReporting
	case now < m.WaitingEndTimestamp:
		return MarketStatusWaiting
	case now < m.DisputeEndTimestamp:
		return MarketStatusDisputing
	default:
		return MarketStatusPendingSettlement
	}
}

func (m *Market) EntityKind() Kind  { return KindMarket }
func (m *Market) EntityKey() string { return m.ID }

func (m *Market) Clone() Record {
	c := *m
	c.Liquidity = bigmath.Clone(m.Liquidity)
	c.TotalParticipation = bigmath.Clone(m.TotalParticipation)
	c.PotentialRewardPool = bigmath.Clone(m.PotentialRewardPool)
	c.CreatorReward = bigmath.Clone(m.CreatorReward)
	c.PlatformReward = bigmath.Clone(m.PlatformReward)
	c.SettlerReward = bigmath.Clone(m.SettlerReward)
	c.UsersRewardPool = bigmath.Clone(m.UsersRewardPool)
	c.RewardPool = bigmath.Clone(m.RewardPool)
	c.Users = append([]string(nil), m.Users...)
	return &c
}
