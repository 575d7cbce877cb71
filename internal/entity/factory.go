package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// Factory is the protocol-wide singleton: configuration parameters plus
// running counters across every asset, market and participant.
type Factory struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`

	// Fee parameters (percentages, divisor 100)
	CreatorFee   int64 `json:"creator_fee"`
	SettlerFee   int64 `json:"settler_fee"`
	PlatformFee  int64 `json:"platform_fee"`
	LossConstant int64 `json:"loss_constant"`

	// Window parameters (seconds)
	ReportingWindow int64 `json:"reporting_window"`
	WaitingWindow   int64 `json:"waiting_window"`
	DisputeWindow   int64 `json:"dispute_window"`

	// Market duration bounds (seconds)
	MinMarketDuration int64 `json:"min_market_duration"`
	MaxMarketDuration int64 `json:"max_market_duration"`

	MinMarketLiquidity *big.Int `json:"min_market_liquidity"`

	// Running counters
	TotalAssets           int64    `json:"total_assets"`
	TotalTokens           int64    `json:"total_tokens"`
	TotalMarkets          int64    `json:"total_markets"`
	TotalMarketsInTrading int64    `json:"total_markets_in_trading"`
	TotalMarketsSettled   int64    `json:"total_markets_settled"`
	TotalParticipants     int64    `json:"total_participants"`
	TotalPredictions      int64    `json:"total_predictions"`
	TotalParticipation    *big.Int `json:"total_participation"`
	TotalRewards          *big.Int `json:"total_rewards"`
}

// NewFactory constructs the factory singleton with zeroed counters.
func NewFactory(id string) *Factory {
	return &Factory{
		ID:                 id,
		MinMarketLiquidity: bigmath.Zero(),
		TotalParticipation: bigmath.Zero(),
		TotalRewards:       bigmath.Zero(),
	}
}

func (f *Factory) EntityKind() Kind  { return KindFactory }
func (f *Factory) EntityKey() string { return f.ID }

func (f *Factory) Clone() Record {
	c := *f
	c.MinMarketLiquidity = bigmath.Clone(f.MinMarketLiquidity)
	c.TotalParticipation = bigmath.Clone(f.TotalParticipation)
	c.TotalRewards = bigmath.Clone(f.TotalRewards)
	return &c
}
