package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// FeedType is the oracle feed kind an asset is priced on.
type FeedType int32

const (
	FeedTypePrice FeedType = iota
	FeedTypeVolume
	FeedTypeRank
)

// FeedTypeFrom maps the raw contract enum to a FeedType. Out-of-range
// values default to Price rather than dropping the event — this is the
// contract's own fallback and is distinct from the award-type policy.
func FeedTypeFrom(raw int32) FeedType {
	switch raw {
	case 1:
		return FeedTypeVolume
	case 2:
		return FeedTypeRank
	default:
		return FeedTypePrice
	}
}

func (ft FeedType) String() string {
	switch ft {
	case FeedTypeVolume:
		return "Volume"
	case FeedTypeRank:
		return "Rank"
	default:
		return "Price"
	}
}

// Asset is one tradeable pair registered with the factory.
type Asset struct {
	ID       string   `json:"id"`
	Symbol0  string   `json:"symbol0"`
	Symbol1  string   `json:"symbol1"`
	FeedType FeedType `json:"feed_type"`
	Feed     string   `json:"feed"`
	Creator  string   `json:"creator"`
	Decimals int64    `json:"decimals"`

	TotalMarkets       int64    `json:"total_markets"`
	TotalPredictions   int64    `json:"total_predictions"`
	TotalParticipation *big.Int `json:"total_participation"`
	TotalRewards       *big.Int `json:"total_rewards"`
}

// NewAsset constructs an asset with zeroed counters.
func NewAsset(id string) *Asset {
	return &Asset{
		ID:                 id,
		TotalParticipation: bigmath.Zero(),
		TotalRewards:       bigmath.Zero(),
	}
}

func (a *Asset) EntityKind() Kind  { return KindAsset }
func (a *Asset) EntityKey() string { return a.ID }

func (a *Asset) Clone() Record {
	c := *a
	c.TotalParticipation = bigmath.Clone(a.TotalParticipation)
	c.TotalRewards = bigmath.Clone(a.TotalRewards)
	return &c
}
