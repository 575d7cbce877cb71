package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// MarketPrediction is one placement, keyed {txHash}-{logIndex}. Immutable
// once written.
type MarketPrediction struct {
	ID         string `json:"id"`
	Market     string `json:"market"`
	MarketUser string `json:"market_user"`
	User       string `json:"user"`
	Pool       string `json:"pool"`

	Amount    *big.Int `json:"amount"`
	Leverage  int64    `json:"leverage"`
	Positions *big.Int `json:"positions"`
	BoostMode bool     `json:"boost_mode"`
	Timestamp int64    `json:"timestamp"`
}

func (mp *MarketPrediction) EntityKind() Kind  { return KindMarketPrediction }
func (mp *MarketPrediction) EntityKey() string { return mp.ID }

func (mp *MarketPrediction) Clone() Record {
	c := *mp
	c.Amount = bigmath.Clone(mp.Amount)
	c.Positions = bigmath.Clone(mp.Positions)
	return &c
}
