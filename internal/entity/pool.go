package entity

import (
	"fmt"
	"math/big"

	"MarketGraph/internal/bigmath"
)

// Pool is one contiguous half-open interval [Lower, Upper) of a market's
// outcome domain. All pools for a market are created atomically at market
// creation and partition [0, 2^256-1) with no gaps or overlaps.
type Pool struct {
	ID     string `json:"id"`
	Market string `json:"market"`
	Index  int64  `json:"index"`

	Lower *big.Int `json:"lower"`
	Upper *big.Int `json:"upper"`

	Staked    *big.Int `json:"staked"`
	Rewards   *big.Int `json:"rewards"`
	Positions *big.Int `json:"positions"`

	// Flips to true exactly once, at settlement, on at most one pool
	// per market.
	WinningPool bool `json:"winning_pool"`
}

// PoolID builds the composite key {marketId}-{index}.
func PoolID(marketID string, index int64) string {
	return fmt.Sprintf("%s-%d", marketID, index)
}

// NewPool constructs a pool with zeroed stake/rewards/positions.
func NewPool(marketID string, index int64, lower, upper *big.Int) *Pool {
	return &Pool{
		ID:        PoolID(marketID, index),
		Market:    marketID,
		Index:     index,
		Lower:     bigmath.Clone(lower),
		Upper:     bigmath.Clone(upper),
		Staked:    bigmath.Zero(),
		Rewards:   bigmath.Zero(),
		Positions: bigmath.Zero(),
	}
}

func (p *Pool) EntityKind() Kind  { return KindPool }
func (p *Pool) EntityKey() string { return p.ID }

func (p *Pool) Clone() Record {
	c := *p
	c.Lower = bigmath.Clone(p.Lower)
	c.Upper = bigmath.Clone(p.Upper)
	c.Staked = bigmath.Clone(p.Staked)
	c.Rewards = bigmath.Clone(p.Rewards)
	c.Positions = bigmath.Clone(p.Positions)
	return &c
}
