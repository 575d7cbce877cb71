// Package bigmath provides exact arbitrary-precision integer arithmetic
// for on-chain monetary amounts. Event parameters carry uint256-scale
// values, so every amount field in the entity graph is a *big.Int and
// all reward math is exact floor division.
package bigmath

import "math/big"

var (
	hundred  = big.NewInt(100)
	infinity *big.Int
)

func init() {
	// 2^256 - 1: the native upper bound of the on-chain outcome domain.
	// Used as the open upper edge of the last pool in every market.
	// Deliberately not MaxInt64 — chain magnitudes exceed it.
	infinity = new(big.Int).Lsh(big.NewInt(1), 256)
	infinity.Sub(infinity, big.NewInt(1))
}

// Zero returns a fresh zero-valued big integer.
func Zero() *big.Int {
	return new(big.Int)
}

// New returns a fresh big integer holding v.
func New(v int64) *big.Int {
	return big.NewInt(v)
}

// Clone returns an independent copy of v, or a fresh zero if v is nil.
func Clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// Min returns the smaller of a and b.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Infinity returns the pool upper-bound sentinel (2^256 - 1).
// Callers must not mutate the result; use Clone when storing.
func Infinity() *big.Int {
	return infinity
}

// LeverageAdjustedReward computes floor(amount * leverage * lossConstant / 100).
// The divisor 100 and truncating division match the protocol contract; no
// other rounding is introduced anywhere in the projection.
func LeverageAdjustedReward(amount *big.Int, leverage, lossConstant int64) *big.Int {
	r := new(big.Int).Set(amount)
	r.Mul(r, big.NewInt(leverage))
	r.Mul(r, big.NewInt(lossConstant))
	r.Quo(r, hundred)
	return r
}
