package bigmath_test

import (
	"math/big"
	"testing"

	"MarketGraph/internal/bigmath"
)

func TestLeverageAdjustedReward_Exact(t *testing.T) {
	cases := []struct {
		amount       int64
		leverage     int64
		lossConstant int64
		want         int64
	}{
		{100, 3, 50, 150},
		{7, 2, 33, 4}, // floor(4.62)
		{0, 10, 50, 0},
		{1, 1, 99, 0},   // floor(0.99)
		{100, 1, 100, 100},
	}

	for _, tc := range cases {
		got := bigmath.LeverageAdjustedReward(big.NewInt(tc.amount), tc.leverage, tc.lossConstant)
		if got.Int64() != tc.want {
			t.Errorf("LeverageAdjustedReward(%d, %d, %d) = %s, want %d",
				tc.amount, tc.leverage, tc.lossConstant, got, tc.want)
		}
	}
}

func TestLeverageAdjustedReward_DoesNotMutateInput(t *testing.T) {
	amount := big.NewInt(100)
	bigmath.LeverageAdjustedReward(amount, 3, 50)
	if amount.Int64() != 100 {
		t.Errorf("input amount mutated: %s", amount)
	}
}

func TestLeverageAdjustedReward_Uint256Scale(t *testing.T) {
	// 10^30 * 5 * 50 / 100 must not overflow or truncate.
	amount, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)
	want, _ := new(big.Int).SetString("2500000000000000000000000000000", 10)

	got := bigmath.LeverageAdjustedReward(amount, 5, 50)
	if got.Cmp(want) != 0 {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestInfinity(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 256)
	want.Sub(want, big.NewInt(1))

	if bigmath.Infinity().Cmp(want) != 0 {
		t.Errorf("Infinity() = %s, want 2^256-1", bigmath.Infinity())
	}
}

func TestMin(t *testing.T) {
	if got := bigmath.Min(300, 500); got != 300 {
		t.Errorf("Min(300, 500) = %d", got)
	}
	if got := bigmath.Min(1000, 500); got != 500 {
		t.Errorf("Min(1000, 500) = %d", got)
	}
}

func TestClone_Nil(t *testing.T) {
	if got := bigmath.Clone(nil); got.Sign() != 0 {
		t.Errorf("Clone(nil) = %s, want 0", got)
	}
}
