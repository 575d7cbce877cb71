package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// VestingSchedule mirrors one on-chain vesting schedule, keyed by the
// schedule id the contract assigned.
type VestingSchedule struct {
	ID          string `json:"id"`
	Beneficiary string `json:"beneficiary"`

	Cliff              int64 `json:"cliff"`
	Start              int64 `json:"start"`
	Duration           int64 `json:"duration"`
	SlicePeriodSeconds int64 `json:"slice_period_seconds"`
	Revocable          bool  `json:"revocable"`

	AmountTotal *big.Int `json:"amount_total"`
	Released    *big.Int `json:"released"`
	Revoked     bool     `json:"revoked"`
	UpFront     *big.Int `json:"up_front"`
}

func (v *VestingSchedule) EntityKind() Kind  { return KindVestingSchedule }
func (v *VestingSchedule) EntityKey() string { return v.ID }

func (v *VestingSchedule) Clone() Record {
	c := *v
	c.AmountTotal = bigmath.Clone(v.AmountTotal)
	c.Released = bigmath.Clone(v.Released)
	c.UpFront = bigmath.Clone(v.UpFront)
	return &c
}

// ClaimType distinguishes scheduled post-vesting releases from the
// up-front transfer made when a schedule is opened.
type ClaimType int32

const (
	ClaimTypePostVesting ClaimType = iota
	ClaimTypeUpFront
)

func (t ClaimType) String() string {
	if t == ClaimTypeUpFront {
		return "UpFront"
	}
	return "PostVesting"
}

// Claim is one token release to a beneficiary, keyed by the transaction
// hash that carried it. Immutable once written.
type Claim struct {
	ID          string    `json:"id"`
	Schedule    string    `json:"schedule"`
	Beneficiary string    `json:"beneficiary"`
	Amount      *big.Int  `json:"amount"`
	Type        ClaimType `json:"type"`
	Timestamp   int64     `json:"timestamp"`
}

func (cl *Claim) EntityKind() Kind  { return KindClaim }
func (cl *Claim) EntityKey() string { return cl.ID }

func (cl *Claim) Clone() Record {
	c := *cl
	c.Amount = bigmath.Clone(cl.Amount)
	return &c
}
