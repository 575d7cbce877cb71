package event

import "math/big"

// AddVestingSchedule creates a token vesting schedule for a beneficiary.
type AddVestingSchedule struct {
	Meta
	ScheduleID         string
	Beneficiary        string
	Cliff              int64 // unix seconds
	Start              int64 // unix seconds
	Duration           int64 // seconds
	SlicePeriodSeconds int64
	Revocable          bool
	AmountTotal        *big.Int
	Released           *big.Int
	Revoked            bool
	UpFront            *big.Int
}

func (e *AddVestingSchedule) EventType() EventType { return EventTypeAddVestingSchedule }
func (e *AddVestingSchedule) ChainMeta() Meta      { return e.Meta }

// ReleaseVestedToken releases vested tokens to the beneficiary after the
// vesting curve unlocks them.
type ReleaseVestedToken struct {
	Meta
	ScheduleID  string
	Beneficiary string
	Amount      *big.Int
}

func (e *ReleaseVestedToken) EventType() EventType { return EventTypeReleaseVestedToken }
func (e *ReleaseVestedToken) ChainMeta() Meta      { return e.Meta }

// UpfrontTokenTransfer transfers the up-front (non-vested) slice of a
// schedule at creation time.
type UpfrontTokenTransfer struct {
	Meta
	ScheduleID  string
	Beneficiary string
	Amount      *big.Int
}

func (e *UpfrontTokenTransfer) EventType() EventType { return EventTypeUpfrontTokenTransfer }
func (e *UpfrontTokenTransfer) ChainMeta() Meta      { return e.Meta }
