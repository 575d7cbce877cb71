package core

import (
	"math/big"

	"MarketGraph/internal/bigmath"
	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/store"
)

// handleAddVestingSchedule mirrors a new on-chain vesting schedule and
// adds its total to the beneficiary's lifetime allocation.
func (c *ProjectionCore) handleAddVestingSchedule(evt *event.AddVestingSchedule) (*store.Batch, string) {
	schedule := &entity.VestingSchedule{
		ID:                 evt.ScheduleID,
		Beneficiary:        evt.Beneficiary,
		Cliff:              evt.Cliff,
		Start:              evt.Start,
		Duration:           evt.Duration,
		SlicePeriodSeconds: evt.SlicePeriodSeconds,
		Revocable:          evt.Revocable,
		AmountTotal:        bigmath.Clone(evt.AmountTotal),
		Released:           bigmath.Clone(evt.Released),
		Revoked:            evt.Revoked,
		UpFront:            bigmath.Clone(evt.UpFront),
	}

	user, _ := c.materializeUser(evt.Beneficiary)
	user.TotalAllocation.Add(user.TotalAllocation, evt.AmountTotal)

	b := store.NewBatch()
	b.Put(schedule)
	b.Put(user)
	return b, ""
}

// handleReleaseVestedToken appends a PostVesting claim. Unlike the
// up-front transfer, release requires the beneficiary to already exist.
func (c *ProjectionCore) handleReleaseVestedToken(evt *event.ReleaseVestedToken) (*store.Batch, string) {
	schedule := c.loadSchedule(evt.ScheduleID)
	if schedule == nil {
		return nil, "missing_schedule"
	}
	user := c.loadUser(evt.Beneficiary)
	if user == nil {
		return nil, "missing_user"
	}

	claim := c.newClaim(evt.ChainMeta(), schedule.ID, evt.Beneficiary, evt.Amount, entity.ClaimTypePostVesting)

	schedule.Released.Add(schedule.Released, evt.Amount)
	user.TotalReleased.Add(user.TotalReleased, evt.Amount)

	b := store.NewBatch()
	b.Put(claim)
	b.Put(schedule)
	b.Put(user)
	return b, ""
}

// handleUpfrontTokenTransfer appends an UpFront claim for the
// non-vested slice transferred when a schedule opens.
func (c *ProjectionCore) handleUpfrontTokenTransfer(evt *event.UpfrontTokenTransfer) (*store.Batch, string) {
	schedule := c.loadSchedule(evt.ScheduleID)
	if schedule == nil {
		return nil, "missing_schedule"
	}

	user, _ := c.materializeUser(evt.Beneficiary)

	claim := c.newClaim(evt.ChainMeta(), schedule.ID, evt.Beneficiary, evt.Amount, entity.ClaimTypeUpFront)

	schedule.Released.Add(schedule.Released, evt.Amount)
	user.TotalReleased.Add(user.TotalReleased, evt.Amount)

	b := store.NewBatch()
	b.Put(claim)
	b.Put(schedule)
	b.Put(user)
	return b, ""
}

// newClaim builds the immutable claim record, keyed by the transaction
// hash that carried the release.
func (c *ProjectionCore) newClaim(meta event.Meta, scheduleID, beneficiary string, amount *big.Int, claimType entity.ClaimType) *entity.Claim {
	return &entity.Claim{
		ID:          meta.TxHash,
		Schedule:    scheduleID,
		Beneficiary: beneficiary,
		Amount:      bigmath.Clone(amount),
		Type:        claimType,
		Timestamp:   meta.Timestamp,
	}
}
