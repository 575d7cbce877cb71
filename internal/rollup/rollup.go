// Package rollup builds the time-bucketed snapshot rows. Buckets use
// fixed windows over the raw unix timestamp; rows are overwritten with
// the parent's post-mutation counters, so the last event in a bucket
// determines its final values and no delta accounting is needed.
package rollup

import (
	"fmt"

	"MarketGraph/internal/bigmath"
	"MarketGraph/internal/entity"
)

const (
	HourSeconds  int64 = 3600
	DaySeconds   int64 = 86400
	MonthSeconds int64 = 2592000 // fixed 30-day window, not calendar months
)

// BucketIndex returns the bucket ordinal for a timestamp under the
// given window.
func BucketIndex(ts, window int64) int64 {
	return ts / window
}

// BucketStart returns the timestamp of the bucket's first second.
func BucketStart(ts, window int64) int64 {
	return BucketIndex(ts, window) * window
}

// FactoryHour snapshots the factory's participation counters into its
// hour bucket, keyed {factoryId}-{hourIndex}.
func FactoryHour(f *entity.Factory, ts int64) *entity.FactoryHourData {
	idx := BucketIndex(ts, HourSeconds)
	return &entity.FactoryHourData{
		ID:            fmt.Sprintf("%s-%d", f.ID, idx),
		Timestamp:     BucketStart(ts, HourSeconds),
		Participation: bigmath.Clone(f.TotalParticipation),
		Predictions:   f.TotalPredictions,
		Participants:  f.TotalParticipants,
	}
}

// FactoryDay snapshots the factory's participation counters into its
// day bucket. The factory is a singleton so the bare index suffices as
// key.
func FactoryDay(f *entity.Factory, ts int64) *entity.FactoryDayData {
	idx := BucketIndex(ts, DaySeconds)
	return &entity.FactoryDayData{
		ID:            fmt.Sprintf("%d", idx),
		Timestamp:     BucketStart(ts, DaySeconds),
		Participation: bigmath.Clone(f.TotalParticipation),
		Predictions:   f.TotalPredictions,
		Participants:  f.TotalParticipants,
	}
}

// AssetHour snapshots one asset's counters into its hour bucket, keyed
// {assetId}-{hourIndex}.
func AssetHour(a *entity.Asset, ts int64) *entity.AssetHourData {
	idx := BucketIndex(ts, HourSeconds)
	return &entity.AssetHourData{
		ID:            fmt.Sprintf("%s-%d", a.ID, idx),
		Asset:         a.ID,
		Timestamp:     BucketStart(ts, HourSeconds),
		Participation: bigmath.Clone(a.TotalParticipation),
		Predictions:   a.TotalPredictions,
		Rewards:       bigmath.Clone(a.TotalRewards),
	}
}

// AssetDay snapshots one asset's counters into its day bucket, keyed
// {assetId}-{dayIndex}.
func AssetDay(a *entity.Asset, ts int64) *entity.AssetDayData {
	idx := BucketIndex(ts, DaySeconds)
	return &entity.AssetDayData{
		ID:            fmt.Sprintf("%s-%d", a.ID, idx),
		Asset:         a.ID,
		Timestamp:     BucketStart(ts, DaySeconds),
		Participation: bigmath.Clone(a.TotalParticipation),
		Predictions:   a.TotalPredictions,
		Rewards:       bigmath.Clone(a.TotalRewards),
	}
}

// UserDay snapshots one user's lifetime PNL into their day bucket,
// keyed {userId}-{dayIndex}.
func UserDay(u *entity.User, ts int64) *entity.UserDayData {
	idx := BucketIndex(ts, DaySeconds)
	return &entity.UserDayData{
		ID:        fmt.Sprintf("%s-%d", u.ID, idx),
		User:      u.ID,
		Timestamp: BucketStart(ts, DaySeconds),
		PNL:       bigmath.Clone(u.TotalPNL),
	}
}

// UserMonth snapshots one user's lifetime PNL into their 30-day month
// bucket, keyed {userId}-{monthIndex}.
func UserMonth(u *entity.User, ts int64) *entity.UserMonthData {
	idx := BucketIndex(ts, MonthSeconds)
	return &entity.UserMonthData{
		ID:        fmt.Sprintf("%s-%d", u.ID, idx),
		User:      u.ID,
		Timestamp: BucketStart(ts, MonthSeconds),
		PNL:       bigmath.Clone(u.TotalPNL),
	}
}
