package entity

import (
	"math/big"

	"MarketGraph/internal/bigmath"
)

// Rollup rows are cumulative snapshots, not deltas: each row holds the
// parent's counter values as of the last event observed in its bucket.

// FactoryHourData is the factory snapshot for one hour bucket, keyed
// {factoryId}-{hourIndex}.
type FactoryHourData struct {
	ID            string   `json:"id"`
	Timestamp     int64    `json:"timestamp"` // bucket start
	Participation *big.Int `json:"participation"`
	Predictions   int64    `json:"predictions"`
	Participants  int64    `json:"participants"`
}

func (d *FactoryHourData) EntityKind() Kind  { return KindFactoryHourData }
func (d *FactoryHourData) EntityKey() string { return d.ID }

func (d *FactoryHourData) Clone() Record {
	c := *d
	c.Participation = bigmath.Clone(d.Participation)
	return &c
}

// FactoryDayData is the factory snapshot for one day bucket. The factory
// is a singleton, so the key is the bare bucket index.
type FactoryDayData struct {
	ID            string   `json:"id"`
	Timestamp     int64    `json:"timestamp"`
	Participation *big.Int `json:"participation"`
	Predictions   int64    `json:"predictions"`
	Participants  int64    `json:"participants"`
}

func (d *FactoryDayData) EntityKind() Kind  { return KindFactoryDayData }
func (d *FactoryDayData) EntityKey() string { return d.ID }

func (d *FactoryDayData) Clone() Record {
	c := *d
	c.Participation = bigmath.Clone(d.Participation)
	return &c
}

// AssetHourData is the per-asset snapshot for one hour bucket, keyed
// {assetId}-{hourIndex}.
type AssetHourData struct {
	ID            string   `json:"id"`
	Asset         string   `json:"asset"`
	Timestamp     int64    `json:"timestamp"`
	Participation *big.Int `json:"participation"`
	Predictions   int64    `json:"predictions"`
	Rewards       *big.Int `json:"rewards"`
}

func (d *AssetHourData) EntityKind() Kind  { return KindAssetHourData }
func (d *AssetHourData) EntityKey() string { return d.ID }

func (d *AssetHourData) Clone() Record {
	c := *d
	c.Participation = bigmath.Clone(d.Participation)
	c.Rewards = bigmath.Clone(d.Rewards)
	return &c
}

// AssetDayData is the per-asset snapshot for one day bucket, keyed
// {assetId}-{dayIndex}.
type AssetDayData struct {
	ID            string   `json:"id"`
	Asset         string   `json:"asset"`
	Timestamp     int64    `json:"timestamp"`
	Participation *big.Int `json:"participation"`
	Predictions   int64    `json:"predictions"`
	Rewards       *big.Int `json:"rewards"`
}

func (d *AssetDayData) EntityKind() Kind  { return KindAssetDayData }
func (d *AssetDayData) EntityKey() string { return d.ID }

func (d *AssetDayData) Clone() Record {
	c := *d
	c.Participation = bigmath.Clone(d.Participation)
	c.Rewards = bigmath.Clone(d.Rewards)
	return &c
}

// UserDayData is the per-user PNL snapshot for one day bucket, keyed
// {userId}-{dayIndex}.
type UserDayData struct {
	ID        string   `json:"id"`
	User      string   `json:"user"`
	Timestamp int64    `json:"timestamp"`
	PNL       *big.Int `json:"pnl"`
}

func (d *UserDayData) EntityKind() Kind  { return KindUserDayData }
func (d *UserDayData) EntityKey() string { return d.ID }

func (d *UserDayData) Clone() Record {
	c := *d
	c.PNL = bigmath.Clone(d.PNL)
	return &c
}

// UserMonthData is the per-user PNL snapshot for one fixed 30-day month
// bucket, keyed {userId}-{monthIndex}.
type UserMonthData struct {
	ID        string   `json:"id"`
	User      string   `json:"user"`
	Timestamp int64    `json:"timestamp"`
	PNL       *big.Int `json:"pnl"`
}

func (d *UserMonthData) EntityKind() Kind  { return KindUserMonthData }
func (d *UserMonthData) EntityKey() string { return d.ID }

func (d *UserMonthData) Clone() Record {
	c := *d
	c.PNL = bigmath.Clone(d.PNL)
	return &c
}
