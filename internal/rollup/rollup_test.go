package rollup_test

import (
	"math/big"
	"testing"

	"MarketGraph/internal/entity"
	"MarketGraph/internal/rollup"
)

func TestBucketMath(t *testing.T) {
	cases := []struct {
		ts, window, idx, start int64
	}{
		{0, rollup.HourSeconds, 0, 0},
		{3599, rollup.HourSeconds, 0, 0},
		{3600, rollup.HourSeconds, 1, 3600},
		{7450, rollup.HourSeconds, 2, 7200},
		{86399, rollup.DaySeconds, 0, 0},
		{86400, rollup.DaySeconds, 1, 86400},
		{2591999, rollup.MonthSeconds, 0, 0},
		{2592000, rollup.MonthSeconds, 1, 2592000},
	}
	for _, c := range cases {
		if got := rollup.BucketIndex(c.ts, c.window); got != c.idx {
			t.Errorf("BucketIndex(%d, %d) = %d, want %d", c.ts, c.window, got, c.idx)
		}
		if got := rollup.BucketStart(c.ts, c.window); got != c.start {
			t.Errorf("BucketStart(%d, %d) = %d, want %d", c.ts, c.window, got, c.start)
		}
	}
}

func TestFactoryHour_KeyAndSnapshot(t *testing.T) {
	f := entity.NewFactory(entity.FactoryID)
	f.TotalParticipation = big.NewInt(500)
	f.TotalPredictions = 7
	f.TotalParticipants = 3

	row := rollup.FactoryHour(f, 7450)

	wantID := entity.FactoryID + "-2"
	if row.ID != wantID {
		t.Errorf("ID: got %q, want %q", row.ID, wantID)
	}
	if row.Timestamp != 7200 {
		t.Errorf("Timestamp: got %d, want 7200", row.Timestamp)
	}
	if row.Participation.Int64() != 500 || row.Predictions != 7 || row.Participants != 3 {
		t.Errorf("snapshot mismatch: %s/%d/%d", row.Participation, row.Predictions, row.Participants)
	}
}

func TestFactoryDay_BareIndexKey(t *testing.T) {
	f := entity.NewFactory(entity.FactoryID)
	row := rollup.FactoryDay(f, 90000)
	if row.ID != "1" {
		t.Errorf("ID: got %q, want \"1\"", row.ID)
	}
	if row.Timestamp != 86400 {
		t.Errorf("Timestamp: got %d, want 86400", row.Timestamp)
	}
}

// Two events in the same bucket produce rows with the same key; the
// second snapshot carries the later counters, so the store's
// last-write-wins apply yields cumulative values.
func TestFactoryHour_SameBucketOverwrites(t *testing.T) {
	f := entity.NewFactory(entity.FactoryID)

	f.TotalPredictions = 1
	first := rollup.FactoryHour(f, 1000)

	f.TotalPredictions = 2
	second := rollup.FactoryHour(f, 2000)

	if first.ID != second.ID {
		t.Fatalf("keys differ within one bucket: %q vs %q", first.ID, second.ID)
	}
	if second.Predictions != 2 {
		t.Errorf("second snapshot should carry updated counter, got %d", second.Predictions)
	}
}

func TestAssetRows(t *testing.T) {
	a := entity.NewAsset("0xasset")
	a.TotalParticipation = big.NewInt(42)
	a.TotalPredictions = 2
	a.TotalRewards = big.NewInt(9)

	hour := rollup.AssetHour(a, 3600)
	if hour.ID != "0xasset-1" {
		t.Errorf("hour ID: got %q, want \"0xasset-1\"", hour.ID)
	}
	if hour.Asset != "0xasset" {
		t.Errorf("hour Asset ref: got %q", hour.Asset)
	}
	if hour.Rewards.Int64() != 9 {
		t.Errorf("hour Rewards: got %s, want 9", hour.Rewards)
	}

	day := rollup.AssetDay(a, 86400)
	if day.ID != "0xasset-1" {
		t.Errorf("day ID: got %q, want \"0xasset-1\"", day.ID)
	}
	if day.Participation.Int64() != 42 {
		t.Errorf("day Participation: got %s, want 42", day.Participation)
	}
}

func TestUserRows(t *testing.T) {
	u := entity.NewUser("0xuser")
	u.TotalPNL = big.NewInt(-30)

	day := rollup.UserDay(u, 86400)
	if day.ID != "0xuser-1" {
		t.Errorf("day ID: got %q, want \"0xuser-1\"", day.ID)
	}
	if day.PNL.Int64() != -30 {
		t.Errorf("day PNL: got %s, want -30", day.PNL)
	}

	month := rollup.UserMonth(u, 2592000)
	if month.ID != "0xuser-1" {
		t.Errorf("month ID: got %q, want \"0xuser-1\"", month.ID)
	}
	if month.Timestamp != 2592000 {
		t.Errorf("month Timestamp: got %d, want 2592000", month.Timestamp)
	}
}

// Snapshot rows must not alias the parent's big.Int counters.
func TestRows_DoNotAliasParent(t *testing.T) {
	f := entity.NewFactory(entity.FactoryID)
	f.TotalParticipation = big.NewInt(10)

	row := rollup.FactoryHour(f, 0)
	f.TotalParticipation.SetInt64(999)

	if row.Participation.Int64() != 10 {
		t.Errorf("row aliases parent counter: got %s, want 10", row.Participation)
	}
}
