package store_test

import (
	"math/big"
	"testing"

	"MarketGraph/internal/entity"
	"MarketGraph/internal/store"
)

func TestMemory_GetMissing(t *testing.T) {
	m := store.NewMemory()
	if rec := m.Get(entity.KindUser, "0xabc"); rec != nil {
		t.Errorf("expected nil for unknown record, got %v", rec)
	}
	if m.Has(entity.KindUser, "0xabc") {
		t.Error("Has should be false for unknown record")
	}
}

func TestMemory_ApplyThenGet(t *testing.T) {
	m := store.NewMemory()
	u := entity.NewUser("0xabc")
	u.TotalPredictions = 3

	b := store.NewBatch()
	b.Put(u)
	m.Apply(b)

	got, ok := m.Get(entity.KindUser, "0xabc").(*entity.User)
	if !ok {
		t.Fatal("expected a *entity.User")
	}
	if got.TotalPredictions != 3 {
		t.Errorf("TotalPredictions: got %d, want 3", got.TotalPredictions)
	}
}

// Get must hand out an independent copy: mutating it cannot affect the
// committed record.
func TestMemory_GetReturnsDeepCopy(t *testing.T) {
	m := store.NewMemory()
	u := entity.NewUser("0xabc")
	u.TotalPNL = big.NewInt(100)

	b := store.NewBatch()
	b.Put(u)
	m.Apply(b)

	first := m.Get(entity.KindUser, "0xabc").(*entity.User)
	first.TotalPredictions = 99
	first.TotalPNL.SetInt64(-5)

	second := m.Get(entity.KindUser, "0xabc").(*entity.User)
	if second.TotalPredictions != 0 {
		t.Errorf("scalar mutation leaked into store: %d", second.TotalPredictions)
	}
	if second.TotalPNL.Int64() != 100 {
		t.Errorf("big.Int mutation leaked into store: %s", second.TotalPNL)
	}
}

// Apply must copy staged records too: a handler reusing its local copy
// after commit cannot retroactively change committed state.
func TestMemory_ApplyCopiesWrites(t *testing.T) {
	m := store.NewMemory()
	u := entity.NewUser("0xabc")

	b := store.NewBatch()
	b.Put(u)
	m.Apply(b)

	u.TotalPredictions = 42

	got := m.Get(entity.KindUser, "0xabc").(*entity.User)
	if got.TotalPredictions != 0 {
		t.Errorf("post-apply mutation leaked into store: %d", got.TotalPredictions)
	}
}

// An unapplied batch leaves the store untouched. This is the whole
// missing-dependency drop contract: handlers stage freely and the core
// simply discards the batch.
func TestMemory_AbandonedBatchLeavesNoTrace(t *testing.T) {
	m := store.NewMemory()

	b := store.NewBatch()
	b.Put(entity.NewUser("0xabc"))
	b.Put(entity.NewMarket("0xm1"))
	// batch dropped, never applied

	if m.Len() != 0 {
		t.Errorf("store should be empty, has %d records", m.Len())
	}
}

func TestMemory_LaterWriteWins(t *testing.T) {
	m := store.NewMemory()

	u1 := entity.NewUser("0xabc")
	u1.TotalPredictions = 1
	u2 := entity.NewUser("0xabc")
	u2.TotalPredictions = 2

	b := store.NewBatch()
	b.Put(u1)
	b.Put(u2)
	m.Apply(b)

	got := m.Get(entity.KindUser, "0xabc").(*entity.User)
	if got.TotalPredictions != 2 {
		t.Errorf("later write should win: got %d, want 2", got.TotalPredictions)
	}
	if m.Len() != 1 {
		t.Errorf("duplicate writes should collapse to one record, got %d", m.Len())
	}
}

func TestMemory_AllIsSorted(t *testing.T) {
	m := store.NewMemory()

	b := store.NewBatch()
	b.Put(entity.NewUser("0xccc"))
	b.Put(entity.NewUser("0xaaa"))
	b.Put(entity.NewMarket("0xm1"))
	m.Apply(b)

	all := m.All()
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	// Market sorts before User by kind
	if all[0].EntityKind() != entity.KindMarket {
		t.Errorf("first record kind: got %s, want Market", all[0].EntityKind())
	}
	if all[1].EntityKey() != "0xaaa" || all[2].EntityKey() != "0xccc" {
		t.Errorf("users not sorted by key: %s, %s", all[1].EntityKey(), all[2].EntityKey())
	}
}

func TestMemory_RestoreReplacesContents(t *testing.T) {
	m := store.NewMemory()
	b := store.NewBatch()
	b.Put(entity.NewUser("0xold"))
	m.Apply(b)

	err := m.Restore([]entity.Record{
		entity.NewUser("0xnew"),
		entity.NewMarket("0xm1"),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if m.Has(entity.KindUser, "0xold") {
		t.Error("pre-restore record survived")
	}
	if !m.Has(entity.KindUser, "0xnew") || !m.Has(entity.KindMarket, "0xm1") {
		t.Error("restored records missing")
	}
}

func TestMemory_RestoreRejectsDuplicates(t *testing.T) {
	m := store.NewMemory()
	err := m.Restore([]entity.Record{
		entity.NewUser("0xabc"),
		entity.NewUser("0xabc"),
	})
	if err == nil {
		t.Fatal("expected duplicate-record error")
	}
}
