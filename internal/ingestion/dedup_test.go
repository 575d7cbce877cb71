package ingestion_test

import (
	"errors"
	"fmt"
	"testing"

	"MarketGraph/internal/event"
	"MarketGraph/internal/ingestion"
)

type stubLookup struct {
	seen map[string]bool
	err  error
}

func (s *stubLookup) SeenEvent(key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.seen[key], nil
}

func TestDeduplicator_LRUHit(t *testing.T) {
	d := ingestion.NewDeduplicator(16, nil)

	if d.IsDuplicate("0xabc-0") {
		t.Fatal("fresh key reported duplicate")
	}
	d.MarkProcessed("0xabc-0")
	if !d.IsDuplicate("0xabc-0") {
		t.Fatal("processed key not reported duplicate")
	}
}

func TestDeduplicator_DBFallback(t *testing.T) {
	lookup := &stubLookup{seen: map[string]bool{"0xold-1": true}}
	d := ingestion.NewDeduplicator(16, lookup)

	if !d.IsDuplicate("0xold-1") {
		t.Fatal("key in event log not reported duplicate")
	}

	// Second lookup must be served from the LRU.
	lookup.err = errors.New("db down")
	if !d.IsDuplicate("0xold-1") {
		t.Fatal("DB-confirmed key not cached in LRU")
	}
}

func TestDeduplicator_DBErrorIsNotDuplicate(t *testing.T) {
	lookup := &stubLookup{err: errors.New("db down")}
	d := ingestion.NewDeduplicator(16, lookup)

	if d.IsDuplicate("0xabc-0") {
		t.Fatal("lookup error must not report duplicate")
	}
}

func TestKeyLRU_Eviction(t *testing.T) {
	lru := ingestion.NewKeyLRU(2)
	lru.Add("a")
	lru.Add("b")
	lru.Add("c") // evicts a

	if lru.Contains("a") {
		t.Error("oldest key survived eviction")
	}
	if !lru.Contains("b") || !lru.Contains("c") {
		t.Error("recent keys evicted")
	}
	if lru.Evictions() != 1 {
		t.Errorf("evictions: got %d, want 1", lru.Evictions())
	}
}

func TestKeyLRU_ContainsPromotes(t *testing.T) {
	lru := ingestion.NewKeyLRU(2)
	lru.Add("a")
	lru.Add("b")
	lru.Contains("a") // promote a
	lru.Add("c")      // evicts b, not a

	if !lru.Contains("a") {
		t.Error("promoted key evicted")
	}
	if lru.Contains("b") {
		t.Error("stale key survived eviction")
	}
}

func TestKeyLRU_WarmFromKeys(t *testing.T) {
	lru := ingestion.NewKeyLRU(8)
	lru.WarmFromKeys([]string{"0xa-0", "0xa-1", "0xa-0"})

	if lru.Size() != 2 {
		t.Errorf("size: got %d, want 2", lru.Size())
	}
	if !lru.Contains("0xa-0") || !lru.Contains("0xa-1") {
		t.Error("warmed keys missing")
	}
}

func TestKeyLRU_RecentKeys(t *testing.T) {
	lru := ingestion.NewKeyLRU(8)
	for i := 0; i < 5; i++ {
		lru.Add(fmt.Sprintf("k%d", i))
	}

	keys := lru.RecentKeys(3)
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
	if keys[0] != "k4" {
		t.Errorf("most recent: got %s, want k4", keys[0])
	}
}

func TestChainOrderGuard_Admission(t *testing.T) {
	g := ingestion.NewChainOrderGuard()

	first := event.Order{Block: 10, TxIndex: 0, LogIndex: 0}
	if err := g.Validate(first); err != nil {
		t.Fatalf("first event rejected: %v", err)
	}
	g.Advance(first)

	// Same transaction, later log.
	next := event.Order{Block: 10, TxIndex: 0, LogIndex: 1}
	if err := g.Validate(next); err != nil {
		t.Fatalf("forward order rejected: %v", err)
	}
	g.Advance(next)

	// Regression and exact replay are both stale.
	if err := g.Validate(first); !errors.Is(err, ingestion.ErrStaleOrder) {
		t.Errorf("regression: got %v, want ErrStaleOrder", err)
	}
	if err := g.Validate(next); !errors.Is(err, ingestion.ErrStaleOrder) {
		t.Errorf("replay: got %v, want ErrStaleOrder", err)
	}
}

func TestChainOrderGuard_OrderTriple(t *testing.T) {
	g := ingestion.NewChainOrderGuard()
	g.Advance(event.Order{Block: 10, TxIndex: 5, LogIndex: 5})

	cases := []struct {
		o     event.Order
		stale bool
	}{
		{event.Order{Block: 11, TxIndex: 0, LogIndex: 0}, false},
		{event.Order{Block: 10, TxIndex: 6, LogIndex: 0}, false},
		{event.Order{Block: 10, TxIndex: 5, LogIndex: 6}, false},
		{event.Order{Block: 10, TxIndex: 5, LogIndex: 4}, true},
		{event.Order{Block: 10, TxIndex: 4, LogIndex: 9}, true},
		{event.Order{Block: 9, TxIndex: 9, LogIndex: 9}, true},
	}
	for _, tc := range cases {
		err := g.Validate(tc.o)
		if tc.stale && err == nil {
			t.Errorf("(%d,%d,%d): expected stale", tc.o.Block, tc.o.TxIndex, tc.o.LogIndex)
		}
		if !tc.stale && err != nil {
			t.Errorf("(%d,%d,%d): unexpected error %v", tc.o.Block, tc.o.TxIndex, tc.o.LogIndex, err)
		}
	}
}

func TestChainOrderGuard_Restore(t *testing.T) {
	g := ingestion.NewChainOrderGuard()
	g.Restore(event.Order{Block: 100, TxIndex: 0, LogIndex: 0})

	if err := g.Validate(event.Order{Block: 99, TxIndex: 0, LogIndex: 0}); err == nil {
		t.Error("pre-snapshot event admitted after restore")
	}
	if err := g.Validate(event.Order{Block: 101, TxIndex: 0, LogIndex: 0}); err != nil {
		t.Errorf("post-snapshot event rejected: %v", err)
	}

	last, ok := g.Last()
	if !ok || last.Block != 100 {
		t.Errorf("high-water: got %+v ok=%v", last, ok)
	}
}
