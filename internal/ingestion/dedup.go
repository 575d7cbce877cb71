package ingestion

import "container/list"

// Deduplicator implements two-tier deduplication on the per-log
// idempotency key ({txHash}-{logIndex}). JetStream redeliveries and
// indexer restarts both produce duplicates; the core must see each log
// exactly once.
type Deduplicator struct {
	// Tier 1: in-memory LRU
	lru *KeyLRU

	// Tier 2: Postgres event log (injected via interface)
	dbLookup DBEventLookup

	// evictions already reported via TakeEvictions
	reported int64
}

// DBEventLookup is the interface for the Postgres dedup lookup.
type DBEventLookup interface {
	SeenEvent(idempotencyKey string) (bool, error)
}

func NewDeduplicator(capacity int, dbLookup DBEventLookup) *Deduplicator {
	return &Deduplicator{
		lru:      NewKeyLRU(capacity),
		dbLookup: dbLookup,
	}
}

// IsDuplicate checks whether the key was already processed.
func (d *Deduplicator) IsDuplicate(key string) bool {
	dup, _ := d.Check(key)
	return dup
}

// Check is IsDuplicate plus the tier that caught the duplicate ("lru"
// or "postgres"). The LRU is the hot path; the event log is consulted
// only on a miss. A lookup error is treated as not-duplicate so a DB
// hiccup cannot stall ingestion (the event log insert is ON CONFLICT
// DO NOTHING, so a missed duplicate is harmless downstream).
func (d *Deduplicator) Check(key string) (bool, string) {
	if d.lru.Contains(key) {
		return true, "lru"
	}

	if d.dbLookup != nil {
		seen, err := d.dbLookup.SeenEvent(key)
		if err != nil {
			return false, ""
		}
		if seen {
			d.lru.Add(key)
			return true, "postgres"
		}
	}

	return false, ""
}

// MarkProcessed adds the key to the LRU after successful processing.
func (d *Deduplicator) MarkProcessed(key string) {
	d.lru.Add(key)
}

// WarmFromKeys preloads recently processed keys, typically from the
// latest snapshot, so a restart does not hit the cold path for every
// redelivered message.
func (d *Deduplicator) WarmFromKeys(keys []string) {
	d.lru.WarmFromKeys(keys)
}

// RecentKeys returns up to n most-recently-used keys for snapshotting.
func (d *Deduplicator) RecentKeys(n int) []string {
	return d.lru.RecentKeys(n)
}

// Size returns the current LRU occupancy.
func (d *Deduplicator) Size() int {
	return d.lru.Size()
}

// TakeEvictions returns evictions since the last call.
func (d *Deduplicator) TakeEvictions() int64 {
	n := d.lru.evictions - d.reported
	d.reported = d.lru.evictions
	return n
}

// --- LRU implementation ---

// KeyLRU is an LRU cache over string keys.
// Not thread-safe; only accessed from the single-threaded shell loop.
type KeyLRU struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List

	evictions int64
}

type lruEntry struct {
	key string
}

func NewKeyLRU(capacity int) *KeyLRU {
	return &KeyLRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Contains checks if key exists (promotes to front).
func (lru *KeyLRU) Contains(key string) bool {
	elem, exists := lru.cache[key]
	if exists {
		lru.lruList.MoveToFront(elem)
		return true
	}
	return false
}

// Add inserts a key (or promotes if it exists).
func (lru *KeyLRU) Add(key string) {
	if elem, exists := lru.cache[key]; exists {
		lru.lruList.MoveToFront(elem)
		return
	}

	entry := &lruEntry{key: key}
	elem := lru.lruList.PushFront(entry)
	lru.cache[key] = elem

	if lru.lruList.Len() > lru.capacity {
		lru.evictOldest()
	}
}

func (lru *KeyLRU) evictOldest() {
	elem := lru.lruList.Back()
	if elem != nil {
		lru.lruList.Remove(elem)
		entry := elem.Value.(*lruEntry)
		delete(lru.cache, entry.key)
		lru.evictions++
	}
}

// WarmFromKeys loads a batch of keys without promoting existing ones.
func (lru *KeyLRU) WarmFromKeys(keys []string) {
	for _, key := range keys {
		if _, exists := lru.cache[key]; exists {
			continue
		}
		entry := &lruEntry{key: key}
		elem := lru.lruList.PushFront(entry)
		lru.cache[key] = elem

		if lru.lruList.Len() > lru.capacity {
			lru.evictOldest()
		}
	}
}

// RecentKeys returns up to n keys, most recently used first.
func (lru *KeyLRU) RecentKeys(n int) []string {
	if n > lru.lruList.Len() {
		n = lru.lruList.Len()
	}
	keys := make([]string, 0, n)
	for elem := lru.lruList.Front(); elem != nil && len(keys) < n; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruEntry).key)
	}
	return keys
}

// Size returns the current number of entries.
func (lru *KeyLRU) Size() int {
	return lru.lruList.Len()
}

// Evictions returns total evictions.
func (lru *KeyLRU) Evictions() int64 {
	return lru.evictions
}
