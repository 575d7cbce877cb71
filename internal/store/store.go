// Package store holds the in-memory entity graph the projection core
// mutates. Handlers never touch shared state directly: reads hand out
// deep copies and writes travel through a Batch that is applied only
// after the whole handler succeeds, so an abandoned event leaves no
// trace.
package store

import (
	"fmt"
	"sort"

	"MarketGraph/internal/entity"
)

// key addresses one record across all entity tables.
type key struct {
	Kind entity.Kind
	Key  string
}

// Batch is the ordered write set one event produces. Writes are applied
// in order; a later write to the same record wins.
type Batch struct {
	writes []entity.Record
}

// NewBatch returns an empty write set.
func NewBatch() *Batch {
	return &Batch{}
}

// Put stages a record for the atomic apply. The record is captured by
// reference: handlers keep mutating their copy after staging it and the
// final state is what gets applied.
func (b *Batch) Put(rec entity.Record) {
	b.writes = append(b.writes, rec)
}

// Len returns the number of staged writes, duplicates included.
func (b *Batch) Len() int {
	return len(b.writes)
}

// Writes returns the staged records in insertion order.
func (b *Batch) Writes() []entity.Record {
	return b.writes
}

// Memory is the single-writer entity store. Not safe for concurrent
// use; the core serializes all access on its event loop.
type Memory struct {
	records map[key]entity.Record
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[key]entity.Record),
	}
}

// Get returns a deep copy of the record, or nil if it has never been
// written. Callers own the copy.
func (m *Memory) Get(kind entity.Kind, id string) entity.Record {
	rec, ok := m.records[key{Kind: kind, Key: id}]
	if !ok {
		return nil
	}
	return rec.Clone()
}

// Has reports whether the record exists without copying it.
func (m *Memory) Has(kind entity.Kind, id string) bool {
	_, ok := m.records[key{Kind: kind, Key: id}]
	return ok
}

// Apply commits every write in the batch. The store keeps its own deep
// copies so later handler-side mutation of staged records cannot leak
// into committed state.
func (m *Memory) Apply(b *Batch) {
	for _, rec := range b.writes {
		m.records[key{Kind: rec.EntityKind(), Key: rec.EntityKey()}] = rec.Clone()
	}
}

// Len returns the number of records across all tables.
func (m *Memory) Len() int {
	return len(m.records)
}

// All returns deep copies of every record, sorted by (kind, key) so the
// output is deterministic for hashing and snapshots.
func (m *Memory) All() []entity.Record {
	keys := make([]key, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Key < keys[j].Key
	})

	out := make([]entity.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.records[k].Clone())
	}
	return out
}

// AllOfKind returns deep copies of every record in one table, sorted by
// key.
func (m *Memory) AllOfKind(kind entity.Kind) []entity.Record {
	var keys []string
	for k := range m.records {
		if k.Kind == kind {
			keys = append(keys, k.Key)
		}
	}
	sort.Strings(keys)

	out := make([]entity.Record, 0, len(keys))
	for _, id := range keys {
		out = append(out, m.records[key{Kind: kind, Key: id}].Clone())
	}
	return out
}

// Restore replaces the store's contents with the given records. Used
// when warm-starting from a snapshot.
func (m *Memory) Restore(records []entity.Record) error {
	fresh := make(map[key]entity.Record, len(records))
	for _, rec := range records {
		k := key{Kind: rec.EntityKind(), Key: rec.EntityKey()}
		if _, dup := fresh[k]; dup {
			return fmt.Errorf("duplicate record %s/%s in snapshot", k.Kind, k.Key)
		}
		fresh[k] = rec.Clone()
	}
	m.records = fresh
	return nil
}
