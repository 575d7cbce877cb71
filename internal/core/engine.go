// Package core is the deterministic projection engine: it consumes the
// totally-ordered chain event stream and folds it into the entity graph.
// Strictly single-threaded — one event runs to completion before the
// next is dispatched, which is what makes per-event atomicity work
// without locks. The core assumes exactly-once, gap-free delivery; the
// ingestion shell owns dedup and chain-order validation.
package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/observability"
	"MarketGraph/internal/store"
)

// Output is what the core emits per applied event: the log envelope and
// the entity writes it committed.
type Output struct {
	Envelope *event.Envelope
	Writes   []entity.Record
}

// ProjectionCore is the single-threaded event processor
type ProjectionCore struct {
	sequence int64
	hasher   *StateHasher
	store    *store.Memory
	log      zerolog.Logger
	metrics  *observability.Metrics

	persistChan  chan<- Output
	outboundChan chan<- Output
}

func NewProjectionCore(
	startSequence int64,
	st *store.Memory,
	persistChan, outboundChan chan<- Output,
	log zerolog.Logger,
	metrics *observability.Metrics,
) *ProjectionCore {
	return &ProjectionCore{
		sequence:     startSequence,
		hasher:       NewStateHasher(),
		store:        st,
		log:          log,
		metrics:      metrics,
		persistChan:  persistChan,
		outboundChan: outboundChan,
	}
}

// ProcessEvent is the main processing pipeline: dispatch the event to
// its handler, apply the resulting write batch atomically, extend the
// state hash chain, and emit the output.
func (c *ProjectionCore) ProcessEvent(evt event.Event) error {
	start := time.Now()
	eventType := evt.EventType().String()
	meta := evt.ChainMeta()

	// Step 1: dispatch — handlers return a nil batch to drop the event
	// (missing dependency or invalid enum; see dropReason).
	batch, dropReason, err := c.dispatch(evt)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	if batch == nil {
		// Silent drop: no entity writes, no envelope, no error.
		c.log.Debug().
			Str("event_type", eventType).
			Str("idempotency_key", meta.IdempotencyKey()).
			Str("reason", dropReason).
			Msg("event dropped")
		if c.metrics != nil {
			c.metrics.CoreEventsDropped.WithLabelValues(eventType, dropReason).Inc()
		}
		return nil
	}

	// Step 2: apply the batch atomically
	c.store.Apply(batch)

	// Step 3: extend the hash chain over this event's writes
	prevHash := c.hasher.GetPrevHash()
	stateHash := c.hasher.ComputeHash(c.sequence, writesDigest(batch.Writes()))

	payload, err := json.Marshal(evt)
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot marshal %s payload: %v", eventType, err))
	}

	envelope := &event.Envelope{
		Sequence:       c.sequence,
		IdempotencyKey: meta.IdempotencyKey(),
		EventType:      evt.EventType(),
		BlockNumber:    meta.BlockNumber,
		Timestamp:      meta.Timestamp,
		Payload:        payload,
		StateHash:      stateHash,
		PrevHash:       prevHash,
	}

	output := Output{Envelope: envelope, Writes: batch.Writes()}

	// Step 4: emit. Persistence uses a BLOCKING send (backpressure —
	// no applied event may be lost); the outbound channel uses a
	// NON-BLOCKING send with silent drop, subscribers can rebuild from
	// the event log if they fall behind.
	c.persistChan <- output

	select {
	case c.outboundChan <- output:
	default:
	}

	c.sequence++

	if c.metrics != nil {
		c.metrics.CoreEventsApplied.WithLabelValues(eventType).Inc()
		c.metrics.CoreEventDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
		c.metrics.CoreSequence.Set(float64(c.sequence))
		for _, rec := range batch.Writes() {
			c.metrics.CoreWrites.WithLabelValues(string(rec.EntityKind())).Inc()
		}
	}

	return nil
}

// dispatch routes the event to its handler. Handlers return a nil
// batch plus a drop reason to abandon the event without writes.
func (c *ProjectionCore) dispatch(evt event.Event) (*store.Batch, string, error) {
	var (
		batch *store.Batch
		drop  string
	)

	switch e := evt.(type) {
	case *event.Init:
		batch, drop = c.handleInit(e)
	case *event.AddAsset:
		batch, drop = c.handleAddAsset(e)
	case *event.AddMarketToken:
		batch, drop = c.handleAddMarketToken(e)
	case *event.CreateMarket:
		batch, drop = c.handleCreateMarket(e)
	case *event.UpdateMinMarketLiquidity:
		batch, drop = c.handleUpdateMinMarketLiquidity(e)
	case *event.UpdateLossConstant:
		batch, drop = c.handleUpdateLossConstant(e)
	case *event.UpdateMarketWindowParams:
		batch, drop = c.handleUpdateMarketWindowParams(e)
	case *event.UpdateMarketDurationParams:
		batch, drop = c.handleUpdateMarketDurationParams(e)
	case *event.UpdateMarketFeesPercentage:
		batch, drop = c.handleUpdateMarketFeesPercentage(e)
	case *event.PlacePrediction:
		batch, drop = c.handlePlacePrediction(e)
	case *event.SettleMarket:
		batch, drop = c.handleSettleMarket(e)
	case *event.DistributeMarketFee:
		batch, drop = c.handleDistributeMarketFee(e)
	case *event.ClaimReturns:
		batch, drop = c.handleClaimReturns(e)
	case *event.AddVestingSchedule:
		batch, drop = c.handleAddVestingSchedule(e)
	case *event.ReleaseVestedToken:
		batch, drop = c.handleReleaseVestedToken(e)
	case *event.UpfrontTokenTransfer:
		batch, drop = c.handleUpfrontTokenTransfer(e)
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", evt)
	}

	return batch, drop, nil
}

// writesDigest builds the canonical byte representation of one event's
// entity writes for the hash chain. Writes are digested in batch order,
// each as a length-prefixed (kind:key, JSON body) pair.
func writesDigest(writes []entity.Record) []byte {
	digest := make([]byte, 0, len(writes)*128)

	for _, rec := range writes {
		path := string(rec.EntityKind()) + ":" + rec.EntityKey()
		digest = appendInt64LE(digest, int64(len(path)))
		digest = append(digest, path...)

		body, err := json.Marshal(rec)
		if err != nil {
			panic(fmt.Sprintf("FATAL: cannot marshal %s/%s: %v", rec.EntityKind(), rec.EntityKey(), err))
		}
		digest = appendInt64LE(digest, int64(len(body)))
		digest = append(digest, body...)
	}

	return digest
}

func appendInt64LE(buf []byte, v int64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// --- Snapshot Restore & Startup Methods ---

// SnapshotState holds the serializable in-memory state for warm restart.
type SnapshotState struct {
	Sequence  int64
	StateHash [32]byte
	Records   []entity.Record
}

// CreateSnapshotState captures the current in-memory state for persistence.
func (c *ProjectionCore) CreateSnapshotState() *SnapshotState {
	return &SnapshotState{
		Sequence:  c.sequence - 1, // last processed sequence
		StateHash: c.hasher.GetPrevHash(),
		Records:   c.store.All(),
	}
}

// RestoreFromSnapshot restores the core's in-memory state. On warm
// restart the caller loads the latest snapshot, restores, then replays
// events after snap.Sequence from the log.
func (c *ProjectionCore) RestoreFromSnapshot(snap *SnapshotState) error {
	if err := c.store.Restore(snap.Records); err != nil {
		return fmt.Errorf("restore entity store: %w", err)
	}
	c.sequence = snap.Sequence + 1 // next sequence to assign
	c.hasher.SetPrevHash(snap.StateHash)
	return nil
}

// GetSequence returns the next sequence number to assign.
func (c *ProjectionCore) GetSequence() int64 {
	return c.sequence
}

// GetStateHash returns the current state hash (chain tip).
func (c *ProjectionCore) GetStateHash() [32]byte {
	return c.hasher.GetPrevHash()
}

// Store exposes the entity store for read-only inspection (tests,
// readiness probes). Mutation stays inside ProcessEvent.
func (c *ProjectionCore) Store() *store.Memory {
	return c.store
}
