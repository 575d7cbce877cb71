package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// GraphWriter writes the event log and entity rows to Postgres using
// multi-row INSERTs. The event log is append-only and idempotent; the
// entity table is a last-write-wins upsert keyed by (kind, key).
type GraphWriter struct {
	db *sql.DB
}

// EventRow represents a row in graph.events.
type EventRow struct {
	Sequence       int64
	EventType      string
	IdempotencyKey string
	BlockNumber    int64
	Payload        []byte // JSON-encoded event payload
	StateHash      []byte
	PrevHash       []byte
	Timestamp      int64 // block timestamp, unix seconds
}

// EntityRow represents a row in graph.entities.
type EntityRow struct {
	Kind     string
	Key      string
	Body     []byte // JSON-encoded entity
	Sequence int64  // sequence of the event that last wrote the row
}

func NewGraphWriter(db *sql.DB) *GraphWriter {
	return &GraphWriter{db: db}
}

// DB exposes the underlying handle for transaction management.
func (w *GraphWriter) DB() *sql.DB {
	return w.db
}

// WriteEventBatch appends a batch of events to graph.events.
// ON CONFLICT DO NOTHING makes redelivered batches harmless.
func (w *GraphWriter) WriteEventBatch(ctx context.Context, ex execer, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO graph.events
		(sequence, event_type, idempotency_key, block_number, payload, state_hash, prev_hash, block_timestamp)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*8)

	for i, e := range events {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			e.Sequence, e.EventType, e.IdempotencyKey, e.BlockNumber,
			e.Payload, e.StateHash, e.PrevHash, e.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT DO NOTHING"

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// WriteEntityBatch upserts a batch of entity rows into graph.entities.
// Rows are collapsed to the last write per (kind, key) first: Postgres
// rejects an INSERT ... ON CONFLICT DO UPDATE that touches the same row
// twice.
func (w *GraphWriter) WriteEntityBatch(ctx context.Context, ex execer, entities []EntityRow) error {
	entities = collapseEntityRows(entities)
	if len(entities) == 0 {
		return nil
	}

	query := `INSERT INTO graph.entities (kind, key, body, updated_sequence) VALUES `

	values := make([]string, 0, len(entities))
	args := make([]interface{}, 0, len(entities)*4)

	for i, e := range entities {
		base := i * 4
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4,
		))
		args = append(args, e.Kind, e.Key, e.Body, e.Sequence)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (kind, key) DO UPDATE
		SET body = EXCLUDED.body, updated_sequence = EXCLUDED.updated_sequence
		WHERE graph.entities.updated_sequence <= EXCLUDED.updated_sequence`

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// UpdateWatermark advances the query-visible watermark to sequence.
func (w *GraphWriter) UpdateWatermark(ctx context.Context, ex execer, sequence int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO graph.watermark (id, sequence) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET sequence = GREATEST(graph.watermark.sequence, EXCLUDED.sequence)
	`, sequence)
	return err
}

// collapseEntityRows keeps the last row per (kind, key), preserving the
// order of last occurrence.
func collapseEntityRows(rows []EntityRow) []EntityRow {
	if len(rows) < 2 {
		return rows
	}

	type rowKey struct{ kind, key string }
	last := make(map[rowKey]int, len(rows))
	for i, r := range rows {
		last[rowKey{r.Kind, r.Key}] = i
	}

	out := make([]EntityRow, 0, len(last))
	for i, r := range rows {
		if last[rowKey{r.Kind, r.Key}] == i {
			out = append(out, r)
		}
	}
	return out
}

// EventRowFromEnvelope converts a core envelope into its event log row.
func EventRowFromEnvelope(env *event.Envelope) EventRow {
	return EventRow{
		Sequence:       env.Sequence,
		EventType:      env.EventType.String(),
		IdempotencyKey: env.IdempotencyKey,
		BlockNumber:    env.BlockNumber,
		Payload:        env.Payload,
		StateHash:      env.StateHash[:],
		PrevHash:       env.PrevHash[:],
		Timestamp:      env.Timestamp,
	}
}

// EntityRowsFromRecords serializes the entity writes of one event.
func EntityRowsFromRecords(records []entity.Record, sequence int64) ([]EntityRow, error) {
	rows := make([]EntityRow, 0, len(records))
	for _, rec := range records {
		body, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal %s/%s: %w", rec.EntityKind(), rec.EntityKey(), err)
		}
		rows = append(rows, EntityRow{
			Kind:     string(rec.EntityKind()),
			Key:      rec.EntityKey(),
			Body:     body,
			Sequence: sequence,
		})
	}
	return rows, nil
}
