package persistence

import (
	"context"
	"database/sql"
	"time"
)

// PostgresEventLookup implements the ingestion shell's cold-path dedup
// against the event log.
type PostgresEventLookup struct {
	db *sql.DB
}

func NewPostgresEventLookup(db *sql.DB) *PostgresEventLookup {
	return &PostgresEventLookup{db: db}
}

// SeenEvent reports whether an event with the given idempotency key is
// already in graph.events. The lookup is bounded at 500ms so a slow DB
// cannot stall ingestion.
func (l *PostgresEventLookup) SeenEvent(idempotencyKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var exists int
	err := l.db.QueryRowContext(ctx, `
		SELECT 1 FROM graph.events WHERE idempotency_key = $1 LIMIT 1
	`, idempotencyKey).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
