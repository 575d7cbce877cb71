package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"MarketGraph/internal/entity"
)

// Service provides read-only access to the materialized entity graph.
// All responses include as_of_sequence, the highest sequence whose
// writes are committed and visible, so callers can reason about
// freshness relative to the core.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// GetEntity returns one entity by kind and key.
func (s *Service) GetEntity(ctx context.Context, kind, key string) (*EntityResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var resp EntityResponse
	resp.Kind = kind
	resp.Key = key
	resp.AsOfSequence = asOfSeq

	err = s.db.QueryRowContext(ctx, `
		SELECT body, updated_sequence FROM graph.entities
		WHERE kind = $1 AND key = $2
	`, kind, key).Scan(&resp.Body, &resp.UpdatedSequence)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListEntities returns a page of entities of one kind, ordered by key.
// afterKey is the cursor: pass the previous page's NextKey.
func (s *Service) ListEntities(ctx context.Context, kind string, limit int, afterKey string) (*EntityListResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, body, updated_sequence FROM graph.entities
		WHERE kind = $1 AND key > $2
		ORDER BY key ASC
		LIMIT $3
	`, kind, afterKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &EntityListResponse{Kind: kind, AsOfSequence: asOfSeq}
	for rows.Next() {
		e := EntityResponse{Kind: kind, AsOfSequence: asOfSeq}
		if err := rows.Scan(&e.Key, &e.Body, &e.UpdatedSequence); err != nil {
			return nil, err
		}
		resp.Entities = append(resp.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(resp.Entities) == limit {
		resp.NextKey = resp.Entities[len(resp.Entities)-1].Key
	}
	return resp, nil
}

// GetMarketDetail returns a market together with its full pool
// partition, ordered by pool index.
func (s *Service) GetMarketDetail(ctx context.Context, marketID string) (*MarketDetailResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	resp := &MarketDetailResponse{AsOfSequence: asOfSeq}

	err = s.db.QueryRowContext(ctx, `
		SELECT body FROM graph.entities WHERE kind = 'Market' AND key = $1
	`, marketID).Scan(&resp.Market)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var m entity.Market
	if err := json.Unmarshal(resp.Market, &m); err != nil {
		return nil, fmt.Errorf("decode market %s: %w", marketID, err)
	}
	resp.Status = m.StatusAt(time.Now().Unix()).String()

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM graph.entities
		WHERE kind = 'Pool' AND body->>'market' = $1
		ORDER BY (body->>'index')::bigint ASC
	`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var body json.RawMessage
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		resp.Pools = append(resp.Pools, body)
	}
	return resp, rows.Err()
}

// GetMarketPredictions returns predictions placed on a market, newest
// first, paginated by the prediction key.
func (s *Service) GetMarketPredictions(ctx context.Context, marketID string, limit int, afterKey string) (*EntityListResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT key, body, updated_sequence FROM graph.entities
		WHERE kind = 'MarketPrediction' AND body->>'market' = $1
	`
	args := []interface{}{marketID}
	if afterKey != "" {
		query += " AND key > $2 ORDER BY key ASC LIMIT $3"
		args = append(args, afterKey, limit)
	} else {
		query += " ORDER BY key ASC LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &EntityListResponse{Kind: "MarketPrediction", AsOfSequence: asOfSeq}
	for rows.Next() {
		e := EntityResponse{Kind: "MarketPrediction", AsOfSequence: asOfSeq}
		if err := rows.Scan(&e.Key, &e.Body, &e.UpdatedSequence); err != nil {
			return nil, err
		}
		resp.Entities = append(resp.Entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(resp.Entities) == limit {
		resp.NextKey = resp.Entities[len(resp.Entities)-1].Key
	}
	return resp, nil
}

// GetUserMarkets returns the per-market junction rows for one user.
func (s *Service) GetUserMarkets(ctx context.Context, userID string, limit int) (*EntityListResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, body, updated_sequence FROM graph.entities
		WHERE kind = 'MarketUser' AND body->>'user' = $1
		ORDER BY key ASC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &EntityListResponse{Kind: "MarketUser", AsOfSequence: asOfSeq}
	for rows.Next() {
		e := EntityResponse{Kind: "MarketUser", AsOfSequence: asOfSeq}
		if err := rows.Scan(&e.Key, &e.Body, &e.UpdatedSequence); err != nil {
			return nil, err
		}
		resp.Entities = append(resp.Entities, e)
	}
	return resp, rows.Err()
}

// GetRollupSeries returns time-bucketed rollup rows of one kind,
// ordered by bucket start, optionally filtered by parent entity and a
// [from, to) timestamp range. Factory rollups have no parent filter
// (singleton parent).
func (s *Service) GetRollupSeries(ctx context.Context, kind, parent string, from, to int64, limit int) (*EntityListResponse, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if to <= 0 {
		to = int64(1) << 62
	}

	query := `
		SELECT key, body, updated_sequence FROM graph.entities
		WHERE kind = $1
		  AND (body->>'timestamp')::bigint >= $2
		  AND (body->>'timestamp')::bigint < $3
	`
	args := []interface{}{kind, from, to}

	if field := rollupParentField(kind); field != "" && parent != "" {
		query += fmt.Sprintf(" AND body->>'%s' = $4", field)
		args = append(args, parent)
	}
	query += fmt.Sprintf(" ORDER BY (body->>'timestamp')::bigint ASC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resp := &EntityListResponse{Kind: kind, AsOfSequence: asOfSeq}
	for rows.Next() {
		e := EntityResponse{Kind: kind, AsOfSequence: asOfSeq}
		if err := rows.Scan(&e.Key, &e.Body, &e.UpdatedSequence); err != nil {
			return nil, err
		}
		resp.Entities = append(resp.Entities, e)
	}
	return resp, rows.Err()
}

// rollupParentField maps a rollup kind to the JSON field naming its
// parent entity.
func rollupParentField(kind string) string {
	switch kind {
	case "AssetHourData", "AssetDayData":
		return "asset"
	case "UserDayData", "UserMonthData":
		return "user"
	default:
		return ""
	}
}

// VerifyIntegrity checks hash chain continuity over the event log.
func (s *Service) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	asOfSeq, err := s.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{AsOfSequence: asOfSeq}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e1.sequence
		FROM graph.events e1
		JOIN graph.events e2 ON e2.sequence = e1.sequence - 1
		WHERE e1.prev_hash != e2.state_hash
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0
	return report, nil
}

func (s *Service) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT sequence FROM graph.watermark WHERE id = 1
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	return seq, err
}
