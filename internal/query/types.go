package query

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// EntityResponse is one entity row with freshness metadata. Body is the
// JSON-encoded entity exactly as the core wrote it.
type EntityResponse struct {
	Kind            string          `json:"kind"`
	Key             string          `json:"key"`
	Body            json.RawMessage `json:"body"`
	UpdatedSequence int64           `json:"updated_sequence"`
	AsOfSequence    int64           `json:"as_of_sequence"`
}

// EntityListResponse is a page of entities of one kind.
type EntityListResponse struct {
	Kind         string           `json:"kind"`
	Entities     []EntityResponse `json:"entities"`
	NextKey      string           `json:"next_key,omitempty"`
	AsOfSequence int64            `json:"as_of_sequence"`
}

// MarketDetailResponse bundles a market with its pool partition and the
// lifecycle status derived from wall-clock time at query time.
type MarketDetailResponse struct {
	Market       json.RawMessage   `json:"market"`
	Status       string            `json:"status"`
	Pools        []json.RawMessage `json:"pools"`
	AsOfSequence int64             `json:"as_of_sequence"`
}

// IntegrityReport is the result of an event log integrity check.
type IntegrityReport struct {
	HashChainBreaks []int64 `json:"hash_chain_breaks,omitempty"`
	IsHealthy       bool    `json:"is_healthy"`
	AsOfSequence    int64   `json:"as_of_sequence"`
}
