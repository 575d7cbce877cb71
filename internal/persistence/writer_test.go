package persistence

import (
	"testing"

	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
)

func TestCollapseEntityRows(t *testing.T) {
	rows := []EntityRow{
		{Kind: "User", Key: "0xa", Body: []byte(`{"v":1}`), Sequence: 1},
		{Kind: "Market", Key: "0xm", Body: []byte(`{"v":1}`), Sequence: 1},
		{Kind: "User", Key: "0xa", Body: []byte(`{"v":2}`), Sequence: 2},
		{Kind: "User", Key: "0xb", Body: []byte(`{"v":1}`), Sequence: 2},
		{Kind: "User", Key: "0xa", Body: []byte(`{"v":3}`), Sequence: 3},
	}

	got := collapseEntityRows(rows)

	if len(got) != 3 {
		t.Fatalf("collapsed to %d rows, want 3", len(got))
	}

	// Last write per key survives, in order of last occurrence.
	if got[0].Kind != "Market" || got[0].Key != "0xm" {
		t.Errorf("got[0] = %s/%s, want Market/0xm", got[0].Kind, got[0].Key)
	}
	if got[1].Key != "0xb" {
		t.Errorf("got[1].Key = %s, want 0xb", got[1].Key)
	}
	if got[2].Key != "0xa" || string(got[2].Body) != `{"v":3}` {
		t.Errorf("got[2] = %s %s, want 0xa with last body", got[2].Key, got[2].Body)
	}
}

func TestCollapseEntityRowsNoDuplicates(t *testing.T) {
	rows := []EntityRow{
		{Kind: "User", Key: "0xa"},
		{Kind: "User", Key: "0xb"},
	}
	got := collapseEntityRows(rows)
	if len(got) != 2 {
		t.Fatalf("collapsed to %d rows, want 2", len(got))
	}
}

func TestEventRowFromEnvelope(t *testing.T) {
	env := &event.Envelope{
		Sequence:       42,
		IdempotencyKey: "0xabc-7",
		EventType:      event.EventTypePlacePrediction,
		BlockNumber:    120,
		Timestamp:      1700000000,
		Payload:        []byte(`{"market":"0xm"}`),
	}
	env.StateHash[0] = 0xAA
	env.PrevHash[0] = 0xBB

	row := EventRowFromEnvelope(env)

	if row.Sequence != 42 || row.EventType != "PlacePrediction" || row.IdempotencyKey != "0xabc-7" {
		t.Errorf("row header mismatch: %+v", row)
	}
	if row.BlockNumber != 120 || row.Timestamp != 1700000000 {
		t.Errorf("row chain position mismatch: %+v", row)
	}
	if len(row.StateHash) != 32 || row.StateHash[0] != 0xAA {
		t.Errorf("StateHash not carried over: %x", row.StateHash)
	}
	if len(row.PrevHash) != 32 || row.PrevHash[0] != 0xBB {
		t.Errorf("PrevHash not carried over: %x", row.PrevHash)
	}
}

func TestEntityRowsFromRecords(t *testing.T) {
	user := entity.NewUser("0xuser")
	market := entity.NewMarket("0xmarket")

	rows, err := EntityRowsFromRecords([]entity.Record{user, market}, 7)
	if err != nil {
		t.Fatalf("EntityRowsFromRecords: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Kind != "User" || rows[0].Key != "0xuser" || rows[0].Sequence != 7 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Kind != "Market" || rows[1].Key != "0xmarket" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	if len(rows[0].Body) == 0 {
		t.Error("rows[0].Body is empty")
	}
}
