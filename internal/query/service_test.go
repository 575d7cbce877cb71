package query_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"MarketGraph/internal/persistence"
	"MarketGraph/internal/query"
	"MarketGraph/internal/testutil"
)

func setupService(t *testing.T) (*sql.DB, *query.Service, func()) {
	t.Helper()
	db, cleanup := testutil.SetupTestDB(t)

	m := persistence.NewMigrator(db, "../../migrations", zerolog.Nop())
	if err := m.Up(context.Background()); err != nil {
		cleanup()
		t.Fatalf("migrate: %v", err)
	}
	return db, query.NewService(db), cleanup
}

func seedEntities(t *testing.T, db *sql.DB, rows []persistence.EntityRow, watermark int64) {
	t.Helper()
	ctx := context.Background()
	w := persistence.NewGraphWriter(db)
	if err := w.WriteEntityBatch(ctx, db, rows); err != nil {
		t.Fatalf("seed entities: %v", err)
	}
	if err := w.UpdateWatermark(ctx, db, watermark); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}
}

func TestGetEntity(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	seedEntities(t, db, []persistence.EntityRow{
		{Kind: "User", Key: "0xuser", Body: []byte(`{"id":"0xuser","total_predictions":3}`), Sequence: 5},
	}, 5)

	resp, err := svc.GetEntity(context.Background(), "User", "0xuser")
	if err != nil {
		t.Fatalf("GetEntity: %v", err)
	}
	if resp.UpdatedSequence != 5 || resp.AsOfSequence != 5 {
		t.Errorf("sequences = %d/%d, want 5/5", resp.UpdatedSequence, resp.AsOfSequence)
	}

	_, err = svc.GetEntity(context.Background(), "User", "0xmissing")
	if !errors.Is(err, query.ErrNotFound) {
		t.Errorf("GetEntity(missing) = %v, want ErrNotFound", err)
	}
}

func TestListEntitiesPagination(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	rows := make([]persistence.EntityRow, 0, 5)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("0xuser%d", i)
		rows = append(rows, persistence.EntityRow{
			Kind: "User", Key: key,
			Body:     []byte(fmt.Sprintf(`{"id":%q}`, key)),
			Sequence: int64(i),
		})
	}
	seedEntities(t, db, rows, 4)

	page1, err := svc.ListEntities(context.Background(), "User", 2, "")
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(page1.Entities) != 2 || page1.NextKey == "" {
		t.Fatalf("page1 = %d entities, next %q", len(page1.Entities), page1.NextKey)
	}

	page2, err := svc.ListEntities(context.Background(), "User", 10, page1.NextKey)
	if err != nil {
		t.Fatalf("ListEntities page2: %v", err)
	}
	if len(page2.Entities) != 3 {
		t.Errorf("page2 = %d entities, want 3", len(page2.Entities))
	}
	if page2.NextKey != "" {
		t.Errorf("page2.NextKey = %q, want empty on final page", page2.NextKey)
	}
}

func TestGetMarketDetail(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	seedEntities(t, db, []persistence.EntityRow{
		{Kind: "Market", Key: "0xm", Body: []byte(`{"id":"0xm","phase":1}`), Sequence: 1},
		{Kind: "Pool", Key: "0xm-1", Body: []byte(`{"id":"0xm-1","market":"0xm","index":1}`), Sequence: 1},
		{Kind: "Pool", Key: "0xm-0", Body: []byte(`{"id":"0xm-0","market":"0xm","index":0}`), Sequence: 1},
		{Kind: "Pool", Key: "0xo-0", Body: []byte(`{"id":"0xo-0","market":"0xother","index":0}`), Sequence: 1},
	}, 1)

	resp, err := svc.GetMarketDetail(context.Background(), "0xm")
	if err != nil {
		t.Fatalf("GetMarketDetail: %v", err)
	}
	if len(resp.Pools) != 2 {
		t.Fatalf("got %d pools, want 2", len(resp.Pools))
	}
	if resp.Status != "Settled" {
		t.Errorf("status = %q, want Settled", resp.Status)
	}
	// Pools come back ordered by index.
	var first struct {
		Index int64 `json:"index"`
	}
	if err := json.Unmarshal(resp.Pools[0], &first); err != nil {
		t.Fatal(err)
	}
	if first.Index != 0 {
		t.Errorf("first pool index = %d, want 0", first.Index)
	}

	if _, err := svc.GetMarketDetail(context.Background(), "0xmissing"); !errors.Is(err, query.ErrNotFound) {
		t.Errorf("GetMarketDetail(missing) = %v, want ErrNotFound", err)
	}
}

func TestGetMarketPredictionsAndUserMarkets(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	seedEntities(t, db, []persistence.EntityRow{
		{Kind: "MarketPrediction", Key: "0xm-0xu-1", Body: []byte(`{"id":"0xm-0xu-1","market":"0xm","user":"0xu"}`), Sequence: 1},
		{Kind: "MarketPrediction", Key: "0xm-0xu-2", Body: []byte(`{"id":"0xm-0xu-2","market":"0xm","user":"0xu"}`), Sequence: 2},
		{Kind: "MarketPrediction", Key: "0xo-0xu-1", Body: []byte(`{"id":"0xo-0xu-1","market":"0xother","user":"0xu"}`), Sequence: 3},
		{Kind: "MarketUser", Key: "0xm-0xu", Body: []byte(`{"id":"0xm-0xu","market":"0xm","user":"0xu"}`), Sequence: 3},
	}, 3)

	preds, err := svc.GetMarketPredictions(context.Background(), "0xm", 10, "")
	if err != nil {
		t.Fatalf("GetMarketPredictions: %v", err)
	}
	if len(preds.Entities) != 2 {
		t.Errorf("got %d predictions, want 2", len(preds.Entities))
	}

	markets, err := svc.GetUserMarkets(context.Background(), "0xu", 10)
	if err != nil {
		t.Fatalf("GetUserMarkets: %v", err)
	}
	if len(markets.Entities) != 1 || markets.Entities[0].Key != "0xm-0xu" {
		t.Errorf("user markets = %+v", markets.Entities)
	}
}

func TestGetRollupSeries(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	seedEntities(t, db, []persistence.EntityRow{
		{Kind: "AssetHourData", Key: "0xa-101", Body: []byte(`{"id":"0xa-101","asset":"0xa","timestamp":363600}`), Sequence: 2},
		{Kind: "AssetHourData", Key: "0xa-100", Body: []byte(`{"id":"0xa-100","asset":"0xa","timestamp":360000}`), Sequence: 1},
		{Kind: "AssetHourData", Key: "0xb-100", Body: []byte(`{"id":"0xb-100","asset":"0xb","timestamp":360000}`), Sequence: 3},
		{Kind: "FactoryDayData", Key: "4", Body: []byte(`{"id":"4","timestamp":345600}`), Sequence: 4},
	}, 4)

	series, err := svc.GetRollupSeries(context.Background(), "AssetHourData", "0xa", 0, 0, 10)
	if err != nil {
		t.Fatalf("GetRollupSeries: %v", err)
	}
	if len(series.Entities) != 2 {
		t.Fatalf("got %d buckets, want 2", len(series.Entities))
	}
	// Buckets come back in timestamp order.
	if series.Entities[0].Key != "0xa-100" || series.Entities[1].Key != "0xa-101" {
		t.Errorf("bucket order = %s, %s", series.Entities[0].Key, series.Entities[1].Key)
	}

	// Half-open [from, to) range trims the later bucket.
	series, err = svc.GetRollupSeries(context.Background(), "AssetHourData", "0xa", 360000, 363600, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Entities) != 1 || series.Entities[0].Key != "0xa-100" {
		t.Errorf("ranged series = %+v", series.Entities)
	}

	// Factory rollups are a singleton series: no parent filter applies.
	series, err = svc.GetRollupSeries(context.Background(), "FactoryDayData", "", 0, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Entities) != 1 {
		t.Errorf("factory series = %d buckets, want 1", len(series.Entities))
	}
}

func TestVerifyIntegrity(t *testing.T) {
	testutil.RequireIntegration(t)
	db, svc, cleanup := setupService(t)
	defer cleanup()

	ctx := context.Background()
	w := persistence.NewGraphWriter(db)

	hashA := make([]byte, 32)
	hashA[0] = 1
	hashB := make([]byte, 32)
	hashB[0] = 2

	events := []persistence.EventRow{
		{Sequence: 0, EventType: "Init", IdempotencyKey: "0xa-0", Payload: []byte(`{}`), StateHash: hashA, PrevHash: make([]byte, 32)},
		{Sequence: 1, EventType: "Init", IdempotencyKey: "0xa-1", Payload: []byte(`{}`), StateHash: hashB, PrevHash: hashA},
	}
	if err := w.WriteEventBatch(ctx, db, events); err != nil {
		t.Fatal(err)
	}

	report, err := svc.VerifyIntegrity(ctx)
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !report.IsHealthy {
		t.Errorf("healthy chain reported breaks: %v", report.HashChainBreaks)
	}

	// Corrupt the chain and re-check.
	broken := []persistence.EventRow{
		{Sequence: 2, EventType: "Init", IdempotencyKey: "0xa-2", Payload: []byte(`{}`), StateHash: hashA, PrevHash: hashA},
	}
	if err := w.WriteEventBatch(ctx, db, broken); err != nil {
		t.Fatal(err)
	}

	report, err = svc.VerifyIntegrity(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.IsHealthy || len(report.HashChainBreaks) != 1 || report.HashChainBreaks[0] != 2 {
		t.Errorf("report = %+v, want break at sequence 2", report)
	}
}
