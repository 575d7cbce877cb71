// Command marketgraph runs the projection service: it consumes chain
// events from NATS JetStream, folds them through the single-threaded
// projection core into the entity graph, persists the event log and
// entities to Postgres, and serves the query API.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"MarketGraph/internal/config"
	"MarketGraph/internal/core"
	"MarketGraph/internal/entity"
	"MarketGraph/internal/event"
	"MarketGraph/internal/ingestion"
	"MarketGraph/internal/observability"
	"MarketGraph/internal/persistence"
	"MarketGraph/internal/query"
	"MarketGraph/internal/server"
	"MarketGraph/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := observability.NewLoggerWithLevel("main", level)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service exited with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker()

	// --- Postgres ---
	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime.Duration)

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	err = db.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	migrator := persistence.NewMigrator(db, cfg.Postgres.MigrationsDir, log)
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// --- Pipeline channels ---
	rawChan := make(chan ingestion.RawEvent, cfg.Core.EventChanSize)
	corePersistChan := make(chan core.Output, cfg.Core.PersistChanSize)
	coreOutboundChan := make(chan core.Output, cfg.Core.OutboundChanSize)
	dbPersistChan := make(chan persistence.CoreOutput, cfg.Core.PersistChanSize)
	publishChan := make(chan ingestion.PublishableEvent, cfg.Core.OutboundChanSize)

	// --- Core and shell state ---
	eng := core.NewProjectionCore(
		0,
		store.NewMemory(),
		corePersistChan,
		coreOutboundChan,
		observability.NewLoggerWithLevel("core", log.GetLevel()),
		metrics,
	)
	dedup := ingestion.NewDeduplicator(cfg.Core.DedupLRUSize, persistence.NewPostgresEventLookup(db))
	guard := ingestion.NewChainOrderGuard()
	snapMgr := persistence.NewSnapshotManager(db)

	var wg sync.WaitGroup
	errChan := make(chan error, 8)

	// Goroutine 1: bridge core output to persistence rows.
	wg.Add(1)
	go func() {
		defer wg.Done()
		bridgePersist(corePersistChan, dbPersistChan, log)
	}()

	// Goroutine 2: Postgres batch writer. Must be running before replay:
	// the core's persist sends are blocking.
	worker := persistence.NewWorker(db, dbPersistChan, cfg.Persist.BatchSize, cfg.Persist.FlushTimeout.Duration, metrics, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = worker.Run(context.Background()) // drained by channel close, not ctx
	}()

	// Goroutine 3: bridge core output to outbound publishable events.
	// Non-blocking: a slow publisher never stalls the core.
	wg.Add(1)
	go func() {
		defer wg.Done()
		bridgeOutbound(coreOutboundChan, publishChan, metrics)
	}()

	// --- Recovery: snapshot restore, then event log replay ---
	if err := restoreState(ctx, snapMgr, eng, dedup, guard, log); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := replayEvents(ctx, snapMgr, eng, dedup, guard, metrics, log); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	// --- NATS ---
	nc, js, err := ingestion.ConnectNATS(cfg.NATS.URL, log)
	if err != nil {
		return err
	}
	defer nc.Close()

	if err := ingestion.EnsureStreams(ctx, js, log); err != nil {
		return err
	}
	if err := ingestion.EnsureOutboundStream(ctx, js, log); err != nil {
		return err
	}

	// Goroutine 4: outbound publisher.
	publisher := ingestion.NewOutboundPublisher(js, publishChan, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = publisher.Run(ctx)
	}()

	subscriber := ingestion.NewNATSSubscriber(js, rawChan, log)
	if err := subscriber.Subscribe(ctx, ingestion.DefaultSubjects()); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Goroutine 5: the shell loop. Owns the core, dedup, order guard,
	// and snapshot timing; everything core-mutating happens here.
	sh := &shell{
		eng:      eng,
		dedup:    dedup,
		guard:    guard,
		snapMgr:  snapMgr,
		subjects: ingestion.DefaultSubjects(),
		snapCfg:  cfg.Snapshot,
		metrics:  metrics,
		log:      observability.NewLoggerWithLevel("shell", log.GetLevel()),
		done:     make(chan struct{}),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sh.run(ctx, rawChan)
	}()

	// --- Servers ---
	grpcServer := server.NewGRPCServer(cfg.Server.GRPCAddr, log)
	httpServer := server.NewHTTPServer(cfg.Server.HTTPAddr, query.NewService(db), health, metrics, log)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpcServer.Start(ctx); err != nil {
			errChan <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Start(ctx); err != nil && err != context.Canceled {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runMetricsServer(ctx, cfg.Server.MetricsAddr); err != nil {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Goroutine: channel utilization gauges.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SetChannelMetrics("raw_events", len(rawChan), cap(rawChan))
				metrics.SetChannelMetrics("persist", len(corePersistChan), cap(corePersistChan))
				metrics.SetChannelMetrics("outbound", len(coreOutboundChan), cap(coreOutboundChan))
				metrics.SetChannelMetrics("publish", len(publishChan), cap(publishChan))
			}
		}
	}()

	health.SetReady(true)
	grpcServer.SetServing(true)
	log.Info().
		Int64("sequence", eng.GetSequence()).
		Str("http_addr", cfg.Server.HTTPAddr).
		Str("grpc_addr", cfg.Server.GRPCAddr).
		Msg("marketgraph ready")

	// --- Wait for shutdown ---
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errChan:
		log.Error().Err(err).Msg("fatal component error")
		cancel()
	}

	health.SetReady(false)
	grpcServer.SetServing(false)

	// Stop intake first so the shell drains, then close the core output
	// path so the persistence worker flushes its final batch. rawChan is
	// never closed: consumer callbacks may still hold a reference.
	subscriber.Stop()
	sh.wait()
	close(corePersistChan)
	close(coreOutboundChan)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out waiting for workers")
	}

	// The final snapshot was taken by the shell before it exited; now
	// that the worker has flushed the event log past it, mark it usable.
	if seq := eng.GetSequence() - 1; seq >= 0 {
		verifyCtx, verifyCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := snapMgr.MarkVerified(verifyCtx, seq); err != nil {
			log.Warn().Err(err).Int64("sequence", seq).Msg("final snapshot verification failed")
		}
		verifyCancel()
	}

	log.Info().Msg("marketgraph stopped")
	return nil
}

// bridgePersist converts core outputs into persistence rows. A marshal
// failure keeps the event row so the log stays contiguous.
func bridgePersist(in <-chan core.Output, out chan<- persistence.CoreOutput, log zerolog.Logger) {
	for output := range in {
		rows, err := persistence.EntityRowsFromRecords(output.Writes, output.Envelope.Sequence)
		if err != nil {
			log.Error().Err(err).Int64("sequence", output.Envelope.Sequence).Msg("entity row conversion failed")
		}
		out <- persistence.CoreOutput{
			EventRow:   persistence.EventRowFromEnvelope(output.Envelope),
			EntityRows: rows,
		}
	}
	close(out)
}

// bridgeOutbound converts core outputs into publishable events with a
// non-blocking send; drops are counted, downstream can rebuild from the
// event log.
func bridgeOutbound(in <-chan core.Output, out chan<- ingestion.PublishableEvent, metrics *observability.Metrics) {
	for output := range in {
		env := output.Envelope
		evt := ingestion.PublishableEvent{
			Sequence:       env.Sequence,
			EventType:      env.EventType.String(),
			IdempotencyKey: env.IdempotencyKey,
			BlockNumber:    env.BlockNumber,
			Timestamp:      env.Timestamp,
			Payload:        json.RawMessage(env.Payload),
			StateHash:      env.StateHash[:],
		}
		select {
		case out <- evt:
		default:
			metrics.PublishDrops.Inc()
		}
	}
	close(out)
}

// restoreState loads the latest verified snapshot into the core, warms
// the dedup LRU, and restores the chain-order high-water mark.
func restoreState(
	ctx context.Context,
	snapMgr *persistence.SnapshotManager,
	eng *core.ProjectionCore,
	dedup *ingestion.Deduplicator,
	guard *ingestion.ChainOrderGuard,
	log zerolog.Logger,
) error {
	snap, err := snapMgr.LoadLatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		log.Info().Msg("no snapshot found, cold start")
		return nil
	}

	records := make([]entity.Record, 0, len(snap.Records))
	for _, es := range snap.Records {
		rec, err := entity.DecodeRecord(entity.Kind(es.Kind), es.Body)
		if err != nil {
			return fmt.Errorf("snapshot record %s/%s: %w", es.Kind, es.Key, err)
		}
		records = append(records, rec)
	}

	var hash [32]byte
	copy(hash[:], snap.StateHash)
	if err := eng.RestoreFromSnapshot(&core.SnapshotState{
		Sequence:  snap.Sequence,
		StateHash: hash,
		Records:   records,
	}); err != nil {
		return err
	}

	dedup.WarmFromKeys(snap.IdempotencyKeys)
	guard.Restore(event.Order{Block: snap.LastBlock, TxIndex: snap.LastTxIndex, LogIndex: snap.LastLogIndex})

	log.Info().
		Int64("sequence", snap.Sequence).
		Int("entities", len(records)).
		Int("warmed_keys", len(snap.IdempotencyKeys)).
		Msg("restored from snapshot")
	return nil
}

// replayEvents re-applies events after the snapshot point, verifying
// the hash chain row by row. A mismatch means the log or the snapshot
// is corrupt, and startup must not proceed.
func replayEvents(
	ctx context.Context,
	snapMgr *persistence.SnapshotManager,
	eng *core.ProjectionCore,
	dedup *ingestion.Deduplicator,
	guard *ingestion.ChainOrderGuard,
	metrics *observability.Metrics,
	log zerolog.Logger,
) error {
	const batchSize = 1000
	start := time.Now()
	from := eng.GetSequence()
	total := 0

	for {
		rows, err := snapMgr.LoadEventsFrom(ctx, from, batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			evt, err := event.DecodePayload(event.EventTypeFromString(row.EventType), row.Payload)
			if err != nil {
				return fmt.Errorf("sequence %d: %w", row.Sequence, err)
			}
			if err := eng.ProcessEvent(evt); err != nil {
				return fmt.Errorf("sequence %d: %w", row.Sequence, err)
			}

			gotHash := eng.GetStateHash()
			if !bytes.Equal(gotHash[:], row.StateHash) {
				return fmt.Errorf("state hash mismatch at sequence %d", row.Sequence)
			}

			guard.Advance(evt.ChainMeta().Order())
			dedup.MarkProcessed(row.IdempotencyKey)
			total++
		}

		from = rows[len(rows)-1].Sequence + 1
	}

	metrics.ReplayEventsTotal.Add(float64(total))
	metrics.ReplayDuration.Set(time.Since(start).Seconds())
	log.Info().
		Int("events", total).
		Dur("took", time.Since(start)).
		Int64("sequence", eng.GetSequence()).
		Msg("replay complete")
	return nil
}

// shell is the single-threaded ingestion loop around the core. It is
// the only goroutine that touches the core, the dedup LRU, and the
// order guard after startup.
type shell struct {
	eng      *core.ProjectionCore
	dedup    *ingestion.Deduplicator
	guard    *ingestion.ChainOrderGuard
	snapMgr  *persistence.SnapshotManager
	subjects []ingestion.SubjectConfig
	snapCfg  config.SnapshotConfig
	metrics  *observability.Metrics
	log      zerolog.Logger

	lastSnapSeq   int64
	pendingVerify int64
	done          chan struct{}
}

func (s *shell) run(ctx context.Context, rawChan <-chan ingestion.RawEvent) {
	defer close(s.done)

	s.lastSnapSeq = s.eng.GetSequence() - 1
	s.pendingVerify = -1

	ticker := time.NewTicker(s.snapCfg.CheckInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(rawChan)
			s.finalSnapshot()
			return

		case raw, ok := <-rawChan:
			if !ok {
				s.finalSnapshot()
				return
			}
			s.handleRaw(raw)

		case <-ticker.C:
			s.maybeSnapshot(ctx)
			s.metrics.DedupLRUSize.Set(float64(s.dedup.Size()))
			s.metrics.DedupLRUEvictions.Add(float64(s.dedup.TakeEvictions()))
		}
	}
}

func (s *shell) handleRaw(raw ingestion.RawEvent) {
	eventType := resolveEventType(s.subjects, raw.Subject)
	if eventType == "" {
		s.log.Warn().Str("subject", raw.Subject).Msg("no event type for subject")
		raw.AckFunc()
		return
	}

	evt, err := ingestion.ParseRawEvent(raw, eventType)
	if err != nil {
		// Malformed payloads are acked: redelivery cannot fix them.
		s.metrics.IngestParseErrors.WithLabelValues(eventType).Inc()
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("parse failed")
		raw.AckFunc()
		return
	}
	raw.AckFunc()

	meta := evt.ChainMeta()
	key := meta.IdempotencyKey()

	if dup, tier := s.dedup.Check(key); dup {
		s.metrics.IngestDuplicates.WithLabelValues(eventType, tier).Inc()
		return
	}

	if err := s.guard.Validate(meta.Order()); err != nil {
		s.metrics.IngestStaleOrder.Inc()
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("stale chain order")
		return
	}

	if err := s.eng.ProcessEvent(evt); err != nil {
		s.log.Error().Err(err).Str("idempotency_key", key).Msg("core processing failed")
		return
	}

	s.guard.Advance(meta.Order())
	s.dedup.MarkProcessed(key)
}

// drain processes whatever is already buffered so acked events are not
// lost across a restart.
func (s *shell) drain(rawChan <-chan ingestion.RawEvent) {
	for {
		select {
		case raw, ok := <-rawChan:
			if !ok {
				return
			}
			s.handleRaw(raw)
		default:
			return
		}
	}
}

func (s *shell) maybeSnapshot(ctx context.Context) {
	// Verify the previous snapshot once the event log has durably
	// caught up to it; only verified snapshots are loaded on restart.
	if s.pendingVerify >= 0 {
		if logSeq, err := s.snapMgr.GetLatestSequence(ctx); err == nil && logSeq >= s.pendingVerify {
			if err := s.snapMgr.MarkVerified(ctx, s.pendingVerify); err == nil {
				s.pendingVerify = -1
			}
		}
	}

	seq := s.eng.GetSequence() - 1
	if seq-s.lastSnapSeq < s.snapCfg.Interval {
		return
	}
	s.takeSnapshot(ctx)
}

func (s *shell) takeSnapshot(ctx context.Context) {
	start := time.Now()
	state := s.eng.CreateSnapshotState()
	if state.Sequence < 0 {
		return
	}

	records := make([]persistence.EntitySnap, 0, len(state.Records))
	for _, rec := range state.Records {
		body, err := json.Marshal(rec)
		if err != nil {
			s.log.Error().Err(err).Msg("snapshot record marshal failed")
			return
		}
		records = append(records, persistence.EntitySnap{
			Kind: string(rec.EntityKind()),
			Key:  rec.EntityKey(),
			Body: body,
		})
	}

	order, _ := s.guard.Last()
	snap := &persistence.SnapshotData{
		Sequence:        state.Sequence,
		StateHash:       state.StateHash[:],
		Records:         records,
		LastBlock:       order.Block,
		LastTxIndex:     order.TxIndex,
		LastLogIndex:    order.LogIndex,
		IdempotencyKeys: s.dedup.RecentKeys(50_000),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.snapMgr.SaveSnapshot(ctx, snap); err != nil {
		s.log.Error().Err(err).Int64("sequence", state.Sequence).Msg("snapshot save failed")
		return
	}

	s.lastSnapSeq = state.Sequence
	s.pendingVerify = state.Sequence
	s.metrics.SnapshotTaken.Inc()
	s.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	s.metrics.SnapshotLastSeq.Set(float64(state.Sequence))
	s.log.Info().
		Int64("sequence", state.Sequence).
		Int("entities", len(records)).
		Dur("took", time.Since(start)).
		Msg("snapshot taken")
}

// finalSnapshot runs on shutdown with its own context; main marks it
// verified after the persistence worker drains.
func (s *shell) finalSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.takeSnapshot(ctx)
}

func (s *shell) wait() {
	if s.done != nil {
		<-s.done
	}
}

// resolveEventType maps a subject to its event type by longest matching
// subject prefix (the configured subjects end in ".>").
func resolveEventType(subjects []ingestion.SubjectConfig, subject string) string {
	best := ""
	bestLen := -1
	for _, cfg := range subjects {
		prefix := strings.TrimSuffix(cfg.Subject, ".>")
		if strings.HasPrefix(subject, prefix) && len(prefix) > bestLen {
			best = cfg.EventType
			bestLen = len(prefix)
		}
	}
	return best
}

// runMetricsServer serves /metrics on its own listener so scrapes are
// isolated from the query API.
func runMetricsServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
