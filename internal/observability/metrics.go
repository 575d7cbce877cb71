package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for MarketGraph.
type Metrics struct {
	// --- Core processing ---
	CoreEventsApplied *prometheus.CounterVec
	CoreEventsDropped *prometheus.CounterVec
	CoreEventDuration *prometheus.HistogramVec
	CoreWrites        *prometheus.CounterVec
	CoreSequence      prometheus.Gauge

	// --- Ingestion ---
	IngestParseErrors *prometheus.CounterVec
	IngestDuplicates  *prometheus.CounterVec
	IngestStaleOrder  prometheus.Counter
	DedupLRUSize      prometheus.Gauge
	DedupLRUEvictions prometheus.Counter

	// --- Channels & backpressure ---
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec
	PublishDrops       prometheus.Counter

	// --- Persistence ---
	PersistEventsWritten   prometheus.Counter
	PersistEntitiesWritten prometheus.Counter
	PersistBatchSize       prometheus.Histogram
	PersistBatchDur        prometheus.Histogram
	PersistErrors          *prometheus.CounterVec
	PersistRetry           prometheus.Counter
	PersistLastSequence    prometheus.Gauge

	// --- Snapshot & replay ---
	SnapshotTaken     prometheus.Counter
	SnapshotDuration  prometheus.Histogram
	SnapshotLastSeq   prometheus.Gauge
	ReplayEventsTotal prometheus.Counter
	ReplayDuration    prometheus.Gauge

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		// Core processing
		CoreEventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_core_events_applied_total",
			Help: "Events successfully applied by the projection core",
		}, []string{"event_type"}),

		CoreEventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_core_events_dropped_total",
			Help: "Events dropped by the projection core (missing parent, bad payload)",
		}, []string{"event_type", "reason"}),

		CoreEventDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mg_core_event_apply_duration_seconds",
			Help:    "Time to apply a single event in the core",
			Buckets: latencyBuckets,
		}, []string{"event_type"}),

		CoreWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_core_entity_writes_total",
			Help: "Entity writes staged by the core",
		}, []string{"kind"}),

		CoreSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mg_core_sequence",
			Help: "Current global sequence number",
		}),

		// Ingestion
		IngestParseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_ingest_parse_errors_total",
			Help: "Raw events that failed to parse",
		}, []string{"event_type"}),

		IngestDuplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_ingest_duplicates_total",
			Help: "Duplicates caught before the core (lru/postgres)",
		}, []string{"event_type", "tier"}),

		IngestStaleOrder: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_ingest_stale_order_total",
			Help: "Events rejected for chain-order regression",
		}),

		DedupLRUSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mg_dedup_lru_size",
			Help: "Current dedup LRU occupancy",
		}),

		DedupLRUEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_dedup_lru_evictions_total",
			Help: "Dedup LRU evictions",
		}),

		// Channels & backpressure
		ChannelSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mg_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mg_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mg_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		PublishDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_publish_drops_total",
			Help: "Envelopes dropped due to full outbound channel",
		}),

		// Persistence
		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_persist_events_written_total",
			Help: "Event log rows written to Postgres",
		}),

		PersistEntitiesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_persist_entities_written_total",
			Help: "Entity rows upserted to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mg_persist_batch_size",
			Help:    "Events per persistence batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mg_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_persist_retry_total",
			Help: "Persistence retries",
		}),

		PersistLastSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mg_persist_last_sequence",
			Help: "Last persisted sequence",
		}),

		// Snapshot & replay
		SnapshotTaken: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_snapshot_taken_total",
			Help: "Snapshots created",
		}),

		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mg_snapshot_duration_seconds",
			Help:    "Snapshot creation time",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),

		SnapshotLastSeq: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mg_snapshot_last_sequence",
			Help: "Sequence of last snapshot",
		}),

		ReplayEventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mg_replay_events_total",
			Help: "Events replayed on startup",
		}),

		ReplayDuration: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mg_replay_duration_seconds",
			Help: "Total replay time",
		}),

		// Query API
		QueryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_query_requests_total",
			Help: "Query requests",
		}, []string{"endpoint", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mg_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"endpoint"}),

		QueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mg_query_errors_total",
			Help: "Query errors",
		}, []string{"endpoint", "code"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}
