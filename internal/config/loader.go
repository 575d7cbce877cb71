package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (skipped if path is
// empty or the file is missing), merges it on top of the built-in
// defaults, and applies MG_* environment variable overrides. The
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load .env if present; absence is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Postgres.URL, "MG_POSTGRES_URL")
	setInt(&cfg.Postgres.MaxOpenConns, "MG_POSTGRES_MAX_OPEN_CONNS")
	setInt(&cfg.Postgres.MaxIdleConns, "MG_POSTGRES_MAX_IDLE_CONNS")
	setDuration(&cfg.Postgres.ConnMaxLifetime, "MG_POSTGRES_CONN_MAX_LIFETIME")
	setStr(&cfg.Postgres.MigrationsDir, "MG_MIGRATIONS_DIR")

	setStr(&cfg.NATS.URL, "MG_NATS_URL")

	setInt(&cfg.Core.EventChanSize, "MG_EVENT_CHAN_SIZE")
	setInt(&cfg.Core.PersistChanSize, "MG_PERSIST_CHAN_SIZE")
	setInt(&cfg.Core.OutboundChanSize, "MG_OUTBOUND_CHAN_SIZE")
	setInt(&cfg.Core.DedupLRUSize, "MG_DEDUP_LRU_SIZE")

	setInt(&cfg.Persist.BatchSize, "MG_PERSIST_BATCH_SIZE")
	setDuration(&cfg.Persist.FlushTimeout, "MG_PERSIST_FLUSH_TIMEOUT")

	setInt64(&cfg.Snapshot.Interval, "MG_SNAPSHOT_INTERVAL")
	setDuration(&cfg.Snapshot.CheckInterval, "MG_SNAPSHOT_CHECK_INTERVAL")

	setStr(&cfg.Server.HTTPAddr, "MG_HTTP_ADDR")
	setStr(&cfg.Server.GRPCAddr, "MG_GRPC_ADDR")
	setStr(&cfg.Server.MetricsAddr, "MG_METRICS_ADDR")

	setStr(&cfg.LogLevel, "MG_LOG_LEVEL")
}

// Typed env-var helpers. Each mutates the target only when the
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
