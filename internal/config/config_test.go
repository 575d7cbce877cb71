package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v, want nil", err)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[persist]
batch_size = 200
flush_timeout = "25ms"

[server]
http_addr = ":18080"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Persist.BatchSize != 200 {
		t.Errorf("Persist.BatchSize = %d, want 200", cfg.Persist.BatchSize)
	}
	if cfg.Persist.FlushTimeout.Duration != 25*time.Millisecond {
		t.Errorf("Persist.FlushTimeout = %v, want 25ms", cfg.Persist.FlushTimeout.Duration)
	}
	if cfg.Server.HTTPAddr != ":18080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":18080")
	}
	// Untouched sections keep their defaults.
	if cfg.Core.EventChanSize != 1024 {
		t.Errorf("Core.EventChanSize = %d, want 1024", cfg.Core.EventChanSize)
	}
}

func TestLoadEnvOverridesTOML(t *testing.T) {
	t.Setenv("MG_POSTGRES_URL", "postgres://env-wins")
	t.Setenv("MG_PERSIST_BATCH_SIZE", "75")
	t.Setenv("MG_SNAPSHOT_CHECK_INTERVAL", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Postgres.URL != "postgres://env-wins" {
		t.Errorf("Postgres.URL = %q, want env override", cfg.Postgres.URL)
	}
	if cfg.Persist.BatchSize != 75 {
		t.Errorf("Persist.BatchSize = %d, want 75", cfg.Persist.BatchSize)
	}
	if cfg.Snapshot.CheckInterval.Duration != 30*time.Second {
		t.Errorf("Snapshot.CheckInterval = %v, want 30s", cfg.Snapshot.CheckInterval.Duration)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.GRPCAddr != ":9090" {
		t.Errorf("Server.GRPCAddr = %q, want default", cfg.Server.GRPCAddr)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty postgres url", func(c *Config) { c.Postgres.URL = "" }},
		{"empty nats url", func(c *Config) { c.NATS.URL = "" }},
		{"zero batch size", func(c *Config) { c.Persist.BatchSize = 0 }},
		{"zero flush timeout", func(c *Config) { c.Persist.FlushTimeout.Duration = 0 }},
		{"zero snapshot interval", func(c *Config) { c.Snapshot.Interval = 0 }},
		{"zero lru size", func(c *Config) { c.Core.DedupLRUSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
