package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLIPCONV_HTTP_PORT", "")
	cfg, err := Load(writeConfig(t, "feed:\n  country: ng\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Feed.Country != "ng" {
		t.Errorf("country = %q, want ng", cfg.Feed.Country)
	}
	if cfg.Feed.Timeout != 10*time.Second {
		t.Errorf("feed timeout = %s, want 10s", cfg.Feed.Timeout)
	}
	timeouts := cfg.Target.Timeouts
	if timeouts.SearchReady != 10*time.Second || timeouts.Locate != 20*time.Second ||
		timeouts.Market != 10*time.Second || timeouts.Confirm != 5*time.Second {
		t.Errorf("unexpected replication timeouts: %+v", timeouts)
	}
	if cfg.Target.MaxSessions != 1 {
		t.Errorf("max sessions = %d, want 1", cfg.Target.MaxSessions)
	}
	if cfg.Target.Brand != "betpawa-tanzania" || cfg.Target.Language != "en" || cfg.Target.APITimeout != 10*time.Second {
		t.Errorf("booking API defaults = %q, %q, %s", cfg.Target.Brand, cfg.Target.Language, cfg.Target.APITimeout)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("port = %d, want 5000", cfg.HTTP.Port)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SLIPCONV_HTTP_PORT", "8099")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/teams")
	cfg, err := Load(writeConfig(t, `
logging:
  level: debug
target:
  headless: true
  timeouts:
    locate: 45s
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != 8099 {
		t.Errorf("port = %d, want 8099", cfg.HTTP.Port)
	}
	if cfg.Postgres.DSN != "postgres://localhost/teams" {
		t.Errorf("dsn = %q", cfg.Postgres.DSN)
	}
	if cfg.Target.Timeouts.Locate != 45*time.Second {
		t.Errorf("locate = %s, want 45s", cfg.Target.Timeouts.Locate)
	}
	if !cfg.Target.Headless {
		t.Error("headless should be true")
	}
	if cfg.Telegram.ConverterURL != "http://localhost:8099" {
		t.Errorf("converter url = %q", cfg.Telegram.ConverterURL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "logging:\n  level: loud\n")); err == nil {
		t.Error("expected error for unknown log level")
	}
	if _, err := Load(writeConfig(t, "feed: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
