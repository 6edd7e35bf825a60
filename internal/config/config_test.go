package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.FlushInterval != 300 {
		t.Fatalf("expected default flush interval 300, got %d", cfg.FlushInterval)
	}
	if !cfg.Statsd.Enabled || cfg.Statsd.Port != 8125 {
		t.Fatalf("unexpected statsd defaults: %+v", cfg.Statsd)
	}
	if cfg.Upstream.Enabled || cfg.Upstream.Port != 8126 {
		t.Fatalf("unexpected upstream defaults: %+v", cfg.Upstream)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesPartialDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cardiff.json")
	doc := `{"flush_interval": 60, "statsd": {"enabled": true, "host": "127.0.0.1", "port": 9125}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlushInterval != 60 {
		t.Fatalf("expected overridden flush interval, got %d", cfg.FlushInterval)
	}
	if cfg.Statsd.Port != 9125 || cfg.Statsd.Host != "127.0.0.1" {
		t.Fatalf("unexpected statsd override: %+v", cfg.Statsd)
	}
	// upstream was not present in the document, so it should still carry defaults
	if cfg.Upstream.Port != 8126 {
		t.Fatalf("expected upstream defaults to survive partial override, got %+v", cfg.Upstream)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/cardiff.json"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
