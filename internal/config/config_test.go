package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Sites) == 0 {
		t.Error("expected sites to be populated")
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	if cfg.Scan.TriageThreshold != 50 {
		t.Errorf("expected triage threshold 50, got %d", cfg.Scan.TriageThreshold)
	}
	if cfg.RateLimit.Quota != 150 {
		t.Errorf("expected quota 150, got %d", cfg.RateLimit.Quota)
	}
	if cfg.Enrichment.SentimentModel == "" {
		t.Error("expected a sentiment model")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
scan:
  interval_minutes: 30
  triage_threshold: 60
storage:
  backup_size: 200
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Scan.IntervalMinutes != 30 {
		t.Errorf("expected interval 30, got %d", cfg.Scan.IntervalMinutes)
	}
	if cfg.Scan.TriageThreshold != 60 {
		t.Errorf("expected threshold 60, got %d", cfg.Scan.TriageThreshold)
	}
	if cfg.Storage.BackupSize != 200 {
		t.Errorf("expected backup size 200, got %d", cfg.Storage.BackupSize)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Scan.MaxAgeDays != 30 {
		t.Errorf("expected default max age 30, got %d", cfg.Scan.MaxAgeDays)
	}
	if cfg.Storage.BackupFile != "safeguard_backup.json" {
		t.Errorf("expected default backup file, got %q", cfg.Storage.BackupFile)
	}
}

func TestNoEmbeddedCredentials(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	// The config carries only environment variable names, never values.
	if cfg.Storage.StoreURLEnv != "SUPABASE_URL" || cfg.Storage.StoreKeyEnv != "SUPABASE_KEY" {
		t.Errorf("expected env var names, got %q/%q", cfg.Storage.StoreURLEnv, cfg.Storage.StoreKeyEnv)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.Sites) == 0 {
		t.Error("expected sites to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Storage.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}
