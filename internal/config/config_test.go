package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if got := cfg.ListenAddr(); got != "127.0.0.1:38080" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:38080", got)
	}
	if cfg.Recorder.SamplesPerMinute != 60 {
		t.Errorf("SamplesPerMinute = %v, want 60", cfg.Recorder.SamplesPerMinute)
	}
	if cfg.Recorder.HistoryRetention.Std() != 24*time.Hour {
		t.Errorf("HistoryRetention = %v, want 24h", cfg.Recorder.HistoryRetention.Std())
	}
	if cfg.Policy.MinKeepSamples != 3 {
		t.Errorf("MinKeepSamples = %d, want 3", cfg.Policy.MinKeepSamples)
	}
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Error("empty path should return defaults unchanged")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.yaml")
	content := `
server:
  port: 9999
recorder:
  samples_per_minute: 12
  history_retention: 90m
policy:
  max_merge_gap: 10m
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default 127.0.0.1", cfg.Server.Bind)
	}
	if cfg.Recorder.SamplesPerMinute != 12 {
		t.Errorf("SamplesPerMinute = %v, want 12", cfg.Recorder.SamplesPerMinute)
	}
	if cfg.Recorder.HistoryRetention.Std() != 90*time.Minute {
		t.Errorf("HistoryRetention = %v, want 90m", cfg.Recorder.HistoryRetention.Std())
	}
	if cfg.Policy.MaxMergeGap.Std() != 10*time.Minute {
		t.Errorf("MaxMergeGap = %v, want 10m", cfg.Policy.MaxMergeGap.Std())
	}
	if cfg.Policy.MinKeepDuration.Std() != 2*time.Minute {
		t.Errorf("MinKeepDuration = %v, want default 2m", cfg.Policy.MinKeepDuration.Std())
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.yaml")
	content := "recorder:\n  history_retention: yesterday\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
