package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "capture:\n  interface: eth0\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Capture.Interface != "eth0" {
		t.Errorf("Expected interface eth0, got %q", cfg.Capture.Interface)
	}
	if cfg.Monitor.HistorySize != 200 {
		t.Errorf("Expected history size 200, got %d", cfg.Monitor.HistorySize)
	}
	if cfg.Monitor.BufferSize != 1000 {
		t.Errorf("Expected buffer size 1000, got %d", cfg.Monitor.BufferSize)
	}
	if got := Duration(cfg.Attribution.RefreshInterval); got != 2*time.Second {
		t.Errorf("Expected refresh interval 2s, got %s", got)
	}
	if !cfg.Attribution.Enabled {
		t.Errorf("Expected attribution to be enabled by default")
	}
	if len(cfg.Filter.DropLabels) != 1 || cfg.Filter.DropLabels[0] != "SSDP" {
		t.Errorf("Unexpected default drop labels: %v", cfg.Filter.DropLabels)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
monitor:
  history_size: 10
  tick_interval: "500ms"
attribution:
  enabled: false
filter:
  drop_labels: []
export:
  writers:
    - type: text
      enabled: true
      root_path: /tmp/x
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Monitor.HistorySize != 10 {
		t.Errorf("Expected history size 10, got %d", cfg.Monitor.HistorySize)
	}
	if got := Duration(cfg.Monitor.TickInterval); got != 500*time.Millisecond {
		t.Errorf("Expected tick interval 500ms, got %s", got)
	}
	if cfg.Attribution.Enabled {
		t.Errorf("Expected attribution to be disabled")
	}
	if len(cfg.Filter.DropLabels) != 0 {
		t.Errorf("Expected an explicitly empty drop list to stay empty, got %v", cfg.Filter.DropLabels)
	}
	if cfg.Export.Writers[0].SnapshotInterval != "30s" {
		t.Errorf("Expected writer interval default 30s, got %q", cfg.Export.Writers[0].SnapshotInterval)
	}
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "monitor:\n  tick_interval: soon\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("Expected an error for an invalid duration")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Expected an error for a missing file")
	}
}
