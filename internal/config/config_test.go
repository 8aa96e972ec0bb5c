package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTmpConfig writes content to a temp YAML file and returns its path.
func writeTmpConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "perfkit.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write tmp config: %v", err)
	}
	return p
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
perfkit:
  control:
    socket: /tmp/test.sock
    pid_file: /tmp/test.pid
  buffer:
    max: 8192
    timeout_ms: 250
  scheduler:
    tick_ms: 5
  log:
    level: debug
  channels:
    - name: self
      pid: 1
      sources: [cpu]
      auto_start: true
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Control.Socket != "/tmp/test.sock" {
		t.Errorf("Control.Socket = %q, want /tmp/test.sock", cfg.Control.Socket)
	}
	if cfg.Buffer.Max != 8192 {
		t.Errorf("Buffer.Max = %d, want 8192", cfg.Buffer.Max)
	}
	if cfg.Buffer.Timeout() != 250*time.Millisecond {
		t.Errorf("Buffer.Timeout() = %s, want 250ms", cfg.Buffer.Timeout())
	}
	if cfg.Scheduler.TickMS != 5 {
		t.Errorf("Scheduler.TickMS = %d, want 5", cfg.Scheduler.TickMS)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0].Name != "self" {
		t.Fatalf("expected one channel named self, got %+v", cfg.Channels)
	}
	if !cfg.Channels[0].AutoStart {
		t.Errorf("expected channel self to have auto_start=true")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `perfkit: {}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Control.Socket != "/var/run/perfkitd.sock" {
		t.Errorf("Control.Socket default = %q", cfg.Control.Socket)
	}
	if cfg.Buffer.Max != 4096 {
		t.Errorf("Buffer.Max default = %d, want 4096", cfg.Buffer.Max)
	}
	if cfg.Scheduler.TickMS != 10 {
		t.Errorf("Scheduler.TickMS default = %d, want 10", cfg.Scheduler.TickMS)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level default = %q, want info", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
perfkit:
  log:
    level: "verbose"
`))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
}

func TestLoadRejectsPidAndTargetBothSet(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
perfkit:
  channels:
    - name: conflicted
      pid: 42
      target: /bin/sleep
`))
	if err == nil {
		t.Fatal("expected error for channel with both pid and target set, got nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}
