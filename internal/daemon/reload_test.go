package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func writeReloadConfig(t *testing.T, path, socket, pidFile, logLevel string) {
	t.Helper()
	content := `
perfkit:
  control:
    socket: ` + socket + `
    pid_file: ` + pidFile + `
  log:
    level: ` + logLevel + `
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestDaemon_ReloadLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "perfkit.yaml")
	socketPath := filepath.Join(tmpDir, "perfkitd.sock")
	pidFile := filepath.Join(tmpDir, "perfkitd.pid")

	writeReloadConfig(t, configPath, socketPath, pidFile, "info")

	d, err := New(configPath)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if d.config.Log.Level != "info" {
		t.Fatalf("expected initial level info, got %s", d.config.Log.Level)
	}

	writeReloadConfig(t, configPath, socketPath, pidFile, "debug")

	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if d.config.Log.Level != "debug" {
		t.Fatalf("expected level debug after reload, got %s", d.config.Log.Level)
	}
}

func TestDaemon_ReloadPreservesChannels(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "perfkit.yaml")
	socketPath := filepath.Join(tmpDir, "perfkitd.sock")
	pidFile := filepath.Join(tmpDir, "perfkitd.pid")

	writeReloadConfig(t, configPath, socketPath, pidFile, "info")

	d, err := New(configPath)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	initialCount := len(d.mgr.ListChannels())

	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	afterCount := len(d.mgr.ListChannels())
	if initialCount != afterCount {
		t.Fatalf("channel count changed after reload: %d -> %d", initialCount, afterCount)
	}
}

func TestDaemon_ReloadWarnsOnControlSocketChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "perfkit.yaml")
	socketPath := filepath.Join(tmpDir, "perfkitd.sock")
	pidFile := filepath.Join(tmpDir, "perfkitd.pid")

	writeReloadConfig(t, configPath, socketPath, pidFile, "info")

	d, err := New(configPath)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	newSocket := filepath.Join(tmpDir, "other.sock")
	writeReloadConfig(t, configPath, newSocket, pidFile, "info")

	// Reload must succeed even though the control socket can't actually move
	// without a restart; onConfigChanged only warns, it doesn't rebind.
	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if d.config.Control.Socket != newSocket {
		t.Fatalf("expected config.Control.Socket to update to %s, got %s", newSocket, d.config.Control.Socket)
	}
}
