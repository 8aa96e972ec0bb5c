package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDaemon_StartStopIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, "perfkitd.sock")
	pidFile := filepath.Join(tmpDir, "perfkitd.pid")

	configPath := filepath.Join(tmpDir, "perfkit.yaml")
	configContent := `
perfkit:
  control:
    socket: ` + socketPath + `
    pid_file: ` + pidFile + `
  buffer:
    max: 256
    timeout_ms: 500
  scheduler:
    tick_ms: 10
  log:
    level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	d, err := New(configPath)
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}

	if err := d.Start(); err != nil {
		t.Fatalf("failed to start daemon: %v", err)
	}

	if _, err := os.Stat(pidFile); os.IsNotExist(err) {
		t.Errorf("pid file was not created: %s", pidFile)
	}

	time.Sleep(100 * time.Millisecond)
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		t.Errorf("control socket was not created: %s", socketPath)
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- d.Run()
	}()

	time.Sleep(100 * time.Millisecond)
	d.TriggerShutdown()

	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("daemon.Run() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop within timeout")
	}

	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("pid file was not removed after shutdown: %s", pidFile)
	}
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Errorf("control socket was not removed after shutdown: %s", socketPath)
	}
}
