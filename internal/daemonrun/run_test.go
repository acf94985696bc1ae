package daemonrun_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"otrack/internal/daemonrun"
	"otrack/internal/logging"
	"otrack/internal/testsupport"
)

func TestBuildWiresDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemonrun.Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer d.Close()

	status := d.Status()
	if status.Running || status.DatabasePath != cfg.DatabasePath() || status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestRunWritesPIDFileUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(cfg.PIDPath())
		if err == nil && strings.TrimSpace(string(data)) == strconv.Itoa(os.Getpid()) {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("pid file not written: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := daemonrun.Run(context.Background(), nil, daemonrun.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
