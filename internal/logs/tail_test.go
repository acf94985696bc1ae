package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"otrack/internal/logs"
)

func TestTailLastLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "otrack.log")
	content := "a\nb\nc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestTailFollowWaits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "otrack.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts := logs.TailOptions{Offset: -1, Limit: 1}
	result, err := logs.Tail(ctx, path, opts)
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", result.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
		close(done)
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat log: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestTailAppliesMatchBeforeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "otrack.log")
	content := strings.Join([]string{
		"2024-01-01T00:00:00Z INFO api: work order created [OT-1]",
		"2024-01-01T00:00:01Z INFO api: work order created [OT-2]",
		"2024-01-01T00:00:02Z WARN api: stage update rejected [OT-1]",
		`{"ts":"2024-01-01T00:00:03Z","level":"info","msg":"stage date recorded","ot":"OT-1"}`,
		"2024-01-01T00:00:04Z INFO daemon: otrackd started",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2, Match: logs.MatchOT("ot-1")})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 2 || !strings.Contains(result.Lines[0], "rejected") || !strings.Contains(result.Lines[1], `"ot":"OT-1"`) {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}

	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0, Match: logs.All(logs.MatchOT("OT-1"), logs.MatchLevel("warn"))})
	if err != nil {
		t.Fatalf("tail from offset: %v", err)
	}
	if len(result.Lines) != 1 || !strings.Contains(result.Lines[0], "WARN") {
		t.Fatalf("unexpected filtered lines: %#v", result.Lines)
	}
}

func TestMatchHelpers(t *testing.T) {
	if logs.MatchOT("  ") != nil {
		t.Fatal("blank ot should not filter")
	}
	if logs.MatchLevel("bogus") != nil {
		t.Fatal("unknown level should not filter")
	}
	if logs.All(nil, nil) != nil {
		t.Fatal("All of nil filters should be nil")
	}
	errorsOnly := logs.MatchLevel("error")
	if errorsOnly("2024-01-01T00:00:00Z INFO hello") {
		t.Fatal("info line should be dropped")
	}
	if !errorsOnly("plain text without a level") {
		t.Fatal("lines without a level should be kept")
	}
}
