package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"otrack/internal/config"
	"otrack/internal/logging"
)

func TestConsoleHandlerFormatsComponentAndOT(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "service")
	ctx := logging.WithStage(logging.WithOT(context.Background(), "OT-100"), "Corte")
	logging.WithContext(ctx, logger).Info("stage date recorded", logging.Int("progress", 25), logging.String("note", "two words"))

	line := buf.String()
	for _, want := range []string{" INFO service: stage date recorded [OT-100]", "stage=Corte", "progress=25", `note="two words"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "ot=") {
		t.Fatalf("lifted fields should not repeat: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", logging.Error(errors.New("boom")))
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line leaked at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN shown") || !strings.Contains(buf.String(), "error=boom") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONHandlerEmitsStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := logging.WithRequestID(logging.WithActor(context.Background(), "user-1"), "req-9")
	logging.WithContext(ctx, logger).Info("created")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v (%q)", err, buf.String())
	}
	if payload["level"] != "info" || payload["msg"] != "created" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload[logging.FieldActor] != "user-1" || payload[logging.FieldCorrelationID] != "req-9" {
		t.Fatalf("context fields missing: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("persisted")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"persisted"`) {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestContextFieldsEmptyContext(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	if _, ok := logging.RequestIDFromContext(context.Background()); ok {
		t.Fatal("expected no request id")
	}
	logging.WithContext(context.Background(), nil).Info("discarded")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "loud": "INFO"}
	for in, want := range cases {
		if got := logging.ParseLevel(in).String(); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
