package testsupport

import (
	"path/filepath"
	"testing"

	"otrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSessionTTL overrides the session lifetime in hours.
func WithSessionTTL(hours int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Auth.SessionTTLHours = hours
	}
}

// WithHistoryLimit overrides the dashboard history length.
func WithHistoryLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dashboard.HistoryLimit = limit
	}
}
