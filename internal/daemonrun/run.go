package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"otrack/internal/api"
	"otrack/internal/config"
	"otrack/internal/daemon"
	"otrack/internal/identity"
	"otrack/internal/logging"
	"otrack/internal/metrics"
	"otrack/internal/notifications"
	"otrack/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level from the config when set.
	LogLevel string
}

// Build opens the store and wires the identity provider, service, and metrics
// recorder into a daemon. Closing the daemon closes the store.
func Build(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rec := metrics.New()
	d, err := daemon.New(cfg, daemon.Deps{
		Store: st,
		Service: api.NewService(st, api.Options{
			Logger:    logger,
			Metrics:   rec,
			Dashboard: cfg.Dashboard,
			Notifier:  notifications.NewService(cfg),
		}),
		Identity: identity.New(st, cfg.SessionTTL(), identity.WithLogger(logger)),
		Metrics:  rec,
		Logger:   logger,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create daemon: %w", err)
	}
	return d, nil
}

// Run starts otrackd and blocks until cmdCtx is cancelled or the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := Build(cfg, logger)
	if err != nil {
		logger.Error("daemon bootstrap failed", logging.Error(err))
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.Error(err),
		)
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logger.Info("otrackd listening",
		logging.String("address", d.Status().Address),
		logging.String("database", cfg.DatabasePath()),
	)

	<-signalCtx.Done()
	logger.Info("otrackd shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
