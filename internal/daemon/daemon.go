package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"otrack/internal/api"
	"otrack/internal/config"
	"otrack/internal/identity"
	"otrack/internal/logging"
	"otrack/internal/metrics"
	"otrack/internal/preflight"
	"otrack/internal/store"
)

// Daemon serves the work-order API and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	service  *api.Service
	identity *identity.Provider
	metrics  *metrics.Recorder
	server   *apiServer

	lockPath string
	lock     *flock.Flock

	running     atomic.Bool
	startedAt   atomic.Pointer[time.Time]
	unsubscribe func()
	cancel      context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	Address      string `json:"address,omitempty"`
	StartedAt    string `json:"startedAt,omitempty"`
}

// Deps are the collaborators a Daemon needs.
type Deps struct {
	Store    *store.Store
	Service  *api.Service
	Identity *identity.Provider
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Service == nil || deps.Identity == nil {
		return nil, errors.New("daemon requires config, store, service, and identity provider")
	}
	logger := logging.NewComponentLogger(deps.Logger, "daemon")
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    deps.Store,
		service:  deps.Service,
		identity: deps.Identity,
		metrics:  deps.Metrics,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = newAPIServer(strings.TrimSpace(cfg.Paths.APIBind), d, deps.Logger)
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks, loads the initial
// view, and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another otrackd instance is already running")
	}

	if failed := preflight.Failed(preflight.RunAll(ctx, d.cfg)); len(failed) > 0 {
		_ = d.lock.Unlock()
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	if err := d.service.Reload(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("initial load: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.unsubscribe = d.identity.OnSessionChange(d.handleSessionEvent)

	now := time.Now().UTC()
	d.startedAt.Store(&now)
	d.running.Store(true)
	d.logger.Info("otrackd started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()),
	)
	return nil
}

// Stop shuts down the API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.server.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.Error(err),
		)
	}
	d.startedAt.Store(nil)
	d.running.Store(false)
	d.logger.Info("otrackd stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Address:      d.server.address(),
	}
	if started := d.startedAt.Load(); started != nil {
		status.StartedAt = started.Format(time.RFC3339)
	}
	return status
}

func (d *Daemon) handleSessionEvent(event identity.Event) {
	d.metrics.SessionEvent(string(event.Kind))
	d.logger.Debug("session changed",
		logging.String("event", string(event.Kind)),
		logging.String(logging.FieldActor, event.Session.UserID),
	)
}
