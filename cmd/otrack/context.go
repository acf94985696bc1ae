package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"otrack/internal/api"
	"otrack/internal/config"
	"otrack/internal/identity"
	"otrack/internal/logging"
	"otrack/internal/notifications"
	"otrack/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	runtime *runtime
}

// runtime bundles the collaborators a command needs to talk to the store.
type runtime struct {
	store    *store.Store
	identity *identity.Provider
	service  *api.Service
	logger   *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// open lazily builds the runtime for cmd. Logs go to the command's stderr.
func (c *commandContext) open(cmd *cobra.Command) (*runtime, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.runtime = &runtime{
		store:    st,
		identity: identity.New(st, cfg.SessionTTL(), identity.WithLogger(logger)),
		service:  api.NewService(st, api.Options{
			Logger:    logger,
			Dashboard: cfg.Dashboard,
			Notifier:  notifications.NewService(cfg),
		}),
		logger:   logger,
	}
	return c.runtime, nil
}

func (c *commandContext) close() error {
	if c.runtime == nil {
		return nil
	}
	err := c.runtime.store.Close()
	c.runtime = nil
	return err
}

// session resolves the token saved by `otrack login`.
func (c *commandContext) session(ctx context.Context, rt *runtime) (*identity.Session, error) {
	token, err := c.readToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("not signed in; run `otrack login <email>` first")
	}
	session, err := rt.identity.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w; run `otrack login <email>` again", err)
	}
	return session, nil
}

func (c *commandContext) readToken() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(cfg.SessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *commandContext) writeToken(token string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.SessionPath(), []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (c *commandContext) clearToken() error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := os.Remove(cfg.SessionPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
