package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"otrack/internal/daemon"
)

// ErrDaemonNotRunning indicates otrackd is unreachable and no live process
// was found.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client queries a running otrackd over its HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the configured api_bind address. Wildcard
// hosts are dialled on loopback.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api bind: %w", err)
	}
	switch base.Hostname() {
	case "", "0.0.0.0", "::":
		base.Host = net.JoinHostPort("127.0.0.1", base.Port())
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// Health fetches GET /api/health.
func (c *Client) Health(ctx context.Context) (daemon.Health, error) {
	if c == nil {
		return daemon.Health{}, ErrDaemonNotRunning
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/health"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return daemon.Health{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return daemon.Health{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return daemon.Health{}, fmt.Errorf("api health returned status %d", resp.StatusCode)
	}

	var payload daemon.Health
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return daemon.Health{}, fmt.Errorf("decode health: %w", err)
	}
	return payload, nil
}

// IsUnavailable reports whether err means nothing is listening.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrDaemonNotRunning) || errors.As(err, &opErr)
}
