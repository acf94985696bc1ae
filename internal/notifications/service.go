package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"otrack/internal/config"
)

const userAgent = "otrack/0.1"

// Service defines the notification surface used by the work-order service.
type Service interface {
	// NotifyHandOff reports an order moving between locations.
	NotifyHandOff(ctx context.Context, ot, client, from, to string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	if svc == nil {
		return false
	}
	_, noop := svc.(noopService)
	return !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyHandOff(ctx context.Context, ot, client, from, to string) error {
	ot = strings.TrimSpace(ot)
	client = strings.TrimSpace(client)
	subject := ot
	if client != "" {
		subject = fmt.Sprintf("%s (%s)", ot, client)
	}
	data := payload{
		title:   fmt.Sprintf("otrack - %s moved to %s", ot, to),
		message: fmt.Sprintf("%s moved from %s to %s", subject, from, to),
		tags:    []string{"otrack", "handoff", strings.ToLower(to)},
	}
	if to == "ARCHIVED" {
		data.title = fmt.Sprintf("otrack - %s dispatched", ot)
		data.message = fmt.Sprintf("%s dispatched and archived", subject)
		data.tags = []string{"otrack", "dispatched"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "otrack - Test",
		message:  "Notification system test",
		tags:     []string{"otrack", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyHandOff(context.Context, string, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
