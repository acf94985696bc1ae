package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"otrack/internal/config"
	"otrack/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service without topic")
	}
	if err := svc.NotifyHandOff(context.Background(), "OT-1", "Acme", "INCO", "ANTI"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if notifications.Enabled(notifications.NewService(nil)) {
		t.Fatal("expected noop service for nil config")
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		to             string
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "inco to anti",
			to:            "ANTI",
			expectTitle:   "otrack - OT-1 moved to ANTI",
			expectMessage: "OT-1 (Acme) moved from INCO to ANTI",
			expectTags:    "otrack,handoff,anti",
		},
		{
			name:           "dispatched",
			to:             "ARCHIVED",
			expectTitle:    "otrack - OT-1 dispatched",
			expectMessage:  "OT-1 (Acme) dispatched and archived",
			expectTags:     "otrack,dispatched",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := ntfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			svc := notifications.NewService(&cfg)
			if !notifications.Enabled(svc) {
				t.Fatal("expected ntfy service")
			}
			if err := svc.NotifyHandOff(context.Background(), "OT-1", "Acme", "INCO", tc.to); err != nil {
				t.Fatalf("NotifyHandOff: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected one request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tc.expectTitle || req.body != tc.expectMessage || req.tags != tc.expectTags || req.priority != tc.expectPriority {
				t.Fatalf("unexpected request %+v", req)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
