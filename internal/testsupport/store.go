package testsupport

import (
	"context"
	"testing"
	"time"

	"otrack/internal/config"
	"otrack/internal/store"
	"otrack/internal/workorder"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewWorkOrder inserts a fresh INCO order for tests.
func NewWorkOrder(t testing.TB, st *store.Store, ot, client string) workorder.WorkOrder {
	t.Helper()

	w, err := st.InsertWorkOrder(context.Background(), workorder.New(ot, workorder.Details{Client: client}), "")
	if err != nil {
		t.Fatalf("store.InsertWorkOrder: %v", err)
	}
	return w
}

// MustDate parses a YYYY-MM-DD date or fails the test.
func MustDate(t testing.TB, value string) time.Time {
	t.Helper()

	d, err := workorder.ParseDate(value)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", value, err)
	}
	return d
}
