package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otrack/internal/api"
	"otrack/internal/identity"
	"otrack/internal/metrics"
	"otrack/internal/testsupport"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	rec := metrics.New()
	provider := identity.New(st, time.Hour)
	svc := api.NewService(st, api.Options{Metrics: rec, Dashboard: cfg.Dashboard})
	d, err := New(cfg, Deps{Store: st, Service: svc, Identity: provider, Metrics: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := provider.RegisterUser(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	return &testAPI{t: t, handler: d.server.routes()}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testAPI) signIn() {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/sessions", map[string]string{"email": "ana@example.com"})
	if w.Code != http.StatusCreated {
		a.t.Fatalf("sign in: %d %s", w.Code, w.Body.String())
	}
	var session identity.Session
	decode(a.t, w, &session)
	a.token = session.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestAPIRequiresSession(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/api/workorders", nil)
	expectStatus(t, w, http.StatusUnauthorized)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	a.token = "bogus"
	expectStatus(t, a.do(http.MethodGet, "/api/dashboard", nil), http.StatusUnauthorized)

	a.token = ""
	expectStatus(t, a.do(http.MethodGet, "/api/stages", nil), http.StatusOK)
	expectStatus(t, a.do(http.MethodPost, "/api/sessions", map[string]string{"email": "bob@example.com"}), http.StatusUnauthorized)
}

func TestAPIWorkOrderLifecycle(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()

	w := a.do(http.MethodPost, "/api/workorders", api.CreateRequest{OT: "ot-100", Client: "Acme"})
	expectStatus(t, w, http.StatusCreated)
	var created api.WorkOrder
	decode(t, w, &created)
	if created.OT != "OT-100" || created.Location != "INCO" {
		t.Fatalf("unexpected created order %+v", created)
	}

	expectStatus(t, a.do(http.MethodPost, "/api/workorders", api.CreateRequest{OT: "OT-100"}), http.StatusConflict)
	expectStatus(t, a.do(http.MethodPost, "/api/workorders", api.CreateRequest{}), http.StatusBadRequest)

	w = a.do(http.MethodPut, "/api/workorders/OT-100/dates/Corte", api.StageDateRequest{Date: "2024-01-10"})
	expectStatus(t, w, http.StatusOK)
	var update api.StageUpdate
	decode(t, w, &update)
	if update.WorkOrder.Status != "Corte" || update.WorkOrder.Progress != 25 {
		t.Fatalf("unexpected update %+v", update)
	}

	expectStatus(t, a.do(http.MethodPut, "/api/workorders/OT-100/dates/Corte", api.StageDateRequest{Date: "10/01/2024"}), http.StatusBadRequest)
	expectStatus(t, a.do(http.MethodPut, "/api/workorders/OT-404/dates/Corte", api.StageDateRequest{Date: "2024-01-10"}), http.StatusNotFound)
	w = a.do(http.MethodPut, "/api/workorders/OT-100/dates/Pintura", api.StageDateRequest{Date: "2024-01-10"})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &update)
	if update.StageKnown || update.WorkOrder.Status != "Corte" || update.Location != "INCO" || update.WorkOrder.Dates["Pintura"] != "2024-01-10" {
		t.Fatalf("expected date-only update while in INCO, got %+v", update)
	}

	w = a.do(http.MethodPut, "/api/workorders/OT-100/dates/Anticorr", api.StageDateRequest{Date: "2024-01-20"})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &update)
	if !update.Advanced || update.Location != "ANTI" {
		t.Fatalf("expected hand-off to ANTI, got %+v", update)
	}

	w = a.do(http.MethodGet, "/api/workorders?location=anti", nil)
	expectStatus(t, w, http.StatusOK)
	var listed struct {
		Items []api.WorkOrder `json:"items"`
	}
	decode(t, w, &listed)
	if len(listed.Items) != 1 || listed.Items[0].Dates["Corte"] != "2024-01-10" {
		t.Fatalf("unexpected ANTI list %+v", listed)
	}

	expectStatus(t, a.do(http.MethodPut, "/api/workorders/OT-100/dates/Despacho", api.StageDateRequest{Date: "2024-02-01"}), http.StatusOK)
	w = a.do(http.MethodPut, "/api/workorders/OT-100/dates/Pintura", api.StageDateRequest{Date: "2024-02-02"})
	expectStatus(t, w, http.StatusConflict)
	if !strings.Contains(w.Body.String(), `"kind":"archived"`) {
		t.Fatalf("expected archived kind, got %s", w.Body.String())
	}

	w = a.do(http.MethodPatch, "/api/workorders/OT-100", api.DetailsRequest{Client: "Beta", Tag: "T1"})
	expectStatus(t, w, http.StatusOK)

	w = a.do(http.MethodGet, "/api/workorders", nil)
	expectStatus(t, w, http.StatusOK)
	var board api.Board
	decode(t, w, &board)
	if len(board.Archived) != 1 || board.Archived[0].Client != "Beta" {
		t.Fatalf("unexpected board %+v", board)
	}

	w = a.do(http.MethodGet, "/api/history?limit=3", nil)
	expectStatus(t, w, http.StatusOK)
	var history struct {
		Items []api.HistoryEntry `json:"items"`
	}
	decode(t, w, &history)
	if len(history.Items) != 3 || history.Items[0].Actor != "ana@example.com" {
		t.Fatalf("unexpected history %+v", history)
	}
	expectStatus(t, a.do(http.MethodGet, "/api/history?limit=-1", nil), http.StatusBadRequest)

	w = a.do(http.MethodGet, "/api/dashboard", nil)
	expectStatus(t, w, http.StatusOK)
	var dash api.Dashboard
	decode(t, w, &dash)
	if dash.Total != 1 || dash.Completed != 1 || dash.CycleTimes.OverallDays == nil {
		t.Fatalf("unexpected dashboard %+v", dash)
	}

	w = a.do(http.MethodGet, "/metrics", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "otrack_work_orders_created_total 1") {
		t.Fatalf("metrics missing created counter")
	}
}

func TestAPISignOutRevokesToken(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()
	expectStatus(t, a.do(http.MethodDelete, "/api/sessions", nil), http.StatusNoContent)
	expectStatus(t, a.do(http.MethodGet, "/api/workorders", nil), http.StatusUnauthorized)
}

func TestAPIRejectsUnknownFields(t *testing.T) {
	a := newTestAPI(t)
	a.signIn()
	w := a.do(http.MethodPost, "/api/workorders", map[string]string{"ot": "OT-1", "status": "Corte"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestStatusForKind(t *testing.T) {
	cases := map[string]int{
		"unauthorized": http.StatusUnauthorized,
		"not_found":    http.StatusNotFound,
		"conflict":     http.StatusConflict,
		"archived":     http.StatusConflict,
		"validation":   http.StatusBadRequest,
		"storage":      http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Fatalf("statusForKind(%q) = %d, want %d", kind, got, want)
		}
	}
}
