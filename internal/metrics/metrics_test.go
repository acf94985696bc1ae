package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"otrack/internal/metrics"
	"otrack/internal/workorder"
)

func gather(t *testing.T, r *metrics.Recorder) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestStageDateRecordedCountsTransitions(t *testing.T) {
	r := metrics.New()
	r.StageDateRecorded("Corte", false, workorder.LocationINCO, workorder.LocationINCO)
	r.StageDateRecorded("Anticorr", false, workorder.LocationINCO, workorder.LocationANTI)
	r.StageDateRecorded("Corte", true, workorder.LocationANTI, workorder.LocationANTI)

	families := gather(t, r)
	updates := families["otrack_stage_updates_total"]
	if updates == nil || len(updates.GetMetric()) != 3 {
		t.Fatalf("unexpected stage update series: %v", updates)
	}
	moves := families["otrack_location_transitions_total"]
	if moves == nil || len(moves.GetMetric()) != 1 {
		t.Fatalf("expected one transition series, got %v", moves)
	}
	m := moves.GetMetric()[0]
	if labelValue(m, "from") != "INCO" || labelValue(m, "to") != "ANTI" || m.GetCounter().GetValue() != 1 {
		t.Fatalf("unexpected transition %v", m)
	}
}

func TestStageDateRecordedFoldsUnknownStages(t *testing.T) {
	r := metrics.New()
	r.StageDateRecorded("Inspeccion", false, workorder.LocationINCO, workorder.LocationINCO)
	r.StageDateRecorded("Retoque", false, workorder.LocationINCO, workorder.LocationINCO)

	updates := gather(t, r)["otrack_stage_updates_total"]
	if updates == nil || len(updates.GetMetric()) != 1 {
		t.Fatalf("expected one folded series, got %v", updates)
	}
	m := updates.GetMetric()[0]
	if labelValue(m, "stage") != "other" || m.GetCounter().GetValue() != 2 {
		t.Fatalf("unexpected series %v", m)
	}
}

func TestObserveViewSetsGauges(t *testing.T) {
	r := metrics.New()
	r.ObserveView(map[workorder.Location]int{workorder.LocationINCO: 3, workorder.LocationArchived: 1}, 2)

	families := gather(t, r)
	got := map[string]float64{}
	for _, m := range families["otrack_work_orders"].GetMetric() {
		got[labelValue(m, "location")] = m.GetGauge().GetValue()
	}
	if got["INCO"] != 3 || got["ANTI"] != 0 || got["ARCHIVED"] != 1 {
		t.Fatalf("unexpected gauges %v", got)
	}
	if v := families["otrack_work_orders_delayed"].GetMetric()[0].GetGauge().GetValue(); v != 2 {
		t.Fatalf("delayed gauge = %v", v)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	r := metrics.New()
	r.WorkOrderCreated()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || !strings.Contains(string(body), "otrack_work_orders_created_total 1") {
		t.Fatalf("unexpected response %d: %s", rec.Code, body)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *metrics.Recorder
	r.WorkOrderCreated()
	r.StageDateRecorded("Corte", false, workorder.LocationINCO, workorder.LocationANTI)
	r.OperationFailed("create", "conflict")
	r.SessionEvent("signed_in")
	r.ObserveView(nil, 0)
	r.HTTPRequest("/api/health", http.StatusOK)
	if r.Registry() != nil {
		t.Fatal("nil recorder should have no registry")
	}
}
