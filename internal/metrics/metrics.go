// Package metrics exposes otrack counters and gauges in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"otrack/internal/stages"
	"otrack/internal/workorder"
)

const namespace = "otrack"

// Recorder owns a private registry. A nil *Recorder accepts every call and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	created      prometheus.Counter
	stageUpdates *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	sessions     *prometheus.CounterVec
	workOrders   *prometheus.GaugeVec
	delayed      prometheus.Gauge
	httpRequests *prometheus.CounterVec
}

// New registers the otrack collectors plus Go runtime and process metrics.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_orders_created_total",
			Help:      "Work orders created.",
		}),
		stageUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_updates_total",
			Help:      "Stage date updates by stage and whether the date was set or cleared.",
		}, []string{"stage", "action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_transitions_total",
			Help:      "Work orders moved between locations.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed service operations by error kind.",
		}, []string{"op", "kind"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events.",
		}, []string{"event"}),
		workOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "work_orders",
			Help:      "Work orders currently in each location.",
		}, []string{"location"}),
		delayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "work_orders_delayed",
			Help:      "In-progress work orders whose earliest stage date is more than 30 days old.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.created,
		r.stageUpdates,
		r.transitions,
		r.failures,
		r.sessions,
		r.workOrders,
		r.delayed,
		r.httpRequests,
	)
	for _, loc := range workorder.AllLocations() {
		r.workOrders.WithLabelValues(string(loc)).Set(0)
	}
	return r
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text or OpenMetrics format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (r *Recorder) WorkOrderCreated() {
	if r == nil {
		return
	}
	r.created.Inc()
}

// StageDateRecorded counts a stage update and any location move it caused.
// Names outside the catalogs share the "other" stage label.
func (r *Recorder) StageDateRecorded(stage string, cleared bool, from, to workorder.Location) {
	if r == nil {
		return
	}
	action := "set"
	if cleared {
		action = "cleared"
	}
	if _, _, known := stages.Lookup(stage); !known {
		stage = "other"
	}
	r.stageUpdates.WithLabelValues(stage, action).Inc()
	if from != to {
		r.transitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

func (r *Recorder) OperationFailed(op, kind string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(op, kind).Inc()
}

func (r *Recorder) SessionEvent(event string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(event).Inc()
}

// ObserveView replaces the per-location gauges after a reload.
func (r *Recorder) ObserveView(counts map[workorder.Location]int, delayed int) {
	if r == nil {
		return
	}
	for _, loc := range workorder.AllLocations() {
		r.workOrders.WithLabelValues(string(loc)).Set(float64(counts[loc]))
	}
	r.delayed.Set(float64(delayed))
}

func (r *Recorder) HTTPRequest(route string, code int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
