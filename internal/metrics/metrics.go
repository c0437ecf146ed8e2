// Package metrics provides Prometheus metrics for the task board.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics for the board.
type Metrics struct {
	MutationsTotal   *prometheus.CounterVec
	AIRequestsTotal  *prometheus.CounterVec
	AIDuration       *prometheus.HistogramVec
	PersistErrors    prometheus.Counter
	TasksTotal       *prometheus.GaugeVec
	HTTPRequestTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskflow_board_mutations_total",
				Help: "Board mutations by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		AIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskflow_ai_requests_total",
				Help: "Completion requests by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		AIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskflow_ai_request_duration_seconds",
				Help:    "Completion request duration by kind.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"kind"},
		),
		PersistErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taskflow_persist_errors_total",
				Help: "Failed write-throughs to the key-value store.",
			},
		),
		TasksTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskflow_tasks",
				Help: "Tasks on the board by status.",
			},
			[]string{"status"},
		),
		HTTPRequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskflow_http_requests_total",
				Help: "API requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		registry: reg,
	}

	reg.MustRegister(m.MutationsTotal)
	reg.MustRegister(m.AIRequestsTotal)
	reg.MustRegister(m.AIDuration)
	reg.MustRegister(m.PersistErrors)
	reg.MustRegister(m.TasksTotal)
	reg.MustRegister(m.HTTPRequestTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMutation counts a board mutation.
func (m *Metrics) RecordMutation(op string, err error) {
	m.MutationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// RecordAI counts a completion request and observes its duration.
func (m *Metrics) RecordAI(kind string, seconds float64, err error) {
	m.AIRequestsTotal.WithLabelValues(kind, outcome(err)).Inc()
	m.AIDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordPersistError counts a failed write-through.
func (m *Metrics) RecordPersistError() { m.PersistErrors.Inc() }

// SetTaskCounts replaces the per-status task gauge.
func (m *Metrics) SetTaskCounts(counts map[string]int) {
	m.TasksTotal.Reset()
	for status, n := range counts {
		m.TasksTotal.WithLabelValues(status).Set(float64(n))
	}
}

// RecordHTTP counts an API request.
func (m *Metrics) RecordHTTP(route, code string) {
	m.HTTPRequestTotal.WithLabelValues(route, code).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
