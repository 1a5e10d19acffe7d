package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the client
type Metrics struct {
	APIRequests *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	ListFetches   *prometheus.CounterVec
	StaleResults  prometheus.Counter
	SessionEvents *prometheus.CounterVec
	Exports       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roster",
				Name:      "api_requests_total",
				Help:      "Employee API requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "roster",
				Name:      "api_request_duration_seconds",
				Help:      "Employee API request latency",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		ListFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roster",
				Name:      "list_fetches_total",
				Help:      "Employee list fetches by outcome (committed, stale, failed)",
			},
			[]string{"outcome"},
		),
		StaleResults: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roster",
				Name:      "list_stale_results_total",
				Help:      "List responses discarded because a newer query was issued",
			},
		),
		SessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roster",
				Name:      "session_events_total",
				Help:      "Session changes by event (login, logout, expired)",
			},
			[]string{"event"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roster",
				Name:      "exports_total",
				Help:      "Export files written by format",
			},
			[]string{"format"},
		),
	}
}

// RecordAPIRequest records one API round trip. status is 0 for transport failures.
func (m *Metrics) RecordAPIRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, route, label).Inc()
	m.APIDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordListFetch counts a list fetch outcome.
func (m *Metrics) RecordListFetch(outcome string) {
	if m == nil {
		return
	}
	m.ListFetches.WithLabelValues(outcome).Inc()
	if outcome == "stale" {
		m.StaleResults.Inc()
	}
}

// RecordSessionEvent counts a session change.
func (m *Metrics) RecordSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

// RecordExport counts a written export file.
func (m *Metrics) RecordExport(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}
