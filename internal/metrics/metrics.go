// Package metrics exposes Prometheus instruments for the editor service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jwpedit"

// Metrics holds the registry and every instrument.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	saves           *prometheus.CounterVec
	rowsChanged     prometheus.Counter
	writeFailures   prometheus.Counter
	auditFailures   prometheus.Counter
	sessions        prometheus.Gauge
}

// CacheStatsFunc reports snapshot cache counters.
type CacheStatsFunc func() (hits, misses int64, entries int)

// New registers all instruments on a fresh registry. cacheStats may be nil.
func New(cacheStats CacheStatsFunc) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Save operations by agency and outcome.",
		}, []string{"agency", "outcome"}),
		rowsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_changed_total",
			Help:      "Rows written back to the master sheet.",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_write_failures_total",
			Help:      "Rows with at least one failed cell write.",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_append_failures_total",
			Help:      "Audit records that could not be appended.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live stakeholder sessions.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.saves,
		m.rowsChanged, m.writeFailures, m.auditFailures, m.sessions,
	)

	if cacheStats != nil {
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace, Name: "cache_hits_total", Help: "Snapshot cache hits.",
			}, func() float64 { h, _, _ := cacheStats(); return float64(h) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: namespace, Name: "cache_misses_total", Help: "Snapshot cache misses.",
			}, func() float64 { _, m, _ := cacheStats(); return float64(m) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace, Name: "cache_entries", Help: "Cached snapshots.",
			}, func() float64 { _, _, n := cacheStats(); return float64(n) }),
		)
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Save outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeWarning = "warning"
	OutcomeError   = "error"
)

// ObserveSave records one save.
func (m *Metrics) ObserveSave(agency, outcome string, changed, writeFailures, auditFailures int) {
	m.saves.WithLabelValues(agency, outcome).Inc()
	m.rowsChanged.Add(float64(changed))
	m.writeFailures.Add(float64(writeFailures))
	m.auditFailures.Add(float64(auditFailures))
}

// SetSessions updates the live session gauge.
func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}
