// Package observability exposes Prometheus metrics for search and ingestion.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. Each instance owns its registry so tests and
// multiple engines do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal    *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	RelaxationsTotal *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	IngestRuns       *prometheus.CounterVec
	IngestDuration   prometheus.Histogram
	RecordsLoaded    prometheus.Gauge
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_searches_total",
			Help: "Searches served, by terminal state",
		}, []string{"state"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrine_search_duration_seconds",
			Help:    "Search latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		RelaxationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_relaxations_total",
			Help: "Constraints relaxed by the fallback controller, by token",
		}, []string{"token"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_cache_requests_total",
			Help: "Response cache lookups, by result",
		}, []string{"result"}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_ingest_runs_total",
			Help: "Ingestion runs, by result",
		}, []string{"result"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vitrine_ingest_duration_seconds",
			Help:    "Ingestion run duration",
			Buckets: prometheus.DefBuckets,
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vitrine_records_loaded",
			Help: "Records in the active snapshot",
		}),
	}
	m.registry.MustRegister(
		m.SearchesTotal,
		m.SearchDuration,
		m.RelaxationsTotal,
		m.CacheRequests,
		m.IngestRuns,
		m.IngestDuration,
		m.RecordsLoaded,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(state string, relaxations []string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(state).Inc()
	m.SearchDuration.Observe(elapsed.Seconds())
	for _, token := range relaxations {
		m.RelaxationsTotal.WithLabelValues(token).Inc()
	}
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// ObserveIngest records one ingestion run.
func (m *Metrics) ObserveIngest(success bool, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IngestDuration.Observe(elapsed.Seconds())
	if !success {
		m.IngestRuns.WithLabelValues("failure").Inc()
		return
	}
	m.IngestRuns.WithLabelValues("success").Inc()
	m.RecordsLoaded.Set(float64(records))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
