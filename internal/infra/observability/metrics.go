package observability

import (
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the insights API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	factsProcessed  *prometheus.CounterVec
	reportsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		factsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_booking_facts_total",
				Help: "Booking facts consumed or dropped by the normalizer.",
			},
			[]string{"outcome"},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_reports_total",
				Help: "Total insight reports built.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordFacts records how many raw facts made it into a report and how many
// the normalizer dropped.
func (m *Metrics) RecordFacts(consumed, dropped int) {
	m.factsProcessed.WithLabelValues("consumed").Add(float64(consumed))
	m.factsProcessed.WithLabelValues("dropped").Add(float64(dropped))
}

// IncrReport increments the report counter with a status label.
func (m *Metrics) IncrReport(status string) {
	m.reportsTotal.WithLabelValues(status).Inc()
}

// GetEngineSnapshot returns a snapshot of engine-related metrics suitable
// for the GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	built := getCounterValue(m.reportsTotal, "success")
	failed := getCounterValue(m.reportsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "report")
	cacheMisses := getCounterValue(m.cacheMisses, "report")
	consumed := getCounterValue(m.factsProcessed, "consumed")
	dropped := getCounterValue(m.factsProcessed, "dropped")

	errorRate := float64(0)
	if built+failed > 0 {
		errorRate = failed / (built + failed)
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		ReportsBuilt:  int64(built),
		ErrorRate:     errorRate,
		CacheHitRate:  cacheHitRate,
		FactsConsumed: int64(consumed),
		FactsDropped:  int64(dropped),
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
