package obs

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks application metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests      prometheus.Counter
	cacheHits     prometheus.Counter
	runs          prometheus.Counter
	upstreamCalls prometheus.Counter
	upstreamErrs  prometheus.Counter
	skippedOffers prometheus.Counter
	runDuration   prometheus.Histogram
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounter(prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Total number of API requests",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of result cache hits",
		}),
		runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "runs_total",
			Help: "Total number of multi-search runs started",
		}),
		upstreamCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Total number of upstream availability calls issued",
		}),
		upstreamErrs: factory.NewCounter(prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Total number of failed upstream availability calls",
		}),
		skippedOffers: factory.NewCounter(prometheus.CounterOpts{
			Name: "skipped_offers_total",
			Help: "Total number of room offers skipped for unparsable prices",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "run_duration_seconds",
			Help:    "Duration of multi-search runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncRequests increments the API request counter.
func (m *Metrics) IncRequests() {
	m.requests.Inc()
}

// IncCacheHits increments the cache hits counter.
func (m *Metrics) IncCacheHits() {
	m.cacheHits.Inc()
}

// IncRuns increments the started-runs counter.
func (m *Metrics) IncRuns() {
	m.runs.Inc()
}

// IncUpstreamCalls increments the upstream call counter.
func (m *Metrics) IncUpstreamCalls() {
	m.upstreamCalls.Inc()
}

// IncUpstreamErrors increments the upstream error counter.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrs.Inc()
}

// AddSkippedOffers records offers dropped for unparsable prices.
func (m *Metrics) AddSkippedOffers(n int) {
	m.skippedOffers.Add(float64(n))
}

// ObserveRunDuration records a completed run's duration in seconds.
func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.runDuration.Observe(seconds)
}

// MetricsHandler returns the Prometheus exposition handler for /metrics.
func (m *Metrics) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}
