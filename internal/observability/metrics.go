package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets   = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	engineDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
	bodySizeBuckets       = []float64{100, 1024, 10240, 102400, 1048576}
	scoreBuckets          = []float64{0, 10, 25, 50, 60, 70, 80, 90, 100}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Validation metrics
	ValidationsTotal   *prometheus.CounterVec
	ValidationScore    prometheus.Histogram
	ValidationDuration prometheus.Histogram

	// Evolution metrics
	EvolutionsTotal        *prometheus.CounterVec
	MigrationsAppliedTotal *prometheus.CounterVec
	EvolutionDuration      prometheus.Histogram
	RollbacksTotal         *prometheus.CounterVec
	LockContentionTotal    prometheus.Counter

	// Backup metrics
	BackupOperationsTotal *prometheus.CounterVec
	BackupsStored         prometheus.Gauge

	// Cache metrics
	CapabilityCacheHitsTotal   prometheus.Counter
	CapabilityCacheMissesTotal prometheus.Counter

	// System metrics
	RulePackReloadTotal *prometheus.CounterVec
	RulesLoaded         prometheus.Gauge
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bosflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bosflow_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bosflow_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Validation
		ValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_validations_total",
			Help: "Total number of step validations.",
		}, []string{"mode", "grade"}),
		ValidationScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bosflow_validation_score",
			Help:    "Distribution of overall validation scores.",
			Buckets: scoreBuckets,
		}),
		ValidationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bosflow_validation_duration_seconds",
			Help:    "Validation engine run duration in seconds.",
			Buckets: engineDurationBuckets,
		}),

		// Evolution
		EvolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_evolutions_total",
			Help: "Total number of evolution executions.",
		}, []string{"outcome"}),
		MigrationsAppliedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_migrations_applied_total",
			Help: "Total number of individual migrations applied.",
		}, []string{"version"}),
		EvolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bosflow_evolution_duration_seconds",
			Help:    "Evolution execution duration in seconds.",
			Buckets: engineDurationBuckets,
		}),
		RollbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_rollbacks_total",
			Help: "Total number of rollback attempts.",
		}, []string{"outcome"}),
		LockContentionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bosflow_lock_contention_total",
			Help: "Total evolutions rejected because the document was locked.",
		}),

		// Backup
		BackupOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_backup_operations_total",
			Help: "Total backup store operations.",
		}, []string{"operation", "outcome"}),
		BackupsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bosflow_backups_stored",
			Help: "Number of backups currently held by the store.",
		}),

		// Cache
		CapabilityCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bosflow_capability_cache_hits_total",
			Help: "Total capability cache hits.",
		}),
		CapabilityCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bosflow_capability_cache_misses_total",
			Help: "Total capability cache misses.",
		}),

		// System
		RulePackReloadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bosflow_rulepack_reload_total",
			Help: "Total rule pack reloads.",
		}, []string{"status"}),
		RulesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bosflow_rules_loaded",
			Help: "Number of loaded validation rules.",
		}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Validation
		m.ValidationsTotal,
		m.ValidationScore,
		m.ValidationDuration,
		// Evolution
		m.EvolutionsTotal,
		m.MigrationsAppliedTotal,
		m.EvolutionDuration,
		m.RollbacksTotal,
		m.LockContentionTotal,
		// Backup
		m.BackupOperationsTotal,
		m.BackupsStored,
		// Cache
		m.CapabilityCacheHitsTotal,
		m.CapabilityCacheMissesTotal,
		// System
		m.RulePackReloadTotal,
		m.RulesLoaded,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordValidation records one validation run.
func (m *Metrics) RecordValidation(mode, grade string, score float64, duration time.Duration) {
	m.ValidationsTotal.WithLabelValues(mode, grade).Inc()
	m.ValidationScore.Observe(score)
	m.ValidationDuration.Observe(duration.Seconds())
}

// RecordEvolution records one evolution execution.
func (m *Metrics) RecordEvolution(outcome string, applied []string, duration time.Duration) {
	m.EvolutionsTotal.WithLabelValues(outcome).Inc()
	m.EvolutionDuration.Observe(duration.Seconds())
	for _, version := range applied {
		m.MigrationsAppliedTotal.WithLabelValues(version).Inc()
	}
}

// RecordRollback records a rollback attempt.
func (m *Metrics) RecordRollback(outcome string) {
	m.RollbacksTotal.WithLabelValues(outcome).Inc()
}

// RecordLockContention records an evolution rejected by the lock.
func (m *Metrics) RecordLockContention() {
	m.LockContentionTotal.Inc()
}

// RecordBackupOperation records a backup store operation.
func (m *Metrics) RecordBackupOperation(operation, outcome string) {
	m.BackupOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// SetBackupsStored sets the number of held backups.
func (m *Metrics) SetBackupsStored(count float64) {
	m.BackupsStored.Set(count)
}

// RecordCapabilityCacheHit records a capability cache hit.
func (m *Metrics) RecordCapabilityCacheHit() {
	m.CapabilityCacheHitsTotal.Inc()
}

// RecordCapabilityCacheMiss records a capability cache miss.
func (m *Metrics) RecordCapabilityCacheMiss() {
	m.CapabilityCacheMissesTotal.Inc()
}

// RecordRulePackReload records a rule pack reload.
func (m *Metrics) RecordRulePackReload(status string) {
	m.RulePackReloadTotal.WithLabelValues(status).Inc()
}

// SetRulesLoaded sets the number of loaded validation rules.
func (m *Metrics) SetRulesLoaded(count float64) {
	m.RulesLoaded.Set(count)
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
