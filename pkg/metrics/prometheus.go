// Package metrics provides Prometheus metrics for the playmedia picker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	sizeBuckets      []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsOpened    prometheus.Counter
	sessionsActive    prometheus.Gauge
	sessionsCommitted prometheus.Counter
	sessionsCancelled prometheus.Counter
	sessionsExpired   prometheus.Counter

	// Selection and filtering
	toggles           *prometheus.CounterVec
	facetEvaluations  prometheus.Counter
	visibleCandidates prometheus.Histogram
	committedEntities prometheus.Histogram

	// Data arrival
	refreshes        *prometheus.CounterVec
	refreshDiscarded prometheus.Counter
	fetchLatency     *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec

	// Form store
	formFields prometheus.Gauge
	formWrites *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	memoryBytes prometheus.Gauge
	goroutines  prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "playmedia",
		subsystem:        "picker",
		histogramBuckets: prometheus.DefBuckets,
		sizeBuckets:      []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsOpened = auto.NewCounter(m.counterOpts("sessions_opened_total", "Picker sessions opened"))
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Picker sessions currently open"))
	m.sessionsCommitted = auto.NewCounter(m.counterOpts("sessions_committed_total", "Picker sessions committed back to a form field"))
	m.sessionsCancelled = auto.NewCounter(m.counterOpts("sessions_cancelled_total", "Picker sessions discarded by the editor"))
	m.sessionsExpired = auto.NewCounter(m.counterOpts("sessions_expired_total", "Picker sessions closed by the idle sweeper"))

	m.toggles = auto.NewCounterVec(m.counterOpts("toggles_total", "Selection toggles by result"), []string{"result"})
	m.facetEvaluations = auto.NewCounter(m.counterOpts("facet_evaluations_total", "Visible set recomputations"))
	m.visibleCandidates = auto.NewHistogram(m.histogramOpts("visible_candidates", "Size of the visible set after facet filtering", m.sizeBuckets))
	m.committedEntities = auto.NewHistogram(m.histogramOpts("committed_entities", "Entities committed per session", m.sizeBuckets))

	m.refreshes = auto.NewCounterVec(m.counterOpts("refreshes_total", "Candidate refreshes by result"), []string{"result"})
	m.refreshDiscarded = auto.NewCounter(m.counterOpts("refreshes_discarded_total", "Refresh results dropped because they were stale or late"))
	m.fetchLatency = auto.NewHistogramVec(m.histogramOpts("fetch_latency_seconds", "Content fetch latency by kind", m.histogramBuckets), []string{"kind"})
	m.cacheLookups = auto.NewCounterVec(m.counterOpts("cache_lookups_total", "Content cache lookups by kind and outcome"), []string{"kind", "outcome"})

	m.formFields = auto.NewGauge(m.gaugeOpts("form_fields", "Form fields holding a stored value"))
	m.formWrites = auto.NewCounterVec(m.counterOpts("form_writes_total", "Form field writes by operation"), []string{"op"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_seconds", "HTTP request duration", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total", "Errors by component and type"), []string{"component", "type"})

	m.memoryBytes = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.goroutines = auto.NewGauge(m.gaugeOpts("system_goroutines", "Live goroutines"))
}

// RecordSessionOpened counts an opened session.
func RecordSessionOpened() {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsOpened.Inc()
}

// UpdateSessionsActive sets the open session gauge.
func UpdateSessionsActive(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsActive.Set(float64(n))
}

// RecordSessionCommitted counts a commit and the size of its payload.
func RecordSessionCommitted(entities int) {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsCommitted.Inc()
	globalManager.committedEntities.Observe(float64(entities))
}

// RecordSessionCancelled counts a discarded session.
func RecordSessionCancelled() {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsCancelled.Inc()
}

// RecordSessionExpired counts a session closed by the sweeper.
func RecordSessionExpired() {
	if !globalManager.enabled {
		return
	}
	globalManager.sessionsExpired.Inc()
}

// RecordToggle counts a toggle as accepted or rejected.
func RecordToggle(accepted bool) {
	if !globalManager.enabled {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	globalManager.toggles.WithLabelValues(result).Inc()
}

// RecordFacetEvaluation counts a visible set recomputation and its size.
func RecordFacetEvaluation(visible int) {
	if !globalManager.enabled {
		return
	}
	globalManager.facetEvaluations.Inc()
	globalManager.visibleCandidates.Observe(float64(visible))
}

// RecordRefresh counts a refresh by result: "ok", "error" or "discarded".
func RecordRefresh(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.refreshes.WithLabelValues(result).Inc()
	if result == "discarded" {
		globalManager.refreshDiscarded.Inc()
	}
}

// RecordFetchLatency observes the latency of a content fetch in seconds.
func RecordFetchLatency(kind string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.fetchLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordCacheLookup counts a cache lookup; outcome is "hit", "miss" or "error".
func RecordCacheLookup(kind, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheLookups.WithLabelValues(kind, outcome).Inc()
}

// UpdateFormFields sets the number of stored form fields.
func UpdateFormFields(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.formFields.Set(float64(n))
}

// RecordFormWrite counts a form field write ("set" or "append").
func RecordFormWrite(op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.formWrites.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration in seconds.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.memoryBytes.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of live goroutines.
func UpdateSystemGoroutineCount(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.goroutines.Set(float64(n))
}

// SetEnabled turns recording on or off for the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
