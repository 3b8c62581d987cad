// Package metrics provides Prometheus metrics for the assessment service.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup outcomes.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Assessment metrics
	assessments           *prometheus.CounterVec
	fallbacks             *prometheus.CounterVec
	classificationLatency *prometheus.HistogramVec
	incompleteSubmissions *prometheus.CounterVec
	batchSize             prometheus.Histogram
	catalogDefinitions    prometheus.Gauge

	// Share metrics
	shareEncodes        *prometheus.CounterVec
	shareOpens          *prometheus.CounterVec
	shareDecodeFailures *prometheus.CounterVec
	shareCacheRequests  *prometheus.CounterVec
	shareCacheEntries   prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "assess",
		subsystem:        "engine",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessments = m.counterVec("assessments_total", "Completed assessments by test and result kind", "test", "kind")
	m.fallbacks = m.counterVec("fallbacks_total", "Catalog gaps bridged during classification", "test", "reason")
	m.incompleteSubmissions = m.counterVec("incomplete_submissions_total", "Submissions rejected for unanswered questions", "test")
	m.classificationLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "classification_latency_milliseconds",
		Help:        "Time spent scoring and classifying one submission",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"test"})
	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batch_size",
		Help:        "Submissions per batch request",
		Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		ConstLabels: m.customLabels,
	})
	m.catalogDefinitions = m.gauge("catalog_definitions", "Test definitions currently loaded")

	m.shareEncodes = m.counterVec("share_encodes_total", "Share tokens issued", "test")
	m.shareOpens = m.counterVec("share_opens_total", "Share tokens opened", "test")
	m.shareDecodeFailures = m.counterVec("share_decode_failures_total", "Share tokens that could not be opened", "reason")
	m.shareCacheRequests = m.counterVec("share_cache_requests_total", "Share cache lookups", "result")
	m.shareCacheEntries = m.gauge("share_cache_entries", "Entries held by the share cache")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and error code",
		"endpoint", "method", "error_type")
}

// RecordAssessment counts a completed assessment.
func (m *Manager) RecordAssessment(test, kind string) {
	if m.enabled {
		m.assessments.WithLabelValues(test, kind).Inc()
	}
}

// RecordFallback counts a bridged catalog gap.
func (m *Manager) RecordFallback(test, reason string) {
	if m.enabled {
		m.fallbacks.WithLabelValues(test, reason).Inc()
	}
}

// RecordClassificationLatency observes scoring plus classification time.
func (m *Manager) RecordClassificationLatency(test string, latencyMs float64) {
	if m.enabled {
		m.classificationLatency.WithLabelValues(test).Observe(latencyMs)
	}
}

// RecordIncompleteSubmission counts a submission with unanswered questions.
func (m *Manager) RecordIncompleteSubmission(test string) {
	if m.enabled {
		m.incompleteSubmissions.WithLabelValues(test).Inc()
	}
}

// RecordBatchSize observes the number of submissions in one batch.
func (m *Manager) RecordBatchSize(size int) {
	if m.enabled {
		m.batchSize.Observe(float64(size))
	}
}

// UpdateCatalogDefinitions sets the loaded definition count.
func (m *Manager) UpdateCatalogDefinitions(count int) {
	if m.enabled {
		m.catalogDefinitions.Set(float64(count))
	}
}

// RecordShareEncode counts an issued token.
func (m *Manager) RecordShareEncode(test string) {
	if m.enabled {
		m.shareEncodes.WithLabelValues(test).Inc()
	}
}

// RecordShareOpen counts an opened token.
func (m *Manager) RecordShareOpen(test string) {
	if m.enabled {
		m.shareOpens.WithLabelValues(test).Inc()
	}
}

// RecordShareDecodeFailure counts a token that could not be opened.
func (m *Manager) RecordShareDecodeFailure(reason string) {
	if m.enabled {
		m.shareDecodeFailures.WithLabelValues(reason).Inc()
	}
}

// RecordShareCache counts a cache lookup as CacheHit or CacheMiss.
func (m *Manager) RecordShareCache(result string) {
	if m.enabled {
		m.shareCacheRequests.WithLabelValues(result).Inc()
	}
}

// UpdateShareCacheEntries sets the share cache size.
func (m *Manager) UpdateShareCacheEntries(count int) {
	if m.enabled {
		m.shareCacheEntries.Set(float64(count))
	}
}

// RecordHTTPRequest records an HTTP request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError records an error response.
func (m *Manager) RecordHTTPError(endpoint, method, errorType string) {
	if m.enabled {
		m.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// Global helpers delegate to the process-wide manager.

func RecordAssessment(test, kind string)     { globalManager.RecordAssessment(test, kind) }
func RecordFallback(test, reason string)     { globalManager.RecordFallback(test, reason) }
func RecordIncompleteSubmission(test string) { globalManager.RecordIncompleteSubmission(test) }
func RecordBatchSize(size int)               { globalManager.RecordBatchSize(size) }
func UpdateCatalogDefinitions(count int)     { globalManager.UpdateCatalogDefinitions(count) }
func RecordShareEncode(test string)          { globalManager.RecordShareEncode(test) }
func RecordShareOpen(test string)            { globalManager.RecordShareOpen(test) }
func RecordShareDecodeFailure(reason string) { globalManager.RecordShareDecodeFailure(reason) }
func RecordShareCache(result string)         { globalManager.RecordShareCache(result) }
func UpdateShareCacheEntries(count int)      { globalManager.UpdateShareCacheEntries(count) }
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.RecordHTTPError(endpoint, method, errorType)
}

func RecordClassificationLatency(test string, latencyMs float64) {
	globalManager.RecordClassificationLatency(test, latencyMs)
}

func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// Default returns the process-wide manager.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors to
// the custom registry. Repeated calls are no-ops.
func RegisterRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := customRegistry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
