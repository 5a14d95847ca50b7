// Package metrics provides Prometheus metrics for the counter registry service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the counter registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Registry state
	countersTotal     prometheus.Gauge
	counterOperations *prometheus.CounterVec
	counterIncrements prometheus.Counter

	// Store internals
	storeShardCount       prometheus.Gauge
	storeRecordsPerShard  *prometheus.GaugeVec
	storeOperationLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "counters",
		subsystem:        "registry",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.countersTotal = auto.NewGauge(m.gaugeOpts("counters_total", "Number of live counters in the registry"))
	m.counterOperations = auto.NewCounterVec(
		m.counterOpts("counter_operations_total", "Counter operations by operation and result"),
		[]string{"op", "result"},
	)
	m.counterIncrements = auto.NewCounter(m.counterOpts("counter_increments_total", "Total number of applied increments"))

	m.storeShardCount = auto.NewGauge(m.gaugeOpts("store_shard_count", "Number of lock shards in the counter store"))
	m.storeRecordsPerShard = auto.NewGaugeVec(
		m.gaugeOpts("store_records_per_shard", "Number of counters held by each shard"),
		[]string{"shard"},
	)
	m.storeOperationLatency = auto.NewHistogramVec(
		m.histogramOpts("store_operation_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordOperation counts a counter operation outcome (op: create/read/update/delete/list).
func (m *Manager) RecordOperation(op, result string) {
	if !m.enabled {
		return
	}
	m.counterOperations.WithLabelValues(op, result).Inc()
}

// RecordIncrement counts one applied increment.
func (m *Manager) RecordIncrement() {
	if !m.enabled {
		return
	}
	m.counterIncrements.Inc()
}

// UpdateCountersTotal sets the live counter gauge.
func (m *Manager) UpdateCountersTotal(count int) {
	if !m.enabled {
		return
	}
	m.countersTotal.Set(float64(count))
}

// UpdateStoreShardCount sets the shard count gauge.
func (m *Manager) UpdateStoreShardCount(count int) {
	if !m.enabled {
		return
	}
	m.storeShardCount.Set(float64(count))
}

// UpdateStoreRecordsPerShard sets the record gauge for a shard.
func (m *Manager) UpdateStoreRecordsPerShard(shardID string, count int) {
	if !m.enabled {
		return
	}
	m.storeRecordsPerShard.WithLabelValues(shardID).Set(float64(count))
}

// RecordStoreLatency observes a store operation latency in milliseconds.
func (m *Manager) RecordStoreLatency(op string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.storeOperationLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func (m *Manager) RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByType counts an error by type and severity.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error by endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the memory gauge.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if !m.enabled {
		return
	}
	m.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes an average GC pause in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemGCPauseTime.Observe(pauseMs)
}

// Package-level helpers operating on the global manager.

// RecordOperation counts a counter operation outcome.
func RecordOperation(op, result string) { globalManager.RecordOperation(op, result) }

// RecordIncrement counts one applied increment.
func RecordIncrement() { globalManager.RecordIncrement() }

// UpdateCountersTotal sets the live counter gauge.
func UpdateCountersTotal(count int) { globalManager.UpdateCountersTotal(count) }

// UpdateStoreShardCount sets the shard count gauge.
func UpdateStoreShardCount(count int) { globalManager.UpdateStoreShardCount(count) }

// UpdateStoreRecordsPerShard sets the record gauge for a shard.
func UpdateStoreRecordsPerShard(shardID string, count int) {
	globalManager.UpdateStoreRecordsPerShard(shardID, count)
}

// RecordStoreLatency observes a store operation latency.
func RecordStoreLatency(op string, latencyMs float64) { globalManager.RecordStoreLatency(op, latencyMs) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode)
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequestDuration(endpoint, method, statusCode, durationMs)
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) { globalManager.RecordErrorByType(errorType, severity) }

// RecordErrorByEndpoint counts an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// UpdateSystemMemoryUsage sets the memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
