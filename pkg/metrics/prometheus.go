// Package metrics provides Prometheus metrics for the SparkApply swipe service.
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
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Swipe metrics
	decisions        *prometheus.CounterVec
	decisionsDropped prometheus.Counter
	gestures         *prometheus.CounterVec
	duplicates       prometheus.Counter

	// Session metrics
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsEvicted prometheus.Counter
	wsConnections   prometheus.Gauge

	// Submission pipeline metrics
	tailoringLatency prometheus.Histogram
	tailoringErrors  prometheus.Counter
	applications     *prometheus.GaugeVec
	passes           prometheus.Counter

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spark",
		subsystem:        "swipe",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 80, 100, 150, 250, 500, 1000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.decisions = m.counterVec("decisions_total", "Resolved swipe decisions by direction", "direction")
	m.decisionsDropped = m.counter("decisions_dropped_total", "Decisions dropped because the submission queue refused them")
	m.gestures = m.counterVec("gestures_total", "Finished pointer interactions by outcome (resolved, reset, abandoned)", "outcome")
	m.duplicates = m.counter("duplicate_requests_total", "Swipe requests ignored because their request id was already seen")

	m.sessionsActive = m.gauge("sessions_active", "Swipe sessions currently open")
	m.sessionsCreated = m.counter("sessions_created_total", "Swipe sessions created")
	m.sessionsEvicted = m.counter("sessions_evicted_total", "Swipe sessions closed for inactivity")
	m.wsConnections = m.gauge("ws_connections", "Open websocket connections")

	m.tailoringLatency = m.histogram("tailoring_latency_milliseconds", "Latency of the CV tailoring step", m.histogramBuckets)
	m.tailoringErrors = m.counter("tailoring_errors_total", "Failed CV tailoring attempts")
	m.applications = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "applications", Help: "Tracked applications by status", ConstLabels: m.constLabels,
	}, []string{"status"})
	m.passes = m.counter("passes_total", "Postings passed on")

	m.queueSize = m.gauge("queue_size", "Decisions waiting in the submission queue")
	m.queueCapacity = m.gauge("queue_capacity", "Submission queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Submission queue fill ratio (0-1)")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Decisions enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Decisions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts refused (full, closed or cancelled)")

	m.workerCount = m.gauge("worker_count", "Submission workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to process one decision", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Decisions that failed processing")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// RecordDecision counts a resolved decision.
func RecordDecision(direction string) {
	globalManager.decisions.WithLabelValues(direction).Inc()
}

// RecordDecisionDropped counts a decision the queue refused.
func RecordDecisionDropped() {
	globalManager.decisionsDropped.Inc()
}

// RecordGesture counts a finished pointer interaction by outcome.
func RecordGesture(outcome string) {
	globalManager.gestures.WithLabelValues(outcome).Inc()
}

// RecordDuplicateRequest counts a deduplicated swipe request.
func RecordDuplicateRequest() {
	globalManager.duplicates.Inc()
}

// UpdateSessionsActive sets the open session count.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionEvicted counts an idle-evicted session.
func RecordSessionEvicted() {
	globalManager.sessionsEvicted.Inc()
}

// AddWSConnections moves the open websocket gauge by delta.
func AddWSConnections(delta int) {
	globalManager.wsConnections.Add(float64(delta))
}

// RecordTailoringLatency records tailoring latency in milliseconds.
func RecordTailoringLatency(latencyMs float64) {
	globalManager.tailoringLatency.Observe(latencyMs)
}

// RecordTailoringError counts a failed tailoring attempt.
func RecordTailoringError() {
	globalManager.tailoringErrors.Inc()
}

// UpdateApplications sets the tracked application count for a status.
func UpdateApplications(status string, count int) {
	globalManager.applications.WithLabelValues(status).Set(float64(count))
}

// RecordPass counts a passed posting.
func RecordPass() {
	globalManager.passes.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap allocation in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
