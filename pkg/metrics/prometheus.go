// Package metrics provides Prometheus metrics for the TCD service.
package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Valuation
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	payrollRatio       prometheus.Histogram
	ceilingHits        prometheus.Counter
	gamingFlags        prometheus.Counter
	gamingPenalty      prometheus.Histogram
	inputCorrections   *prometheus.CounterVec
	confidenceSamples  prometheus.Counter
	confidenceDuration prometheus.Histogram

	// Batch scoring
	assessments   *prometheus.CounterVec
	resultsStored prometheus.Gauge

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejections  *prometheus.CounterVec

	// Workers
	workersActive   prometheus.Gauge
	workerLatency   prometheus.Histogram
	workerErrors    prometheus.Counter
	workerProcessed prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Audit and errors
	auditWrites *prometheus.CounterVec
	errors      *prometheus.CounterVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tcd",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.evaluations = auto.NewCounterVec(m.counterOpts("evaluations_total",
		"Evaluations by operation and outcome"), []string{"operation", "outcome"})
	m.evaluationDuration = auto.NewHistogramVec(m.histogramOpts("evaluation_duration_seconds",
		"Evaluation latency by operation", nil), []string{"operation"})
	m.payrollRatio = auto.NewHistogram(m.histogramOpts("payroll_ratio",
		"Total cost of dysfunction as a multiple of payroll", prometheus.LinearBuckets(0, 0.25, 15)))
	m.ceilingHits = auto.NewCounter(m.counterOpts("ceiling_hits_total",
		"Evaluations capped at the payroll ceiling"))
	m.gamingFlags = auto.NewCounter(m.counterOpts("gaming_flags_total",
		"Evaluations whose driver scores triggered the gaming penalty"))
	m.gamingPenalty = auto.NewHistogram(m.histogramOpts("gaming_penalty",
		"Applied gaming penalty multiplier", prometheus.LinearBuckets(1, 0.05, 11)))
	m.inputCorrections = auto.NewCounterVec(m.counterOpts("input_corrections_total",
		"Inputs clamped into their valid domain"), []string{"field"})
	m.confidenceSamples = auto.NewCounter(m.counterOpts("confidence_samples_total",
		"Monte Carlo trials evaluated"))
	m.confidenceDuration = auto.NewHistogram(m.histogramOpts("confidence_duration_seconds",
		"Confidence interval estimation latency", prometheus.ExponentialBuckets(0.001, 2, 14)))

	m.assessments = auto.NewCounterVec(m.counterOpts("assessments_total",
		"Batch assessments by status"), []string{"status"})
	m.resultsStored = auto.NewGauge(m.gaugeOpts("results_stored",
		"Assessment records held in the result store"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Assessments waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size over capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Assessments enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Assessments dequeued"))
	m.queueRejections = auto.NewCounterVec(m.counterOpts("queue_rejections_total",
		"Enqueue attempts rejected by reason"), []string{"reason"})

	m.workersActive = auto.NewGauge(m.gaugeOpts("workers_active", "Running workers"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_seconds",
		"Time a worker spends on one assessment", nil))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Assessments a worker failed to score"))
	m.workerProcessed = auto.NewCounter(m.counterOpts("worker_processed_total", "Assessments a worker scored"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_seconds",
		"HTTP request latency", nil), []string{"endpoint", "method", "status_code"})

	m.auditWrites = auto.NewCounterVec(m.counterOpts("audit_writes_total",
		"Audit sink writes by sink and outcome"), []string{"sink", "outcome"})
	m.errors = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.systemMemory = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes in use"))
	m.systemGoroutines = auto.NewGauge(m.gaugeOpts("system_goroutines", "Running goroutines"))
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordEvaluation counts one evaluation and observes its latency.
func RecordEvaluation(operation, outcome string, seconds float64) {
	if !on() {
		return
	}
	globalManager.evaluations.WithLabelValues(operation, outcome).Inc()
	globalManager.evaluationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordValuation observes the shape of a successful evaluation.
func RecordValuation(payrollRatio float64, capped, gamingFlagged bool, gamingPenalty float64) {
	if !on() {
		return
	}
	globalManager.payrollRatio.Observe(payrollRatio)
	globalManager.gamingPenalty.Observe(gamingPenalty)
	if capped {
		globalManager.ceilingHits.Inc()
	}
	if gamingFlagged {
		globalManager.gamingFlags.Inc()
	}
}

// RecordInputCorrection counts one clamped input field.
func RecordInputCorrection(field string) {
	if on() {
		globalManager.inputCorrections.WithLabelValues(field).Inc()
	}
}

// RecordConfidenceRun records a Monte Carlo estimate.
func RecordConfidenceRun(samples int, seconds float64) {
	if !on() {
		return
	}
	globalManager.confidenceSamples.Add(float64(samples))
	globalManager.confidenceDuration.Observe(seconds)
}

// RecordAssessment counts a batch assessment transition.
func RecordAssessment(status string) {
	if on() {
		globalManager.assessments.WithLabelValues(status).Inc()
	}
}

// UpdateResultsStored sets the result store size.
func UpdateResultsStored(n int) {
	if on() {
		globalManager.resultsStored.Set(float64(n))
	}
}

// UpdateQueueSize sets the queue depth.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets size/capacity.
func UpdateQueueUtilization(utilization float64) {
	if on() {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue counts an accepted enqueue.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue counts a delivered item.
func RecordQueueDequeue() {
	if on() {
		globalManager.queueDequeued.Inc()
	}
}

// RecordQueueRejection counts a refused enqueue.
func RecordQueueRejection(reason string) {
	if on() {
		globalManager.queueRejections.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkersActive sets the number of running workers.
func UpdateWorkersActive(n int) {
	if on() {
		globalManager.workersActive.Set(float64(n))
	}
}

// RecordWorkerProcessed records one assessment handled by a worker.
func RecordWorkerProcessed(seconds float64, failed bool) {
	if !on() {
		return
	}
	globalManager.workerLatency.Observe(seconds)
	if failed {
		globalManager.workerErrors.Inc()
		return
	}
	globalManager.workerProcessed.Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, statusCode string, seconds float64) {
	if !on() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}

// RecordAuditWrite counts one audit sink write.
func RecordAuditWrite(sink, outcome string) {
	if on() {
		globalManager.auditWrites.WithLabelValues(sink, outcome).Inc()
	}
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	if on() {
		globalManager.errors.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMetrics samples heap and goroutine gauges.
func UpdateSystemMetrics() {
	if !on() {
		return
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemory.Set(float64(ms.HeapAlloc))
	globalManager.systemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
