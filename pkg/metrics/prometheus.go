// Package metrics provides Prometheus metrics for the hydromap asset service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by hydromap.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Sync pipeline
	syncRequests      *prometheus.CounterVec
	syncFailures      *prometheus.CounterVec
	syncDuration      prometheus.Histogram
	reconcileDuration prometheus.Histogram
	reconciledRecords *prometheus.CounterVec
	staleCommits      prometheus.Counter

	// Snapshot
	snapshotAssets   *prometheus.GaugeVec
	snapshotVersion  prometheus.Gauge
	snapshotLastUnix prometheus.Gauge

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueEnqueued prometheus.Counter
	queueRejected *prometheus.CounterVec

	// Workers
	workerActive     prometheus.Gauge
	workerProcessing prometheus.Histogram
	workerPanics     prometheus.Counter

	// Filter and telemetry
	filterTransitions *prometheus.CounterVec
	filterIgnored     prometheus.Counter
	samplesRecorded   prometheus.Counter
	sampleWindows     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide metrics manager

// customRegistry keeps the default Go collectors out of the exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hydromap",
		subsystem:        "assets",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
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

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.syncRequests = m.counterVec("sync_requests_total", "Sync requests by trigger", "trigger")
	m.syncFailures = m.counterVec("sync_failures_total", "Failed syncs by reason", "reason")
	m.syncDuration = m.histogram("sync_duration_milliseconds", "End-to-end sync latency in milliseconds")
	m.reconcileDuration = m.histogram("reconcile_duration_milliseconds", "Time spent merging sources in milliseconds")
	m.reconciledRecords = m.counterVec("reconciled_records_total",
		"Records seen by the reconciler by outcome (live, fixture, excluded, shadowed, dropped)", "outcome")
	m.staleCommits = m.counter("stale_commits_total", "Sync results discarded because a newer snapshot was committed")

	m.snapshotAssets = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "snapshot_assets", Help: "Assets in the committed snapshot by type",
	}, []string{"type"})
	m.snapshotVersion = m.gauge("snapshot_version", "Version of the committed snapshot")
	m.snapshotLastUnix = m.gauge("snapshot_last_unixtime", "Unix time of the last committed snapshot")

	m.queueSize = m.gauge("queue_size", "Pending sync jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Sync job queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Sync jobs accepted by the queue")
	m.queueRejected = m.counterVec("queue_rejected_total", "Sync jobs rejected by the queue by reason", "reason")

	m.workerActive = m.gauge("worker_active", "Running reconcile workers")
	m.workerProcessing = m.histogram("worker_processing_milliseconds", "Per-job worker processing time in milliseconds")
	m.workerPanics = m.counter("worker_panics_total", "Jobs that panicked inside the reconciler")

	m.filterTransitions = m.counterVec("filter_transitions_total", "Applied filter state transitions by target state", "state")
	m.filterIgnored = m.counter("filter_ignored_events_total", "Filter events that were not valid in the current state")
	m.samplesRecorded = m.counter("samples_recorded_total", "Telemetry samples pushed into rolling windows")
	m.sampleWindows = m.gauge("sample_windows", "Assets that currently own a rolling sample window")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Live goroutines")
	m.systemGCPause = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// RecordSyncRequest counts a sync attempt started by trigger (manual, interval, message).
func RecordSyncRequest(trigger string) { globalManager.syncRequests.WithLabelValues(trigger).Inc() }

// RecordSyncFailure counts a failed sync.
func RecordSyncFailure(reason string) { globalManager.syncFailures.WithLabelValues(reason).Inc() }

// RecordSyncDuration records end-to-end sync latency.
func RecordSyncDuration(ms float64) { globalManager.syncDuration.Observe(ms) }

// RecordReconcileDuration records merge time inside a worker.
func RecordReconcileDuration(ms float64) { globalManager.reconcileDuration.Observe(ms) }

// RecordReconciled adds n records with the given outcome.
func RecordReconciled(outcome string, n int) {
	if n > 0 {
		globalManager.reconciledRecords.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordStaleCommit counts a discarded out-of-order result.
func RecordStaleCommit() { globalManager.staleCommits.Inc() }

// UpdateSnapshot publishes the committed snapshot's version, time and per-type counts.
func UpdateSnapshot(version uint64, unix int64, byType map[string]int) {
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotLastUnix.Set(float64(unix))
	globalManager.snapshotAssets.Reset()
	for t, n := range byType {
		globalManager.snapshotAssets.WithLabelValues(t).Set(float64(n))
	}
}

// UpdateQueueSize sets the pending job gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected counts a rejected job.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerActive sets the number of running workers.
func UpdateWorkerActive(n int) { globalManager.workerActive.Set(float64(n)) }

// RecordWorkerProcessing records one job's processing time.
func RecordWorkerProcessing(ms float64) { globalManager.workerProcessing.Observe(ms) }

// RecordWorkerPanic counts a recovered worker panic.
func RecordWorkerPanic() { globalManager.workerPanics.Inc() }

// RecordFilterTransition counts an applied transition into state.
func RecordFilterTransition(state string) {
	globalManager.filterTransitions.WithLabelValues(state).Inc()
}

// RecordFilterIgnored counts an event that did not change state.
func RecordFilterIgnored() { globalManager.filterIgnored.Inc() }

// RecordSample counts a pushed telemetry sample.
func RecordSample() { globalManager.samplesRecorded.Inc() }

// UpdateSampleWindows sets the number of live rolling windows.
func UpdateSampleWindows(n int) { globalManager.sampleWindows.Set(float64(n)) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordError counts an error attributed to a component.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemory.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutines.Set(float64(n)) }

// RecordSystemGCPauseTime records an average GC pause sample.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPause.Observe(ms) }

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
