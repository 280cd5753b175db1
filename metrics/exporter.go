package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ExporterType defines the type of metrics exporter
type ExporterType string

const (
	// StandardExporter uses the default atomics-based implementation
	StandardExporter ExporterType = "standard"
	// PrometheusExporterType uses Prometheus metrics
	PrometheusExporterType ExporterType = "prometheus"
)

// PrometheusExporter implements Exporter using Prometheus metrics
type PrometheusExporter struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	sets          *prometheus.CounterVec
	removes       *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	notifications *prometheus.CounterVec
	batchFlushes  *prometheus.CounterVec
	size          *prometheus.GaugeVec

	// Internal counters for snapshots; Prometheus counters cannot be read back
	internal ServiceMetrics

	labels map[string]string
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
// A nil registerer falls back to the default registry.
func NewPrometheusExporter(serviceName string, labels map[string]string, reg prometheus.Registerer) *PrometheusExporter {
	// Copy so the caller's map is never modified.
	merged := make(map[string]string, len(labels)+2)
	for k, v := range labels {
		merged[k] = v
	}
	if _, exists := merged["service"]; !exists {
		merged["service"] = "statekit"
	}
	merged["store"] = serviceName
	labels = merged

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	labelNames := []string{"service", "store"}
	e := &PrometheusExporter{labels: labels}

	e.hits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_hits_total",
			Help: "Total number of cache hits",
		},
		labelNames,
	)
	e.misses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_misses_total",
			Help: "Total number of cache misses",
		},
		labelNames,
	)
	e.sets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_sets_total",
			Help: "Total number of writes",
		},
		labelNames,
	)
	e.removes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_removes_total",
			Help: "Total number of removals",
		},
		labelNames,
	)
	e.evictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_evictions_total",
			Help: "Total number of cache evictions",
		},
		labelNames,
	)
	e.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_notifications_total",
			Help: "Total number of listener notifications",
		},
		labelNames,
	)
	e.batchFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statekit_batch_flushes_total",
			Help: "Total number of deduplicated batch notification flushes",
		},
		labelNames,
	)
	e.size = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "statekit_cache_size",
			Help: "Current number of entries in the read cache",
		},
		labelNames,
	)

	reg.MustRegister(
		e.hits,
		e.misses,
		e.sets,
		e.removes,
		e.evictions,
		e.notifications,
		e.batchFlushes,
		e.size,
	)

	return e
}

// RecordHit implements Exporter
func (e *PrometheusExporter) RecordHit() {
	e.hits.With(e.labels).Inc()
	e.internal.RecordHit()
}

// RecordMiss implements Exporter
func (e *PrometheusExporter) RecordMiss() {
	e.misses.With(e.labels).Inc()
	e.internal.RecordMiss()
}

// RecordSet implements Exporter
func (e *PrometheusExporter) RecordSet() {
	e.sets.With(e.labels).Inc()
	e.internal.RecordSet()
}

// RecordRemove implements Exporter
func (e *PrometheusExporter) RecordRemove() {
	e.removes.With(e.labels).Inc()
	e.internal.RecordRemove()
}

// RecordEviction implements Exporter
func (e *PrometheusExporter) RecordEviction() {
	e.evictions.With(e.labels).Inc()
	e.internal.RecordEviction()
}

// RecordNotification implements Exporter
func (e *PrometheusExporter) RecordNotification() {
	e.notifications.With(e.labels).Inc()
	e.internal.RecordNotification()
}

// RecordBatchFlush implements Exporter
func (e *PrometheusExporter) RecordBatchFlush() {
	e.batchFlushes.With(e.labels).Inc()
	e.internal.RecordBatchFlush()
}

// UpdateSize implements Exporter
func (e *PrometheusExporter) UpdateSize(size int64) {
	e.size.With(e.labels).Set(float64(size))
	e.internal.UpdateSize(size)
}

// GetSnapshot implements Exporter
func (e *PrometheusExporter) GetSnapshot() Snapshot {
	return e.internal.GetSnapshot()
}

// Reset implements Exporter.
// Prometheus series are cumulative and are not reset.
func (e *PrometheusExporter) Reset() {
	e.internal.Reset()
}

// Config defines the configuration for metrics
type Config struct {
	// ExporterType specifies the type of metrics exporter to use
	ExporterType ExporterType
	// ServiceName is used as a label for Prometheus metrics
	ServiceName string
	// Labels are additional labels to be added to metrics
	Labels map[string]string
	// Registerer is the Prometheus registerer to register metrics with
	// (nil means the default registry)
	Registerer prometheus.Registerer
}

// NewExporter creates a new metrics exporter based on the specified type
func NewExporter(cfg Config) Exporter {
	switch cfg.ExporterType {
	case PrometheusExporterType:
		return NewPrometheusExporter(cfg.ServiceName, cfg.Labels, cfg.Registerer)
	default:
		return NewServiceMetrics()
	}
}

// ensure the interface is satisfied at compile time
var (
	_ Exporter = (*ServiceMetrics)(nil)
	_ Exporter = (*PrometheusExporter)(nil)
)
