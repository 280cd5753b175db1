package ratelimit

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts limiter decisions. Totals are always tracked with atomics;
// when built with NewPrometheusMetrics the per-identifier breakdown is also
// exported as Prometheus counters.
type Metrics struct {
	allowed  atomic.Int64
	limited  atomic.Int64
	failOpen atomic.Int64

	allowedVec  *prometheus.CounterVec
	limitedVec  *prometheus.CounterVec
	failOpenVec *prometheus.CounterVec
}

// MetricsSnapshot is a point-in-time copy of the limiter totals.
type MetricsSnapshot struct {
	Allowed  int64
	Limited  int64
	FailOpen int64
}

// NewMetrics creates a collector that only tracks in-process totals.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// NewPrometheusMetrics creates a collector that additionally registers
// per-identifier counters with reg. A nil reg uses the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		allowedVec: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_allowed_total",
			Help: "Requests allowed by the rate limiter",
		}, []string{"identifier"}),
		limitedVec: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"identifier"}),
		failOpenVec: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratelimit_fail_open_total",
			Help: "Requests allowed because the counter store failed",
		}, []string{"identifier"}),
	}
}

// RecordAllowed counts one allowed request
func (m *Metrics) RecordAllowed(identifier string) {
	m.allowed.Add(1)
	if m.allowedVec != nil {
		m.allowedVec.WithLabelValues(identifier).Inc()
	}
}

// RecordLimited counts one rejected request
func (m *Metrics) RecordLimited(identifier string) {
	m.limited.Add(1)
	if m.limitedVec != nil {
		m.limitedVec.WithLabelValues(identifier).Inc()
	}
}

// RecordFailOpen counts one request allowed because the store failed
func (m *Metrics) RecordFailOpen(identifier string) {
	m.failOpen.Add(1)
	if m.failOpenVec != nil {
		m.failOpenVec.WithLabelValues(identifier).Inc()
	}
}

// Snapshot returns the current totals
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Allowed:  m.allowed.Load(),
		Limited:  m.limited.Load(),
		FailOpen: m.failOpen.Load(),
	}
}
