// Package metrics provides functionality for collecting and reporting
// state-service performance metrics.
package metrics

import (
	"sync/atomic"
	"time"
)

// ServiceMetrics represents metrics for one state service instance
type ServiceMetrics struct {
	Size              atomic.Int64
	Hits              atomic.Int64
	Misses            atomic.Int64
	Sets              atomic.Int64
	Removes           atomic.Int64
	Evictions         atomic.Int64
	Notifications     atomic.Int64
	BatchFlushes      atomic.Int64
	LastOperationTime atomic.Value // time.Time
}

// Snapshot is a thread-safe copy of metrics
type Snapshot struct {
	Size              int64
	Hits              int64
	Misses            int64
	Sets              int64
	Removes           int64
	Evictions         int64
	Notifications     int64
	BatchFlushes      int64
	LastOperationTime time.Time
}

// Exporter defines the interface for metrics exporters
type Exporter interface {
	// RecordHit records a cache hit
	RecordHit()
	// RecordMiss records a cache miss
	RecordMiss()
	// RecordSet records a write
	RecordSet()
	// RecordRemove records a removal
	RecordRemove()
	// RecordEviction records a cache eviction
	RecordEviction()
	// RecordNotification records a listener notification
	RecordNotification()
	// RecordBatchFlush records one deduplicated batch flush
	RecordBatchFlush()
	// UpdateSize updates the current cache size
	UpdateSize(size int64)
	// GetSnapshot returns a thread-safe copy of current metrics
	GetSnapshot() Snapshot
	// Reset resets all metrics to zero
	Reset()
}

// NewServiceMetrics creates a new standard metrics exporter
func NewServiceMetrics() *ServiceMetrics {
	m := &ServiceMetrics{}
	m.LastOperationTime.Store(time.Time{})
	return m
}

// RecordHit implements Exporter
func (m *ServiceMetrics) RecordHit() {
	m.Hits.Add(1)
	m.LastOperationTime.Store(time.Now())
}

// RecordMiss implements Exporter
func (m *ServiceMetrics) RecordMiss() {
	m.Misses.Add(1)
	m.LastOperationTime.Store(time.Now())
}

// RecordSet implements Exporter
func (m *ServiceMetrics) RecordSet() {
	m.Sets.Add(1)
	m.LastOperationTime.Store(time.Now())
}

// RecordRemove implements Exporter
func (m *ServiceMetrics) RecordRemove() {
	m.Removes.Add(1)
	m.LastOperationTime.Store(time.Now())
}

// RecordEviction implements Exporter
func (m *ServiceMetrics) RecordEviction() {
	m.Evictions.Add(1)
}

// RecordNotification implements Exporter
func (m *ServiceMetrics) RecordNotification() {
	m.Notifications.Add(1)
}

// RecordBatchFlush implements Exporter
func (m *ServiceMetrics) RecordBatchFlush() {
	m.BatchFlushes.Add(1)
}

// UpdateSize implements Exporter
func (m *ServiceMetrics) UpdateSize(size int64) {
	m.Size.Store(size)
}

// GetSnapshot implements Exporter
func (m *ServiceMetrics) GetSnapshot() Snapshot {
	last, _ := m.LastOperationTime.Load().(time.Time)
	return Snapshot{
		Size:              m.Size.Load(),
		Hits:              m.Hits.Load(),
		Misses:            m.Misses.Load(),
		Sets:              m.Sets.Load(),
		Removes:           m.Removes.Load(),
		Evictions:         m.Evictions.Load(),
		Notifications:     m.Notifications.Load(),
		BatchFlushes:      m.BatchFlushes.Load(),
		LastOperationTime: last,
	}
}

// Reset implements Exporter
func (m *ServiceMetrics) Reset() {
	m.Size.Store(0)
	m.Hits.Store(0)
	m.Misses.Store(0)
	m.Sets.Store(0)
	m.Removes.Store(0)
	m.Evictions.Store(0)
	m.Notifications.Store(0)
	m.BatchFlushes.Store(0)
	m.LastOperationTime.Store(time.Time{})
}
