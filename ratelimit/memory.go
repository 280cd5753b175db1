package ratelimit

import (
	"context"
	"sync"
	"time"
)

// windowEntry tracks one counter's current fixed window.
type windowEntry struct {
	count    int64
	start    time.Time
	window   time.Duration
	lastSeen time.Time
}

// MemoryStore is an in-process CounterStore. Suitable for single-instance
// deployments; counters are not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time

	sweepInterval time.Duration
	stopJanitor   chan struct{}
	closeOnce     sync.Once
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the store's clock. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSweepInterval sets how often the janitor scans for stale counters.
// A non-positive interval disables the janitor.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.sweepInterval = interval
	}
}

// NewMemoryStore creates an in-process counter store. A background janitor
// drops counters that have been idle for more than twice their window, so
// one-off clients do not accumulate forever.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries:       make(map[string]*windowEntry),
		now:           time.Now,
		sweepInterval: time.Minute,
		stopJanitor:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sweepInterval > 0 {
		go m.janitor()
	}
	return m
}

// Increment counts one request for key within its current fixed window.
func (m *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	// The window is over at its reset instant: an increment arriving exactly
	// at start+window lands in a fresh window, matching the reported reset.
	if !ok || now.Sub(e.start) >= window {
		e = &windowEntry{start: now, window: window}
		m.entries[key] = e
	}
	e.count++
	e.lastSeen = now

	return e.count, e.start.Add(window), nil
}

// Size returns the number of live counters. Intended for tests.
func (m *MemoryStore) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops counters that have been idle for more than twice their own
// window. The janitor calls this on its interval; tests may call it directly.
func (m *MemoryStore) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if now.Sub(e.lastSeen) > 2*e.window {
			delete(m.entries, key)
		}
	}
}

// Close stops the janitor. Existing counters are discarded with the store.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stopJanitor)
	})
	return nil
}

func (m *MemoryStore) janitor() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopJanitor:
			return
		}
	}
}
