// Package statekit provides a reactive key-value state store: a write-through
// JSON adapter over a pluggable substrate, an in-memory read cache, per-key
// subscriptions with synchronous fan-out, and batched notification.
//
// The store backs transitional UI and draft state, not authoritative data.
// There is no cross-instance concurrency control: two services sharing one
// substrate are last-writer-wins, and listeners observe only writes made
// through their own service instance.
package statekit

import (
	"io"
	"log/slog"
	"sync"

	"github.com/MathiasBohn/philter-mvp-sub003/metrics"
	"github.com/MathiasBohn/philter-mvp-sub003/policy"
	"github.com/MathiasBohn/philter-mvp-sub003/store"
)

// EventType represents the type of state event
type EventType int

const (
	// EventSet is delivered after a key's value changes
	EventSet EventType = iota
	// EventRemove is delivered after a key is cleared. Value is nil;
	// subscribers must treat it as "value cleared", not as an error.
	EventRemove
)

// Event represents a change to one key
type Event struct {
	Type  EventType
	Key   Key
	Value any
}

// Listener is a callback invoked with the event for a key it subscribed to.
// Listeners run synchronously on the mutating goroutine, outside the service
// lock, so they may call back into the service.
type Listener func(Event)

// Service is the state storage service. It owns the read cache and the
// listener registry; construct one instance at startup and inject it where
// needed. All methods are safe for concurrent use.
type Service struct {
	adapter *Adapter
	logger  *slog.Logger
	metrics metrics.Exporter
	pol     policy.Policy[Key]
	maxSize int

	mu           sync.RWMutex
	cache        map[Key]any
	cacheEnabled bool
	listeners    map[Key]map[uint64]Listener
	nextID       uint64
	batchDepth   int
	pending      map[Key]Event
	pendingOrder []Key
	closed       bool
}

// New creates a new state service with the given options
func New(opts ...Option) *Service {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if options.Store == nil {
		if st, err := store.NewMemoryStore(); err == nil {
			options.Store = st
		}
	}
	if options.Policy == nil && options.MaxCacheEntries > 0 {
		options.Policy = policy.NewLRU[Key]()
	}

	return &Service{
		adapter:   NewAdapter(options.Store, options.Logger),
		logger:    options.Logger,
		metrics:   metrics.NewExporter(options.MetricsConfig),
		pol:       options.Policy,
		maxSize:   options.MaxCacheEntries,
		cache:     make(map[Key]any),
		listeners: make(map[Key]map[uint64]Listener),

		cacheEnabled: options.CacheEnabled,
	}
}

// Get returns the value stored under key, or defaultValue if the key is
// absent, the substrate is unavailable, or the stored value is malformed.
// A cache hit does not consult the substrate.
func Get[T any](s *Service, key Key, defaultValue T) T {
	s.mu.RLock()
	if s.cacheEnabled && !s.closed {
		if raw, ok := s.cache[key]; ok {
			if v, ok := raw.(T); ok {
				pol := s.pol
				s.mu.RUnlock()
				if pol != nil {
					pol.OnGet(key)
				}
				s.metrics.RecordHit()
				return v
			}
		}
	}
	s.mu.RUnlock()
	s.metrics.RecordMiss()

	var out T
	if !s.adapter.Get(key, &out) {
		out = defaultValue
	}

	s.mu.Lock()
	if s.cacheEnabled && !s.closed {
		s.cacheInsertLocked(key, out)
	}
	s.mu.Unlock()

	return out
}

// Set writes value under key through the adapter, updates the cache, and
// synchronously notifies every listener for key before returning.
func Set[T any](s *Service, key Key, value T) {
	s.set(key, value)
}

// Update reads the current value (respecting the cache), applies updater,
// and performs a Set. Use it instead of manual get-then-set whenever the new
// value depends on the current one. If updater itself suspends, a concurrent
// write to the same key can be lost; there is no cross-caller atomicity.
func Update[T any](s *Service, key Key, defaultValue T, updater func(T) T) {
	current := Get(s, key, defaultValue)
	Set(s, key, updater(current))
}

func (s *Service) set(key Key, value any) {
	s.adapter.Set(key, value)

	s.mu.Lock()
	if !s.closed {
		// The cache is updated even while disabled; disabling cleared it,
		// so entries written now are never stale when caching resumes.
		s.cacheInsertLocked(key, value)
	}
	s.mu.Unlock()

	s.metrics.RecordSet()
	s.notify(Event{Type: EventSet, Key: key, Value: value})
}

// Remove deletes the key from the substrate and the cache, then notifies
// listeners with an EventRemove.
func (s *Service) Remove(key Key) {
	s.adapter.Remove(key)

	s.mu.Lock()
	if _, ok := s.cache[key]; ok {
		delete(s.cache, key)
		if s.pol != nil {
			s.pol.OnRemove(key)
		}
		s.metrics.UpdateSize(int64(len(s.cache)))
	}
	s.mu.Unlock()

	s.metrics.RecordRemove()
	s.notify(Event{Type: EventRemove, Key: key, Value: nil})
}

// Subscribe registers listener for key and returns a function that removes
// exactly that listener. Calling the returned function more than once is a
// no-op. When the last listener for a key unsubscribes, the listener set for
// that key is discarded.
func (s *Service) Subscribe(key Key, listener Listener) (unsubscribe func()) {
	s.mu.Lock()
	set := s.listeners[key]
	if set == nil {
		set = make(map[uint64]Listener)
		s.listeners[key] = set
	}
	s.nextID++
	id := s.nextID
	set[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.listeners[key]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(s.listeners, key)
			}
		}
	}
}

// ClearCache drops all cache entries. The substrate is untouched and no
// listeners are notified.
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCacheLocked()
}

// Invalidate drops the cache entry for one key only
func (s *Service) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[key]; ok {
		delete(s.cache, key)
		if s.pol != nil {
			s.pol.OnRemove(key)
		}
		s.metrics.UpdateSize(int64(len(s.cache)))
	}
}

// SetCacheEnabled toggles cache usage. Disabling also clears the cache so a
// later re-enable cannot serve values cached before the toggle.
func (s *Service) SetCacheEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheEnabled = enabled
	if !enabled {
		s.clearCacheLocked()
	}
}

// CacheEnabled reports whether reads consult the cache
func (s *Service) CacheEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheEnabled
}

// Metrics returns a snapshot of the service metrics
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.GetSnapshot()
}

// Close releases the service and its substrate. Subsequent reads serve
// defaults and writes are dropped.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cache = make(map[Key]any)
	s.listeners = make(map[Key]map[uint64]Listener)
	if s.pol != nil {
		s.pol.OnClear()
	}
	s.metrics.UpdateSize(0)
	s.mu.Unlock()

	return s.adapter.Close()
}

// cacheInsertLocked stores value in the cache and evicts past the bound.
// Eviction drops cache entries only; the substrate keeps the value, so a
// later Get re-reads it through the adapter.
func (s *Service) cacheInsertLocked(key Key, value any) {
	s.cache[key] = value
	if s.pol != nil {
		s.pol.OnSet(key)
		if s.maxSize > 0 {
			for len(s.cache) > s.maxSize {
				victim, ok := s.pol.Evict()
				if !ok {
					break
				}
				delete(s.cache, victim)
				s.metrics.RecordEviction()
			}
		}
	}
	s.metrics.UpdateSize(int64(len(s.cache)))
}

func (s *Service) clearCacheLocked() {
	s.cache = make(map[Key]any)
	if s.pol != nil {
		s.pol.OnClear()
	}
	s.metrics.UpdateSize(0)
}

// notify delivers the event to every listener for the key, or queues it when
// a batch is active.
func (s *Service) notify(ev Event) {
	s.mu.Lock()
	if s.batchDepth > 0 {
		if _, seen := s.pending[ev.Key]; !seen {
			s.pendingOrder = append(s.pendingOrder, ev.Key)
		}
		s.pending[ev.Key] = ev
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.fanout(ev)
}

// fanout invokes listeners outside the service lock. Iteration order over
// the listener set is unspecified.
func (s *Service) fanout(ev Event) {
	s.mu.RLock()
	set := s.listeners[ev.Key]
	fns := make([]Listener, 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		s.metrics.RecordNotification()
		fn(ev)
	}
}
