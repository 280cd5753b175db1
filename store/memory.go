package store

import (
	"sync"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// memoryStore implements Store with an in-process map. It is the default
// substrate and the one tests run against.
type memoryStore struct {
	mu        sync.RWMutex
	items     map[string]string
	usedBytes int64
	maxBytes  int64
	closed    bool
}

// NewMemoryStore creates a new in-memory substrate
func NewMemoryStore(opts ...Option) (Store, error) {
	options := NewOptions()
	if err := options.Apply(opts...); err != nil {
		return nil, stateerrors.WrapError("NewMemoryStore", nil, err)
	}

	return &memoryStore{
		items:    make(map[string]string),
		maxBytes: options.MaxBytes,
	}, nil
}

// Get retrieves the raw string stored under key
func (m *memoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, stateerrors.WrapError("Get", key, stateerrors.ErrStoreUnavailable)
	}

	value, ok := m.items[key]
	return value, ok, nil
}

// Set stores a raw string under key
func (m *memoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return stateerrors.WrapError("Set", key, stateerrors.ErrStoreUnavailable)
	}

	newUsed := m.usedBytes + entrySize(key, value)
	if old, ok := m.items[key]; ok {
		newUsed -= entrySize(key, old)
	}
	if m.maxBytes > 0 && newUsed > m.maxBytes {
		return stateerrors.WrapError("Set", key, stateerrors.ErrQuotaExceeded)
	}

	m.items[key] = value
	m.usedBytes = newUsed
	return nil
}

// Remove deletes the key
func (m *memoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return stateerrors.WrapError("Remove", key, stateerrors.ErrStoreUnavailable)
	}

	if old, ok := m.items[key]; ok {
		m.usedBytes -= entrySize(key, old)
		delete(m.items, key)
	}
	return nil
}

// Keys returns all keys currently present
func (m *memoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, stateerrors.WrapError("Keys", nil, stateerrors.ErrStoreUnavailable)
	}

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close marks the substrate unavailable. Subsequent operations fail with
// ErrStoreUnavailable, which the adapter degrades to absent-key behavior.
func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.items = make(map[string]string)
	m.usedBytes = 0
	return nil
}

// UsedBytes returns the current byte usage (for tests)
func (m *memoryStore) UsedBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usedBytes
}

func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
