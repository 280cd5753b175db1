package statekit

import (
	"reflect"
	"sync"
)

// Binding synchronizes a consumer's local view of one key with the service.
// Writes go through Set so every other binding on the same key observes the
// same fan-out; local state is only ever updated by the resulting
// notification, keeping the service the single source of truth.
type Binding[T any] struct {
	svc          *Service
	key          Key
	defaultValue T
	onChange     func(T)

	mu      sync.RWMutex
	current T

	unsubscribe func()
	closeOnce   sync.Once
}

// BindOption configures a binding
type BindOption[T any] func(*Binding[T])

// WithOnChange registers a callback invoked with the new value whenever the
// bound key changes, including removal (which delivers the default value).
// This is the re-render hook for reactive consumers.
func WithOnChange[T any](fn func(T)) BindOption[T] {
	return func(b *Binding[T]) {
		b.onChange = fn
	}
}

// Bind creates a binding for key. The initial value is read once, then the
// binding subscribes and re-reads to close the window between the initial
// read and the subscription registration. Callers must Close the binding on
// teardown to release the subscription.
func Bind[T any](s *Service, key Key, defaultValue T, opts ...BindOption[T]) *Binding[T] {
	b := &Binding[T]{
		svc:          s,
		key:          key,
		defaultValue: defaultValue,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.current = Get(s, key, defaultValue)
	b.unsubscribe = s.Subscribe(key, b.handle)

	// Reconcile anything written between the initial read and Subscribe.
	latest := Get(s, key, defaultValue)
	b.mu.Lock()
	changed := !reflect.DeepEqual(b.current, latest)
	b.current = latest
	b.mu.Unlock()
	if changed && b.onChange != nil {
		b.onChange(latest)
	}

	return b
}

// Value returns the current bound value
func (b *Binding[T]) Value() T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Set writes a new value through the service. The binding's own state is
// updated by the notification that Set produces, not directly.
func (b *Binding[T]) Set(value T) {
	Set(b.svc, b.key, value)
}

// Close releases the subscription. It is safe to call more than once and
// must be called on every teardown path.
func (b *Binding[T]) Close() {
	b.closeOnce.Do(b.unsubscribe)
}

// handle applies one service event to the bound state
func (b *Binding[T]) handle(ev Event) {
	var next T
	switch ev.Type {
	case EventRemove:
		next = b.defaultValue
	case EventSet:
		if v, ok := ev.Value.(T); ok {
			next = v
		} else {
			// A writer used a different type for this key; fall back to a
			// service read so the bound state still converges.
			next = Get(b.svc, b.key, b.defaultValue)
		}
	default:
		return
	}

	b.mu.Lock()
	b.current = next
	b.mu.Unlock()

	if b.onChange != nil {
		b.onChange(next)
	}
}
