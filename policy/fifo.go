package policy

import (
	"container/list"
	"sync"

	"github.com/MathiasBohn/philter-mvp-sub003/internal"
)

// FIFO implements the Policy interface using First In First Out ordering
type FIFO[K comparable] struct {
	items *internal.SafeMap[K, *list.Element]
	list  *list.List
	mu    sync.Mutex
}

// NewFIFO creates a new FIFO policy
func NewFIFO[K comparable]() Policy[K] {
	return &FIFO[K]{
		items: internal.NewSafeMap[K, *list.Element](),
		list:  list.New(),
	}
}

// OnGet is called when a key is served from the cache.
// FIFO ordering does not change on access.
func (p *FIFO[K]) OnGet(key K) {}

// OnSet is called when a key is added to or refreshed in the cache
func (p *FIFO[K]) OnSet(key K) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.items.Get(key); exists {
		return
	}
	p.items.Set(key, p.list.PushFront(key))
}

// OnRemove is called when a key is dropped from the cache
func (p *FIFO[K]) OnRemove(key K) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if element, exists := p.items.Get(key); exists {
		p.list.Remove(element)
		p.items.Delete(key)
	}
}

// OnClear is called when the cache is cleared
func (p *FIFO[K]) OnClear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.list = list.New()
	p.items.Clear()
}

// Evict returns the oldest inserted key
func (p *FIFO[K]) Evict() (K, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	element := p.list.Back()
	if element == nil {
		var zero K
		return zero, false
	}

	key := element.Value.(K)
	p.list.Remove(element)
	p.items.Delete(key)
	return key, true
}

// Size returns the number of keys the policy is tracking
func (p *FIFO[K]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.Len()
}
