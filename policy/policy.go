// Package policy provides eviction policies for the statekit read cache.
// A policy tracks key ordering only; evicting a key drops its cache entry,
// never the value in the substrate.
package policy

// Policy defines the interface for cache eviction policies
type Policy[K comparable] interface {
	// OnGet is called when a key is served from the cache
	OnGet(key K)

	// OnSet is called when a key is added to or refreshed in the cache
	OnSet(key K)

	// OnRemove is called when a key is dropped from the cache
	OnRemove(key K)

	// OnClear is called when the cache is cleared
	OnClear()

	// Evict returns the next key to be evicted from the cache
	Evict() (K, bool)

	// Size returns the number of keys the policy is tracking
	Size() int
}
