// Package store provides the substrate interface and implementations backing
// the statekit service. A substrate is a flat, synchronous string key-value
// store; serialization and caching live above it.
package store

// Store defines the interface for a state substrate.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the raw string stored under key.
	// The second result reports whether the key was present.
	Get(key string) (string, bool, error)

	// Set stores a raw string under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys returns all keys currently present in the substrate.
	Keys() ([]string, error)

	// Close releases any resources used by the substrate.
	Close() error
}
