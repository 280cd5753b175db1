package statekit

import (
	"log/slog"

	"github.com/MathiasBohn/philter-mvp-sub003/metrics"
	"github.com/MathiasBohn/philter-mvp-sub003/policy"
	"github.com/MathiasBohn/philter-mvp-sub003/store"
)

// Options represents service configuration options
type Options struct {
	// Store is the substrate to persist state in. Nil means no substrate is
	// available; reads serve defaults and writes are dropped.
	Store store.Store

	// Logger receives diagnostics for swallowed failures. Nil discards them.
	Logger *slog.Logger

	// CacheEnabled controls whether reads consult the in-memory cache.
	CacheEnabled bool

	// MaxCacheEntries bounds the read cache (0 means unbounded). Evicted
	// entries are re-read from the substrate on the next Get.
	MaxCacheEntries int

	// Policy is the eviction policy for a bounded cache. Defaults to LRU
	// when MaxCacheEntries is set.
	Policy policy.Policy[Key]

	// MetricsConfig defines the configuration for metrics
	MetricsConfig metrics.Config
}

// Option is a function that configures service options
type Option func(*Options)

// DefaultOptions returns the default service options
func DefaultOptions() *Options {
	return &Options{
		CacheEnabled: true,
		MetricsConfig: metrics.Config{
			ExporterType: metrics.StandardExporter,
			ServiceName:  "statekit",
		},
	}
}

// WithStore sets the substrate
func WithStore(st store.Store) Option {
	return func(o *Options) {
		o.Store = st
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCacheEnabled toggles the read cache
func WithCacheEnabled(enabled bool) Option {
	return func(o *Options) {
		o.CacheEnabled = enabled
	}
}

// WithMaxCacheEntries bounds the read cache
func WithMaxCacheEntries(n int) Option {
	return func(o *Options) {
		o.MaxCacheEntries = n
	}
}

// WithPolicy sets the cache eviction policy
func WithPolicy(p policy.Policy[Key]) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithMetricsConfig sets the metrics configuration
func WithMetricsConfig(cfg metrics.Config) Option {
	return func(o *Options) {
		o.MetricsConfig = cfg
	}
}
