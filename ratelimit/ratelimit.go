// Package ratelimit provides fixed-window request rate limiting keyed by
// client identity. A Limiter counts requests per composite key through a
// pluggable CounterStore, so the same policy code runs against the
// in-process store or a shared remote counter. Counter failures never block
// requests: the limiter fails open and reports the error through its logger
// and metrics.
package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MathiasBohn/philter-mvp-sub003/internal"
)

// Config describes one rate limit policy.
type Config struct {
	// Limit is the maximum number of requests per window.
	Limit int

	// Window is the fixed window length.
	Window time.Duration

	// Identifier namespaces this policy's counters. Two policies with
	// distinct identifiers never share counters, even for the same client.
	Identifier string

	// Message is returned to limited clients.
	Message string
}

// Preset policies. Identifiers are part of the counter key, so renaming one
// resets its counters.
var (
	// Auth guards credential endpoints.
	Auth = Config{Limit: 5, Window: time.Minute, Identifier: "auth", Message: "Too many authentication attempts. Please try again later."}

	// Invitation guards invitation issuing.
	Invitation = Config{Limit: 10, Window: time.Minute, Identifier: "invitation", Message: "Too many invitations sent. Please try again later."}

	// Strict is for expensive or abuse-prone operations.
	Strict = Config{Limit: 3, Window: time.Minute, Identifier: "strict", Message: "Rate limit exceeded. Please slow down."}

	// Standard is the general API default.
	Standard = Config{Limit: 100, Window: time.Minute, Identifier: "standard", Message: "Rate limit exceeded. Please try again later."}

	// Upload guards file uploads with a longer window.
	Upload = Config{Limit: 20, Window: 5 * time.Minute, Identifier: "upload", Message: "Too many uploads. Please try again later."}
)

// Result is the outcome of one limit check.
type Result struct {
	// Limited reports whether the request exceeded the policy.
	Limited bool

	// Limit echoes the policy limit.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// Reset is when the current window ends.
	Reset time.Time
}

// CounterStore counts requests per key within fixed windows.
type CounterStore interface {
	// Increment adds one to the counter for key, starting a new window if
	// none is active, and returns the count within the current window along
	// with the time the window ends.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)

	// Close releases the store's resources.
	Close() error
}

// Limiter applies rate limit policies against a CounterStore.
type Limiter struct {
	store   CounterStore
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// LimiterOption configures a Limiter
type LimiterOption func(*Limiter)

// WithLogger sets the limiter's logger
func WithLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics sets the limiter's metrics collector
func WithMetrics(m *Metrics) LimiterOption {
	return func(l *Limiter) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithNow overrides the limiter's clock. Intended for tests.
func WithNow(now func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter backed by store. A nil store falls back to an
// in-process counter store.
func New(store CounterStore, opts ...LimiterOption) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Limiter{
		store:   store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for identity under cfg and reports whether it
// should be limited. Counter store failures fail open: the request is
// allowed, the error is logged, and the result's Remaining is reported as if
// the window were empty.
func (l *Limiter) Check(ctx context.Context, identity string, cfg Config) Result {
	if identity == "" {
		identity = "unknown"
	}
	key := cfg.Identifier + ":" + identity

	count, reset, err := l.store.Increment(ctx, key, cfg.Window)
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request",
			"identifier", cfg.Identifier,
			"error", err)
		l.metrics.RecordFailOpen(cfg.Identifier)
		return Result{
			Limited:   false,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit,
			Reset:     l.now().Add(cfg.Window),
		}
	}

	remaining := cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	limited := count > int64(cfg.Limit)
	if limited {
		l.metrics.RecordLimited(cfg.Identifier)
	} else {
		l.metrics.RecordAllowed(cfg.Identifier)
	}

	return Result{
		Limited:   limited,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     reset,
	}
}

// CheckRequest derives the client identity from r and runs Check.
func (l *Limiter) CheckRequest(r *http.Request, cfg Config) Result {
	return l.Check(r.Context(), ClientIdentity(r), cfg)
}

// Metrics returns the limiter's metrics collector
func (l *Limiter) Metrics() *Metrics {
	return l.metrics
}

// Close releases the underlying counter store
func (l *Limiter) Close() error {
	return l.store.Close()
}

// ClientIdentity extracts a client identity from forwarded headers, in order
// of trust: X-Forwarded-For (first hop), X-Real-IP, then CF-Connecting-IP.
// The value is sanitized so header contents cannot inject key separators;
// when nothing usable remains the shared identity "unknown" is returned,
// which intentionally throttles unidentifiable clients as a group.
func ClientIdentity(r *http.Request) string {
	candidates := []string{
		internal.FirstForwarded(r.Header.Get("X-Forwarded-For")),
		r.Header.Get("X-Real-IP"),
		r.Header.Get("CF-Connecting-IP"),
	}
	for _, c := range candidates {
		if id := internal.SanitizeIdentity(c); id != "" {
			return id
		}
	}
	return "unknown"
}
