package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Middleware wraps an http.Handler with the given policy. Every response
// carries the standard X-RateLimit headers; limited requests get a 429 with
// a Retry-After header and a JSON error body.
func Middleware(l *Limiter, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := l.CheckRequest(r, cfg)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

			if result.Limited {
				retryAfter := int64(result.Reset.Sub(l.now()).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": cfg.Message})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Wrap applies Middleware to a single handler.
func Wrap(l *Limiter, cfg Config, next http.Handler) http.Handler {
	return Middleware(l, cfg)(next)
}
