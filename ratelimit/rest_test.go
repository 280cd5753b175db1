package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// counterServer emulates the remote REST counter command interface.
type counterServer struct {
	mu       sync.Mutex
	counts   map[string]int64
	ttls     map[string]int64
	values   map[string]string
	token    string
	commands []string
}

func newCounterServer(token string) *counterServer {
	return &counterServer{
		counts: make(map[string]int64),
		ttls:   make(map[string]int64),
		values: make(map[string]string),
		token:  token,
	}
}

func (c *counterServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+c.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var cmd []string
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || len(cmd) < 2 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd[0])

	var result any
	switch cmd[0] {
	case "INCR":
		c.counts[cmd[1]]++
		result = c.counts[cmd[1]]
	case "EXPIRE":
		var seconds int64
		fmt.Sscanf(cmd[2], "%d", &seconds)
		c.ttls[cmd[1]] = seconds
		result = 1
	case "TTL":
		ttl, ok := c.ttls[cmd[1]]
		if !ok {
			ttl = -1
		}
		result = ttl
	case "GET":
		if v, ok := c.values[cmd[1]]; ok {
			result = v
		} else {
			result = nil
		}
	case "SET":
		if len(cmd) < 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		c.values[cmd[1]] = cmd[2]
		result = "OK"
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"result": result})
}

func newTestRESTStore(t *testing.T) (*RESTStore, *counterServer) {
	t.Helper()
	cs := newCounterServer("secret")
	srv := httptest.NewServer(cs)
	t.Cleanup(srv.Close)

	store, err := NewRESTStore(RESTConfig{URL: srv.URL, Token: "secret"})
	require.NoError(t, err)
	return store, cs
}

func TestRESTStoreIncrement(t *testing.T) {
	store, cs := newTestRESTStore(t)

	count, _, err := store.Increment(context.Background(), "auth:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// First increment sets the counter's expiry
	require.Equal(t, []string{"INCR", "EXPIRE"}, cs.commands)
	require.Equal(t, int64(60), cs.ttls["auth:1.2.3.4"])

	count, reset, err := store.Increment(context.Background(), "auth:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.False(t, reset.IsZero())

	// Subsequent increments read the remaining TTL instead
	require.Equal(t, []string{"INCR", "EXPIRE", "INCR", "TTL"}, cs.commands)
}

func TestRESTStoreMissingTTL(t *testing.T) {
	store, cs := newTestRESTStore(t)

	// Simulate a counter whose EXPIRE was lost
	cs.mu.Lock()
	cs.counts["k"] = 5
	cs.mu.Unlock()

	_, reset, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.False(t, reset.IsZero(), "missing TTL falls back to a full window")
}

func TestRESTStoreGetSet(t *testing.T) {
	store, _ := newTestRESTStore(t)

	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(context.Background(), "k", "v"))

	value, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)
}

func TestRESTStoreBadToken(t *testing.T) {
	cs := newCounterServer("secret")
	srv := httptest.NewServer(cs)
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{URL: srv.URL, Token: "wrong"})
	require.NoError(t, err)

	_, _, err = store.Increment(context.Background(), "k", time.Minute)
	require.True(t, stateerrors.IsRemoteUnavailable(err))
}

func TestRESTStoreServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store, err := NewRESTStore(RESTConfig{URL: url, Token: "secret"})
	require.NoError(t, err)

	_, _, err = store.Increment(context.Background(), "k", time.Minute)
	require.True(t, stateerrors.IsRemoteUnavailable(err))
}

func TestRESTStoreMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{URL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	_, _, err = store.Increment(context.Background(), "k", time.Minute)
	require.True(t, stateerrors.IsRemoteUnavailable(err))
}

func TestRESTStoreRequiresConfig(t *testing.T) {
	_, err := NewRESTStore(RESTConfig{})
	require.ErrorIs(t, err, stateerrors.ErrInvalidConfig)

	_, err = NewRESTStore(RESTConfig{URL: "http://example.com"})
	require.ErrorIs(t, err, stateerrors.ErrInvalidConfig)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_REST_URL", "http://counter.internal")
	t.Setenv("RATE_LIMIT_REST_TOKEN", "secret")
	t.Setenv("RATE_LIMIT_REST_TIMEOUT", "5s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "http://counter.internal", cfg.URL)
	require.Equal(t, "secret", cfg.Token)
	require.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_REST_URL", "")
	t.Setenv("RATE_LIMIT_REST_TOKEN", "")
	t.Setenv("RATE_LIMIT_REST_TIMEOUT", "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Empty(t, cfg.URL)
	require.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestNewStoreFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_REST_URL", "")
	t.Setenv("RATE_LIMIT_REST_TOKEN", "")

	store, err := NewStoreFromEnv()
	require.NoError(t, err)
	defer store.Close()
	require.IsType(t, &MemoryStore{}, store)

	t.Setenv("RATE_LIMIT_REST_URL", "http://counter.internal")
	t.Setenv("RATE_LIMIT_REST_TOKEN", "secret")

	store, err = NewStoreFromEnv()
	require.NoError(t, err)
	defer store.Close()
	require.IsType(t, &RESTStore{}, store)
}

func TestLimiterFailsOpenOverREST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{URL: srv.URL, Token: "secret"})
	require.NoError(t, err)

	l := New(store)
	defer l.Close()

	result := l.Check(context.Background(), "1.2.3.4", Config{Limit: 1, Window: time.Minute, Identifier: "test"})
	require.False(t, result.Limited)
	require.Equal(t, int64(1), l.Metrics().Snapshot().FailOpen)
}
