package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrement(t *testing.T) {
	now := time.Now()
	m := NewMemoryStore(WithClock(func() time.Time { return now }), WithSweepInterval(0))
	defer m.Close()

	count, reset, err := m.Increment(context.Background(), "auth:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, now.Add(time.Minute), reset)

	count, reset, err = m.Increment(context.Background(), "auth:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.Equal(t, now.Add(time.Minute), reset, "reset stays anchored to the window start")
}

func TestMemoryStoreWindowRollover(t *testing.T) {
	now := time.Now()
	m := NewMemoryStore(WithClock(func() time.Time { return now }), WithSweepInterval(0))
	defer m.Close()

	_, _, err := m.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	count, reset, err := m.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "expired window starts a fresh count")
	require.Equal(t, now.Add(time.Minute), reset)
}

func TestMemoryStoreKeyIsolation(t *testing.T) {
	m := NewMemoryStore(WithSweepInterval(0))
	defer m.Close()

	_, _, err := m.Increment(context.Background(), "auth:a", time.Minute)
	require.NoError(t, err)

	count, _, err := m.Increment(context.Background(), "auth:b", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestMemoryStoreSweep(t *testing.T) {
	now := time.Now()
	m := NewMemoryStore(WithClock(func() time.Time { return now }), WithSweepInterval(0))
	defer m.Close()

	_, _, err := m.Increment(context.Background(), "short", time.Minute)
	require.NoError(t, err)
	_, _, err = m.Increment(context.Background(), "long", 10*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, m.Size())

	// Idle past 2x the short window, but within the long window's horizon
	now = now.Add(3 * time.Minute)
	m.Sweep()
	require.Equal(t, 1, m.Size(), "only the short-window counter is swept")

	now = now.Add(20 * time.Minute)
	m.Sweep()
	require.Zero(t, m.Size())
}

func TestMemoryStoreSweepKeepsActiveCounters(t *testing.T) {
	now := time.Now()
	m := NewMemoryStore(WithClock(func() time.Time { return now }), WithSweepInterval(0))
	defer m.Close()

	_, _, err := m.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	m.Sweep()
	require.Equal(t, 1, m.Size(), "a recently used counter survives the sweep")
}

func TestMemoryStoreConcurrentIncrements(t *testing.T) {
	m := NewMemoryStore(WithSweepInterval(0))
	defer m.Close()

	const goroutines = 16
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, _, _ = m.Increment(context.Background(), "k", time.Hour)
			}
		}()
	}
	wg.Wait()

	count, _, err := m.Increment(context.Background(), "k", time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(goroutines*perGoroutine+1), count)
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
