package statekit

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/MathiasBohn/philter-mvp-sub003/store"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, logger *slog.Logger) (*Adapter, store.Store) {
	t.Helper()
	st, err := store.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewAdapter(st, logger), st
}

func TestAdapterRoundTrip(t *testing.T) {
	a, _ := newTestAdapter(t, nil)

	key := MustStaticKey("profile")
	a.Set(key, map[string]string{"name": "Dana"})

	var out map[string]string
	require.True(t, a.Get(key, &out))
	require.Equal(t, map[string]string{"name": "Dana"}, out)
}

func TestAdapterAbsentKey(t *testing.T) {
	a, _ := newTestAdapter(t, nil)

	var out string
	require.False(t, a.Get(MustStaticKey("missing"), &out))
}

func TestAdapterMalformedValue(t *testing.T) {
	var buf bytes.Buffer
	a, st := newTestAdapter(t, slog.New(slog.NewTextHandler(&buf, nil)))

	key := MustStaticKey("profile")
	require.NoError(t, st.Set(string(key), "{definitely not json"))

	var out map[string]string
	require.NotPanics(t, func() {
		require.False(t, a.Get(key, &out))
	})
	require.Contains(t, buf.String(), "malformed stored value")
}

func TestAdapterQuotaExceededDropsWrite(t *testing.T) {
	var buf bytes.Buffer
	st, err := store.NewMemoryStore(store.WithMaxBytes(4))
	require.NoError(t, err)
	defer st.Close()

	a := NewAdapter(st, slog.New(slog.NewTextHandler(&buf, nil)))

	key := MustStaticKey("big")
	require.NotPanics(t, func() {
		a.Set(key, "a value far larger than the four byte budget")
	})

	var out string
	require.False(t, a.Get(key, &out))
	require.Contains(t, buf.String(), "substrate write dropped")
}

func TestAdapterUnserializableValue(t *testing.T) {
	var buf bytes.Buffer
	a, _ := newTestAdapter(t, slog.New(slog.NewTextHandler(&buf, nil)))

	key := MustStaticKey("bad")
	require.NotPanics(t, func() {
		a.Set(key, func() {}) // functions cannot be marshaled
	})
	require.Contains(t, buf.String(), "value not serializable")
}

func TestAdapterNilSubstrate(t *testing.T) {
	a := NewAdapter(nil, nil)

	key := MustStaticKey("theme")
	require.NotPanics(t, func() {
		a.Set(key, "dark")
		a.Remove(key)
	})

	var out string
	require.False(t, a.Get(key, &out))
	require.NoError(t, a.Close())
}

func TestAdapterRemoveAbsentKey(t *testing.T) {
	a, _ := newTestAdapter(t, nil)
	require.NotPanics(t, func() { a.Remove(MustStaticKey("missing")) })
}
