package statekit

import (
	"encoding/json"
	"io"
	"log/slog"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
	"github.com/MathiasBohn/philter-mvp-sub003/store"
)

// Adapter wraps a substrate with JSON encoding and fail-soft error handling.
// The substrate backs non-critical state, not a source of truth, so every
// failure is logged and degraded: reads act as if the key were absent,
// writes are dropped. No Adapter method returns an error to the caller.
type Adapter struct {
	store  store.Store
	logger *slog.Logger
}

// NewAdapter creates an adapter over the given substrate. A nil substrate is
// treated as an unavailable environment: reads miss and writes drop.
func NewAdapter(st store.Store, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{store: st, logger: logger}
}

// Get reads and deserializes the value stored under key into out, which must
// be a non-nil pointer. It reports whether out was populated; absent keys,
// substrate failures, and malformed stored values all report false.
func (a *Adapter) Get(key Key, out any) bool {
	if a.store == nil {
		return false
	}

	raw, ok, err := a.store.Get(string(key))
	if err != nil {
		a.logger.Warn("substrate read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		a.logger.Warn("malformed stored value",
			"key", key,
			"error", stateerrors.WrapError("Get", key, stateerrors.ErrMalformedValue))
		return false
	}
	return true
}

// Set serializes value and writes it under key. Serialization and substrate
// failures are logged and dropped; callers must not assume durability.
func (a *Adapter) Set(key Key, value any) {
	if a.store == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Error("value not serializable",
			"key", key,
			"error", stateerrors.WrapError("Set", key, stateerrors.ErrSerialization))
		return
	}

	if err := a.store.Set(string(key), string(data)); err != nil {
		a.logger.Warn("substrate write dropped", "key", key, "error", err)
	}
}

// Remove deletes the key from the substrate. Failures are logged and
// swallowed; removing an absent key is a no-op.
func (a *Adapter) Remove(key Key) {
	if a.store == nil {
		return
	}

	if err := a.store.Remove(string(key)); err != nil {
		a.logger.Warn("substrate remove failed", "key", key, "error", err)
	}
}

// Close releases the underlying substrate
func (a *Adapter) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
