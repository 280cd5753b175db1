package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	t.Run("Nil error", func(t *testing.T) {
		require.NoError(t, WrapError("Get", "key1", nil))
	})

	t.Run("Store error classification", func(t *testing.T) {
		err := WrapError("Set", "key1", ErrQuotaExceeded)
		require.Error(t, err)
		require.True(t, IsQuotaExceeded(err))
		require.True(t, IsErrorType(err, ErrorTypeStore))
	})

	t.Run("Codec error classification", func(t *testing.T) {
		err := WrapError("Get", "key1", ErrMalformedValue)
		require.True(t, IsMalformedValue(err))
		require.True(t, IsErrorType(err, ErrorTypeCodec))
	})

	t.Run("Limiter error classification", func(t *testing.T) {
		err := WrapError("Increment", "auth:1.2.3.4", ErrRemoteUnavailable)
		require.True(t, IsRemoteUnavailable(err))
		require.True(t, IsErrorType(err, ErrorTypeLimiter))
	})

	t.Run("Unknown error defaults to service", func(t *testing.T) {
		err := WrapError("Get", "key1", errors.New("boom"))
		require.True(t, IsErrorType(err, ErrorTypeService))
	})
}

func TestStoreErrorMessage(t *testing.T) {
	err := NewStoreError(ErrorTypeStore, "Set", "theme", ErrQuotaExceeded)
	require.Equal(t, "store: Set: key=theme: substrate quota exceeded", err.Error())

	err = NewStoreError(ErrorTypeService, "Close", nil, ErrServiceClosed)
	require.Equal(t, "service: Close: service is closed", err.Error())
}

func TestStoreErrorUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", WrapError("Get", "k", ErrKeyNotFound))
	require.True(t, IsKeyNotFound(wrapped))
	require.True(t, IsStoreError(wrapped))

	se := GetStoreError(wrapped)
	require.NotNil(t, se)
	require.Equal(t, "Get", se.Op)
	require.Equal(t, "k", se.Key)
}

func TestErrorMetrics(t *testing.T) {
	ResetErrorMetrics()

	_ = WrapError("Set", "k", ErrQuotaExceeded)
	_ = WrapError("Get", "k", ErrMalformedValue)
	_ = WrapError("Get", "k", ErrMalformedValue)

	m := GetErrorMetrics()
	require.Equal(t, int64(1), m.StoreErrors.Load())
	require.Equal(t, int64(2), m.CodecErrors.Load())

	ResetErrorMetrics()
	require.Equal(t, int64(0), m.StoreErrors.Load())
	require.Equal(t, int64(0), m.CodecErrors.Load())
}
