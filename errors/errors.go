// Package errors provides error types and utilities for the statekit module.
package errors

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeService represents state-service errors
	ErrorTypeService ErrorType = "service"
	// ErrorTypeStore represents substrate errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeCodec represents serialization errors
	ErrorTypeCodec ErrorType = "codec"
	// ErrorTypeLimiter represents rate-limiter errors
	ErrorTypeLimiter ErrorType = "limiter"
)

// Common error values
var (
	// Service errors
	ErrServiceClosed = errors.New("service is closed")
	ErrKeyNotFound   = errors.New("key not found")
	ErrInvalidKey    = errors.New("invalid key")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Substrate errors
	ErrStoreUnavailable = errors.New("substrate unavailable")
	ErrQuotaExceeded    = errors.New("substrate quota exceeded")

	// Codec errors
	ErrMalformedValue = errors.New("malformed stored value")
	ErrSerialization  = errors.New("serialization error")

	// Limiter errors
	ErrRemoteUnavailable = errors.New("remote counter unavailable")
)

// StoreError represents a statekit operation error
type StoreError struct {
	Op      string
	Key     any
	Err     error
	ErrType ErrorType
}

// determineErrorType determines the error type based on the error
func determineErrorType(err error) ErrorType {
	switch {
	case errors.Is(err, ErrServiceClosed) || errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrInvalidConfig):
		return ErrorTypeService
	case errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrQuotaExceeded):
		return ErrorTypeStore
	case errors.Is(err, ErrMalformedValue) || errors.Is(err, ErrSerialization):
		return ErrorTypeCodec
	case errors.Is(err, ErrRemoteUnavailable):
		return ErrorTypeLimiter
	default:
		return ErrorTypeService
	}
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("%s: %s: key=%v: %v", e.ErrType, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.ErrType, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error is of the same type as the receiver
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.ErrType == t.ErrType && e.Op == t.Op && errors.Is(e.Err, t.Err)
}

// NewStoreError creates a new StoreError
func NewStoreError(errType ErrorType, op string, key any, err error) error {
	return &StoreError{
		ErrType: errType,
		Op:      op,
		Key:     key,
		Err:     err,
	}
}

// ErrorMetrics tracks error statistics
type ErrorMetrics struct {
	ServiceErrors atomic.Int64
	StoreErrors   atomic.Int64
	CodecErrors   atomic.Int64
	LimiterErrors atomic.Int64

	LastServiceError atomic.Value // time.Time
	LastStoreError   atomic.Value // time.Time
	LastCodecError   atomic.Value // time.Time
	LastLimiterError atomic.Value // time.Time
}

var metrics = &ErrorMetrics{}

// GetErrorMetrics returns the current error metrics
func GetErrorMetrics() *ErrorMetrics {
	return metrics
}

// ResetErrorMetrics resets all error metrics
func ResetErrorMetrics() {
	metrics.ServiceErrors.Store(0)
	metrics.StoreErrors.Store(0)
	metrics.CodecErrors.Store(0)
	metrics.LimiterErrors.Store(0)
	metrics.LastServiceError.Store(time.Time{})
	metrics.LastStoreError.Store(time.Time{})
	metrics.LastCodecError.Store(time.Time{})
	metrics.LastLimiterError.Store(time.Time{})
}

// updateErrorMetrics updates metrics for the given error type
func updateErrorMetrics(errType ErrorType) {
	now := time.Now()
	switch errType {
	case ErrorTypeService:
		metrics.ServiceErrors.Add(1)
		metrics.LastServiceError.Store(now)
	case ErrorTypeStore:
		metrics.StoreErrors.Add(1)
		metrics.LastStoreError.Store(now)
	case ErrorTypeCodec:
		metrics.CodecErrors.Add(1)
		metrics.LastCodecError.Store(now)
	case ErrorTypeLimiter:
		metrics.LimiterErrors.Add(1)
		metrics.LastLimiterError.Store(now)
	}
}

// WrapError wraps an error with context and updates metrics
func WrapError(op string, key any, err error) error {
	if err == nil {
		return nil
	}

	errType := determineErrorType(err)
	updateErrorMetrics(errType)

	return NewStoreError(errType, op, key, err)
}

// IsStoreError checks if an error is a StoreError
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// GetStoreError returns the StoreError if the error is a StoreError
func GetStoreError(err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if se := GetStoreError(err); se != nil {
		return se.ErrType == errType
	}
	return false
}

// IsKeyNotFound checks if the error is a key not found error
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsQuotaExceeded checks if the error is a quota exceeded error
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsMalformedValue checks if the error is a malformed value error
func IsMalformedValue(err error) bool {
	return errors.Is(err, ErrMalformedValue)
}

// IsRemoteUnavailable checks if the error is a remote counter error
func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// IsServiceClosed checks if the error is a service closed error
func IsServiceClosed(err error) bool {
	return errors.Is(err, ErrServiceClosed)
}
