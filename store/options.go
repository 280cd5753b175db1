package store

import (
	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// DefaultMaxBytes is the default substrate quota. State here is transitional
// UI and draft data; anything approaching this budget belongs elsewhere.
const DefaultMaxBytes = int64(5 * 1024 * 1024)

// Options represents substrate configuration options
type Options struct {
	// MaxBytes is the total byte budget for keys plus values
	// (0 means unlimited). A Set that would exceed it fails with
	// ErrQuotaExceeded.
	MaxBytes int64
}

// NewOptions creates a new Options instance with default values
func NewOptions() *Options {
	return &Options{
		MaxBytes: DefaultMaxBytes,
	}
}

// Option is a function that configures substrate options
type Option func(*Options) error

// WithMaxBytes sets the total byte budget for the substrate
func WithMaxBytes(maxBytes int64) Option {
	return func(o *Options) error {
		if maxBytes < 0 {
			return stateerrors.ErrInvalidConfig
		}
		o.MaxBytes = maxBytes
		return nil
	}
}

// WithUnlimitedBytes removes the byte budget
func WithUnlimitedBytes() Option {
	return func(o *Options) error {
		o.MaxBytes = 0
		return nil
	}
}

// Apply applies the given options to the Options struct
func (o *Options) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}
