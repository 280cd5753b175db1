package store

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// FileConfig holds file-based substrate configuration
type FileConfig struct {
	// Directory is the base directory for storing entries
	Directory string

	// FileExtension is the extension for entry files
	FileExtension string

	// CompressionEnabled enables gzip compression of stored values
	CompressionEnabled bool

	// CompressionLevel sets the gzip compression level (1-9)
	CompressionLevel int
}

// DefaultFileConfig returns a FileConfig with sensible defaults
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Directory:          "state",
		FileExtension:      ".state",
		CompressionEnabled: false,
		CompressionLevel:   gzip.DefaultCompression,
	}
}

// fileStore implements Store using one file per key. Writes go through a
// temp file and rename so a crash never leaves a half-written entry.
type fileStore struct {
	config    *FileConfig
	mu        sync.RWMutex
	usedBytes int64
	maxBytes  int64
	closed    bool
	closeOnce sync.Once
}

// NewFileStore creates a new file-based substrate rooted at config.Directory
func NewFileStore(config *FileConfig, opts ...Option) (Store, error) {
	if config == nil {
		config = DefaultFileConfig()
	}
	if config.FileExtension == "" {
		config.FileExtension = ".state"
	}
	if config.CompressionLevel < gzip.HuffmanOnly || config.CompressionLevel > gzip.BestCompression {
		config.CompressionLevel = gzip.DefaultCompression
	}

	options := NewOptions()
	if err := options.Apply(opts...); err != nil {
		return nil, stateerrors.WrapError("NewFileStore", nil, err)
	}

	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, stateerrors.WrapError("NewFileStore", nil, stateerrors.ErrStoreUnavailable)
	}

	f := &fileStore{
		config:   config,
		maxBytes: options.MaxBytes,
	}

	used, err := f.scanUsage()
	if err != nil {
		return nil, stateerrors.WrapError("NewFileStore", nil, stateerrors.ErrStoreUnavailable)
	}
	f.usedBytes = used

	return f, nil
}

// scanUsage sums the sizes of existing entry files so the quota survives
// process restarts.
func (f *fileStore) scanUsage() (int64, error) {
	var total int64
	entries, err := os.ReadDir(f.config.Directory)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), f.config.FileExtension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// entryPath maps a key to its file path. Path escaping keeps distinct keys
// on distinct files and keeps separators out of file names.
func (f *fileStore) entryPath(key string) string {
	return filepath.Join(f.config.Directory, url.PathEscape(key)+f.config.FileExtension)
}

// Get retrieves the raw string stored under key
func (f *fileStore) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return "", false, stateerrors.WrapError("Get", key, stateerrors.ErrStoreUnavailable)
	}

	data, err := os.ReadFile(f.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, stateerrors.WrapError("Get", key, stateerrors.ErrStoreUnavailable)
	}

	if f.config.CompressionEnabled {
		data, err = gunzip(data)
		if err != nil {
			return "", false, stateerrors.WrapError("Get", key, stateerrors.ErrMalformedValue)
		}
	}

	return string(data), true, nil
}

// Set stores a raw string under key
func (f *fileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return stateerrors.WrapError("Set", key, stateerrors.ErrStoreUnavailable)
	}

	data := []byte(value)
	if f.config.CompressionEnabled {
		var err error
		data, err = gzipBytes(data, f.config.CompressionLevel)
		if err != nil {
			return stateerrors.WrapError("Set", key, stateerrors.ErrSerialization)
		}
	}

	path := f.entryPath(key)
	var oldSize int64
	if info, err := os.Stat(path); err == nil {
		oldSize = info.Size()
	}

	newUsed := f.usedBytes - oldSize + int64(len(data))
	if f.maxBytes > 0 && newUsed > f.maxBytes {
		return stateerrors.WrapError("Set", key, stateerrors.ErrQuotaExceeded)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return stateerrors.WrapError("Set", key, stateerrors.ErrStoreUnavailable)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return stateerrors.WrapError("Set", key, stateerrors.ErrStoreUnavailable)
	}

	f.usedBytes = newUsed
	return nil
}

// Remove deletes the key
func (f *fileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return stateerrors.WrapError("Remove", key, stateerrors.ErrStoreUnavailable)
	}

	path := f.entryPath(key)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return stateerrors.WrapError("Remove", key, stateerrors.ErrStoreUnavailable)
	}

	if err := os.Remove(path); err != nil {
		return stateerrors.WrapError("Remove", key, stateerrors.ErrStoreUnavailable)
	}
	f.usedBytes -= info.Size()
	return nil
}

// Keys returns all keys currently present
func (f *fileStore) Keys() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, stateerrors.WrapError("Keys", nil, stateerrors.ErrStoreUnavailable)
	}

	entries, err := os.ReadDir(f.config.Directory)
	if err != nil {
		return nil, stateerrors.WrapError("Keys", nil, stateerrors.ErrStoreUnavailable)
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), f.config.FileExtension) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), f.config.FileExtension)
		key, err := url.PathUnescape(name)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Close marks the substrate unavailable. Files on disk are left intact.
func (f *fileStore) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed = true
	})
	return nil
}

func gzipBytes(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
