package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	stateerrors "github.com/MathiasBohn/philter-mvp-sub003/errors"
)

// RESTConfig holds the connection settings for a remote REST counter
// service. The service speaks a command interface: each request POSTs a JSON
// command array and receives {"result": ...} back.
type RESTConfig struct {
	// URL is the base endpoint of the counter service.
	URL string `env:"RATE_LIMIT_REST_URL"`

	// Token is sent as a bearer token on every command.
	Token string `env:"RATE_LIMIT_REST_TOKEN"`

	// Timeout bounds each command round trip.
	Timeout time.Duration `env:"RATE_LIMIT_REST_TIMEOUT" envDefault:"2s"`
}

// ConfigFromEnv reads RESTConfig from the environment.
func ConfigFromEnv() (RESTConfig, error) {
	var cfg RESTConfig
	if err := env.Parse(&cfg); err != nil {
		return RESTConfig{}, fmt.Errorf("parse rate limit env: %w", err)
	}
	return cfg, nil
}

// RESTStore is a CounterStore backed by a remote REST counter service, so
// multiple instances share one set of counters.
type RESTStore struct {
	cfg    RESTConfig
	client *http.Client
	now    func() time.Time
}

// NewRESTStore creates a remote counter store. URL and Token are required.
func NewRESTStore(cfg RESTConfig) (*RESTStore, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, stateerrors.WrapError("NewRESTStore", nil, stateerrors.ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &RESTStore{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}, nil
}

// NewStoreFromEnv returns a RESTStore when the environment configures one,
// falling back to an in-process MemoryStore otherwise.
func NewStoreFromEnv() (CounterStore, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" || cfg.Token == "" {
		return NewMemoryStore(), nil
	}
	return NewRESTStore(cfg)
}

// Increment counts one request for key on the remote service. The counter is
// given a TTL of one window when it is created, so the remote side expires
// windows on its own.
func (s *RESTStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	count, err := s.command(ctx, "INCR", key)
	if err != nil {
		return 0, time.Time{}, err
	}

	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	if count == 1 {
		if _, err := s.command(ctx, "EXPIRE", key, strconv.FormatInt(seconds, 10)); err != nil {
			return 0, time.Time{}, err
		}
		return count, s.now().Add(window), nil
	}

	ttl, err := s.command(ctx, "TTL", key)
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// The counter has no expiry (it raced with expiration or the EXPIRE
		// was lost); treat the window as starting now.
		ttl = seconds
	}
	return count, s.now().Add(time.Duration(ttl) * time.Second), nil
}

// Get reads the raw value stored under key on the remote service. It is part
// of the remote command surface; the limiter itself only issues INCR, EXPIRE
// and TTL.
func (s *RESTStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.rawCommand(ctx, "GET", key)
	if err != nil {
		return "", false, err
	}
	if string(raw) == "null" {
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, stateerrors.WrapError("Get", key, stateerrors.ErrRemoteUnavailable)
	}
	return value, true, nil
}

// Set stores a raw value under key on the remote service.
func (s *RESTStore) Set(ctx context.Context, key, value string) error {
	_, err := s.rawCommand(ctx, "SET", key, value)
	return err
}

// Close releases the store. The underlying HTTP client needs no teardown.
func (s *RESTStore) Close() error {
	return nil
}

// command issues one command and decodes the numeric result.
func (s *RESTStore) command(ctx context.Context, parts ...string) (int64, error) {
	raw, err := s.rawCommand(ctx, parts...)
	if err != nil {
		return 0, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}
	return v, nil
}

// rawCommand POSTs one JSON command array and returns the raw result field.
// Every failure mode maps to ErrRemoteUnavailable so callers fail open.
func (s *RESTStore) rawCommand(ctx context.Context, parts ...string) (json.RawMessage, error) {
	body, err := json.Marshal(parts)
	if err != nil {
		return nil, stateerrors.WrapError("command", parts[0], stateerrors.ErrSerialization)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}

	var out struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, stateerrors.WrapError("command", parts[0], stateerrors.ErrRemoteUnavailable)
	}
	return out.Result, nil
}
