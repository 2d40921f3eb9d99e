// Package kvstore is the failure-tolerant boundary between the ledgers and persistent storage.
//
// A Store never returns an error to its caller. It probes its backend once with a write and a
// remove; if that fails, every read is reported as absent and every write is dropped. Failures
// after a successful probe are swallowed too, but they flip Degraded and are logged.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mechedu-quiz-service/internal/domain"
	"mechedu-quiz-service/internal/logger"
)

var (
	// ErrNotFound is returned by backends when a key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrBackend wraps backend panics.
	ErrBackend = errors.New("storage backend failure")
)

const probeKey = "__storage_probe__"

// DefaultTimeout bounds a single backend call when no WithTimeout option is given.
const DefaultTimeout = 2 * time.Second

// Backend is the raw persistence layer (process memory, Redis, ...).
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store wraps a Backend with the never-fail contract.
type Store struct {
	backend   Backend
	namespace string
	timeout   time.Duration
	log       *logger.Logger

	probeOnce sync.Once
	available bool
	probeErr  error
	degraded  atomic.Bool
}

// Option customizes a Store.
type Option func(*Store)

// WithNamespace prefixes every key with ns + ":".
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		timeout: DefaultTimeout,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TryGet returns the value stored under key, or false when it is absent or storage is unavailable.
func (s *Store) TryGet(key string) (string, bool) {
	if !s.probe() {
		return "", false
	}
	var value string
	err := s.guard("get", key, func(ctx context.Context) error {
		v, err := s.backend.Get(ctx, s.key(key))
		value = v
		return err
	})
	if err != nil {
		return "", false
	}
	return value, true
}

// TrySet stores value under key. Failures are swallowed.
func (s *Store) TrySet(key, value string) {
	if !s.probe() {
		return
	}
	_ = s.guard("set", key, func(ctx context.Context) error {
		return s.backend.Set(ctx, s.key(key), value)
	})
}

// Available reports whether the availability probe succeeded. It triggers the probe if needed.
func (s *Store) Available() bool {
	return s.probe()
}

// Err returns why storage was disabled, wrapping domain.ErrStorageUnavailable, or nil.
func (s *Store) Err() error {
	s.probe()
	return s.probeErr
}

// Degraded reports whether any operation (including the probe) has failed.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

func (s *Store) probe() bool {
	s.probeOnce.Do(func() {
		err := s.guard("probe", probeKey, func(ctx context.Context) error {
			if err := s.backend.Set(ctx, s.key(probeKey), probeKey); err != nil {
				return err
			}
			return s.backend.Remove(ctx, s.key(probeKey))
		})
		s.available = err == nil
		if !s.available {
			s.probeErr = fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
			s.log.Warn("storage unavailable, persistence disabled", "error", s.probeErr)
		}
	})
	return s.available
}

// guard runs op with a timeout, converting panics into errors. ErrNotFound is not a failure.
func (s *Store) guard(op, key string, fn func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: backend panic: %v", ErrBackend, r)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.degraded.Store(true)
			s.log.Warn("storage operation failed", "op", op, "key", key, "error", err)
		}
	}()
	return fn(ctx)
}

func (s *Store) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}
