// Package redis provides a Redis-backed storage for rendered templates.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/goliatone/go-view/pkg/storage"
)

const defaultPrefix = "goview:template:"

// Store implements storage.Storage using Redis.
type Store struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source used to skip already expired writes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

// Get retrieves a rendered template.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores value and lets Redis expire it at expiresAt.
func (s *Store) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	if !expiresAt.After(s.now()) {
		return s.Delete(ctx, key)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(key), value, 0)
	pipe.ExpireAt(ctx, s.key(key), expiresAt)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a rendered template.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
