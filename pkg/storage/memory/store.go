// Package memory provides an in-process, size-bounded storage backend.
package memory

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-view/pkg/storage"
)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 512

type entry struct {
	value     string
	expiresAt time.Time
}

// Store keeps rendered output in an LRU. Expired entries are dropped lazily on
// read.
type Store struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// Ensure Store implements storage.Storage.
var _ storage.Storage = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to evaluate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store holding at most size entries. A size <= 0 uses
// DefaultSize.
func New(size int, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("memory: create lru: %w", err)
	}

	store := &Store{
		cache: cache,
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(store)
	}
	return store, nil
}

// Get returns a live entry.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.After(s.now()) {
		s.cache.Remove(key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value until expiresAt. Entries that are already expired are not
// stored, and any previous value for key is dropped.
func (s *Store) Set(_ context.Context, key, value string, expiresAt time.Time) error {
	if !expiresAt.After(s.now()) {
		s.cache.Remove(key)
		return nil
	}
	s.cache.Add(key, entry{value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Purge drops every entry.
func (s *Store) Purge() {
	s.cache.Purge()
}
