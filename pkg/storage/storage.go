// Package storage defines the key/value cache views use to memoize rendered
// template output, plus helpers to derive keys and expiry times.
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Storage is a string cache with absolute expiry. Get reports a miss with
// ok == false and a nil error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, expiresAt time.Time) error
	Delete(ctx context.Context, key string) error
}

// Key derives the cache key for a resolved template path. Only the path takes
// part in the key.
func Key(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}
