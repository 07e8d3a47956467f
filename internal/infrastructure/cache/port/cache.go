package port

import (
	"context"
	"time"
)

// Cache is the minimal key-value contract the application depends on; unread
// counts are its only current tenant. Implementations must be safe for
// concurrent use and honor context cancellation.
//
// Values are strings: serialization stays with the callers so the port does
// not grow codec opinions.
type Cache interface {
	// Get fetches the value for key, returning ErrMiss when the key is absent.
	// A non-nil error other than ErrMiss means a transport or server failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL means
	// no expiration (persist until evicted).
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way, so callers can tell misses
// from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
