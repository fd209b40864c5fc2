package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend names accepted by NewCache and the CACHE_BACKEND setting.
const (
	RedisBackend  = "redis"
	MemoryBackend = "memory"
)

// ErrCacheMiss is returned by Get and per-key by MGet when a key is absent
// or has expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache stores values of a single type V. Implementations are safe for
// concurrent use.
type Cache[V any] interface {
	// Get returns the value stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (V, error)
	// Set stores value under key. A zero ttl keeps the entry until deleted.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// MGet looks up all keys in one call. Both slices match the key order;
	// a missing key yields the zero value and ErrCacheMiss at its index.
	MGet(ctx context.Context, keys ...string) ([]V, []error)
	// MSet stores every pair in kv with the same ttl.
	MSet(ctx context.Context, kv map[string]V, ttl time.Duration) error
}

// NewCache builds a cache for the named backend. The Redis backend expects
// a *RedisOptions as the first option. Unknown backends panic: the backend
// name comes from startup config, not request input.
func NewCache[V any](backend string, opts ...interface{}) Cache[V] {
	switch backend {
	case RedisBackend:
		return NewRedisCache[V](opts[0].(*RedisOptions))
	case MemoryBackend:
		return NewMemoryCache[V]()
	default:
		panic(fmt.Sprintf("cache: unsupported backend %q", backend))
	}
}
