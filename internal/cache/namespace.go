package cache

import (
	"context"
	"time"
)

// Namespaced wraps a Cache and prefixes every key, so independent features
// can share one backend without colliding.
type Namespaced[V any] struct {
	inner  Cache[V]
	prefix string
}

// NewNamespaced returns a namespaced view over inner. The prefix is
// prepended verbatim, so include a trailing separator if you want one.
func NewNamespaced[V any](inner Cache[V], prefix string) *Namespaced[V] {
	return &Namespaced[V]{inner: inner, prefix: prefix}
}

func (n *Namespaced[V]) key(k string) string {
	return n.prefix + k
}

func (n *Namespaced[V]) Get(ctx context.Context, key string) (V, error) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *Namespaced[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	return n.inner.Set(ctx, n.key(key), value, ttl)
}

func (n *Namespaced[V]) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.key(key))
}

func (n *Namespaced[V]) MGet(ctx context.Context, keys ...string) ([]V, []error) {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = n.key(k)
	}
	return n.inner.MGet(ctx, prefixed...)
}

func (n *Namespaced[V]) MSet(ctx context.Context, kv map[string]V, ttl time.Duration) error {
	prefixed := make(map[string]V, len(kv))
	for k, v := range kv {
		prefixed[n.key(k)] = v
	}
	return n.inner.MSet(ctx, prefixed, ttl)
}
