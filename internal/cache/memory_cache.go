package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt int64 // Unix nanoseconds; zero means no expiry
}

type shard[V any] struct {
	sync.RWMutex
	entries map[string]entry[V]
}

// MemoryCache is an in-process Cache backed by sharded maps. Reads expire
// entries lazily; a background janitor sweeps the rest so long-idle keys
// do not pin memory.
type MemoryCache[V any] struct {
	shards []*shard[V]
	done   chan struct{}
}

// NewMemoryCache creates a cache with 256 shards and a 30s janitor sweep.
func NewMemoryCache[V any]() *MemoryCache[V] {
	return NewMemoryCacheWithOptions[V](256, 30*time.Second)
}

// NewMemoryCacheWithOptions creates a cache with explicit shard count and
// janitor interval.
func NewMemoryCacheWithOptions[V any](shardCount int, janitorInterval time.Duration) *MemoryCache[V] {
	mc := &MemoryCache[V]{
		shards: make([]*shard[V], shardCount),
		done:   make(chan struct{}),
	}
	for i := range mc.shards {
		mc.shards[i] = &shard[V]{entries: make(map[string]entry[V])}
	}
	go mc.janitor(janitorInterval)
	return mc
}

// Stop shuts down the janitor. Safe to call more than once.
func (mc *MemoryCache[V]) Stop() {
	select {
	case <-mc.done:
	default:
		close(mc.done)
	}
}

func (mc *MemoryCache[V]) shardFor(key string) *shard[V] {
	return mc.shards[int(fnv32(key))%len(mc.shards)]
}

// fnv32 is FNV-1a, inlined to keep the hot path allocation-free.
func fnv32(key string) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= prime
	}
	return h
}

// Get takes the write lock up front so an expired entry can be deleted in
// the same critical section as the lookup.
func (mc *MemoryCache[V]) Get(_ context.Context, key string) (V, error) {
	s := mc.shardFor(key)
	s.Lock()
	defer s.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, ErrCacheMiss
	}
	if ent.expiresAt > 0 && time.Now().UnixNano() > ent.expiresAt {
		delete(s.entries, key)
		var zero V
		return zero, ErrCacheMiss
	}
	return ent.value, nil
}

func (mc *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	s := mc.shardFor(key)
	s.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.Unlock()
	return nil
}

func (mc *MemoryCache[V]) Delete(_ context.Context, key string) error {
	s := mc.shardFor(key)
	s.Lock()
	delete(s.entries, key)
	s.Unlock()
	return nil
}

// MGet groups keys by shard so each shard is locked once per call.
func (mc *MemoryCache[V]) MGet(_ context.Context, keys ...string) ([]V, []error) {
	results := make([]V, len(keys))
	errs := make([]error, len(keys))

	type lookup struct {
		idx int
		key string
	}
	byShard := make(map[*shard[V]][]lookup)
	for i, key := range keys {
		s := mc.shardFor(key)
		byShard[s] = append(byShard[s], lookup{idx: i, key: key})
	}

	for s, lookups := range byShard {
		now := time.Now().UnixNano()
		s.Lock()
		for _, l := range lookups {
			ent, ok := s.entries[l.key]
			switch {
			case !ok:
				errs[l.idx] = ErrCacheMiss
			case ent.expiresAt > 0 && now > ent.expiresAt:
				delete(s.entries, l.key)
				errs[l.idx] = ErrCacheMiss
			default:
				results[l.idx] = ent.value
			}
		}
		s.Unlock()
	}
	return results, errs
}

func (mc *MemoryCache[V]) MSet(_ context.Context, kv map[string]V, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	byShard := make(map[*shard[V]]map[string]entry[V])
	for key, value := range kv {
		s := mc.shardFor(key)
		if byShard[s] == nil {
			byShard[s] = make(map[string]entry[V])
		}
		byShard[s][key] = entry[V]{value: value, expiresAt: expiresAt}
	}
	for s, entries := range byShard {
		s.Lock()
		for key, ent := range entries {
			s.entries[key] = ent
		}
		s.Unlock()
	}
	return nil
}

func (mc *MemoryCache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now().UnixNano()
			for _, s := range mc.shards {
				s.Lock()
				for key, ent := range s.entries {
					if ent.expiresAt > 0 && now > ent.expiresAt {
						delete(s.entries, key)
					}
				}
				s.Unlock()
			}
		case <-mc.done:
			return
		}
	}
}
