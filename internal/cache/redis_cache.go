package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures both the underlying client pool and how individual
// operations behave.
type RedisOptions struct {
	Addr            string
	Password        string
	DB              int
	PoolSize        int
	MinIdleConns    int
	MaxRetries      int           // transient-error retries per command
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	OpTimeout       time.Duration // per-operation deadline; defaults to 50ms
}

// RedisCache stores values as JSON in Redis. Every operation runs under a
// short deadline so a slow Redis degrades reads into misses instead of
// stalling request handlers.
type RedisCache[V any] struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisCache builds a client from opts. The caller owns the returned
// cache and should Close it on shutdown.
func NewRedisCache[V any](opts *RedisOptions) *RedisCache[V] {
	timeout := opts.OpTimeout
	if timeout == 0 {
		timeout = 50 * time.Millisecond
	}
	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		PoolSize:        opts.PoolSize,
		MinIdleConns:    opts.MinIdleConns,
		MaxRetries:      opts.MaxRetries,
		MinRetryBackoff: opts.MinRetryBackoff,
		MaxRetryBackoff: opts.MaxRetryBackoff,
	})
	return &RedisCache[V]{
		client:  client,
		timeout: timeout,
	}
}

// Close releases the connection pool.
func (r *RedisCache[V]) Close() error {
	return r.client.Close()
}

func (r *RedisCache[V]) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *RedisCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrCacheMiss
	}
	if err != nil {
		return zero, err
	}
	var val V
	if err := json.Unmarshal(data, &val); err != nil {
		return zero, err
	}
	return val, nil
}

func (r *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	// A zero ttl maps to no expiry on the Redis side as well.
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisCache[V]) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache[V]) MGet(ctx context.Context, keys ...string) ([]V, []error) {
	results := make([]V, len(keys))
	errs := make([]error, len(keys))

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	raws, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return results, errs
	}

	for i, raw := range raws {
		if raw == nil {
			errs[i] = ErrCacheMiss
			continue
		}
		val, err := decodeRaw[V](raw)
		if err != nil {
			errs[i] = err
			continue
		}
		results[i] = val
	}
	return results, errs
}

// decodeRaw handles the two payload shapes go-redis returns for MGET.
func decodeRaw[V any](raw interface{}) (V, error) {
	var zero V
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return zero, fmt.Errorf("unexpected type %T from redis", v)
	}
	var val V
	if err := json.Unmarshal(data, &val); err != nil {
		return zero, err
	}
	return val, nil
}

// MSet marshals everything before touching the network so a bad value
// fails the whole batch instead of leaving a partial write.
func (r *RedisCache[V]) MSet(ctx context.Context, kv map[string]V, ttl time.Duration) error {
	payloads := make(map[string][]byte, len(kv))
	for key, value := range kv {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		payloads[key] = data
	}

	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	pipe := r.client.Pipeline()
	for key, data := range payloads {
		pipe.Set(ctx, key, data, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
