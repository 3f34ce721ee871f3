package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tombstone marks an invalidated key. It is not valid JSON, so no encoded
// value can collide with it.
var tombstone = []byte("\x00gone")

// Redis is a Store shared across processes. Values are JSON encoded and
// keys live under "prefix:".
type Redis[V any] struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis stores entries through client, which is usually obtained from
// pkg/redis.Open.
func NewRedis[V any](client redis.UniversalClient, prefix string) *Redis[V] {
	return &Redis[V]{client: client, prefix: prefix}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var v V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) || bytes.Equal(data, tombstone) {
		return v, ErrNotFound
	}
	if err != nil {
		return v, err
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrUnmarshal, key, err)
	}
	return v, nil
}

// Add writes value with SET NX. Redis treats a zero expiration as
// persistent, which matches the Store contract for non-positive ttl.
func (r *Redis[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMarshal, key, err)
	}
	return r.client.SetNX(ctx, r.key(key), data, max(ttl, 0)).Result()
}

func (r *Redis[V]) Invalidate(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(key)).Err()
	}
	return r.client.Set(ctx, r.key(key), tombstone, ttl).Err()
}

func (r *Redis[V]) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

var _ Store[any] = (*Redis[any])(nil)
