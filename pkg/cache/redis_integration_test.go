//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Komal-TGT/Storage-service/pkg/cache"
	"github.com/Komal-TGT/Storage-service/pkg/redis"
)

type policy struct {
	ID          string `json:"id"`
	Permissions string `json:"permissions"`
}

func TestRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "test:" + uuid.NewString()
	c := cache.NewRedis[policy](client, prefix)

	_, err = c.Get(ctx, "permanent-read")
	require.ErrorIs(t, err, cache.ErrNotFound)

	want := policy{ID: "permanent-read", Permissions: "r"}
	added, err := c.Add(ctx, "permanent-read", want, time.Minute)
	require.NoError(t, err)
	require.True(t, added)

	added, err = c.Add(ctx, "permanent-read", policy{ID: "other"}, time.Minute)
	require.NoError(t, err)
	require.False(t, added)

	got, err := c.Get(ctx, "permanent-read")
	require.NoError(t, err)
	require.Equal(t, want, got)

	ttl, err := client.TTL(ctx, prefix+":permanent-read").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	// A second store on the same prefix sees the invalidation, and the
	// tombstone blocks a late write.
	require.NoError(t, cache.NewRedis[policy](client, prefix).Invalidate(ctx, "permanent-read", time.Minute))
	_, err = c.Get(ctx, "permanent-read")
	require.ErrorIs(t, err, cache.ErrNotFound)

	added, err = c.Add(ctx, "permanent-read", want, time.Minute)
	require.NoError(t, err)
	require.False(t, added)

	require.NoError(t, c.Invalidate(ctx, "permanent-read", 0))
	added, err = c.Add(ctx, "permanent-read", want, time.Minute)
	require.NoError(t, err)
	require.True(t, added)

	require.NoError(t, client.Set(ctx, prefix+":broken", "{", time.Minute).Err())
	_, err = c.Get(ctx, "broken")
	require.ErrorIs(t, err, cache.ErrUnmarshal)
}
