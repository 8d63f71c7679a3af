package settings_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-admin/internal/settings"
)

// Runs against the Redis instance named by REDIS_ADDR_TEST.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	cache := settings.NewRedisCache(client, "shop-admin-test")
	t.Cleanup(func() { _ = cache.Delete(ctx, "site_name") })

	_, ok, err := cache.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.False(t, ok, "missing key is a miss, not an error")

	require.NoError(t, cache.Set(ctx, "site_name", "Shop", time.Minute))
	value, ok, err := cache.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Shop", value)

	raw, err := client.Get(ctx, "shop-admin-test:setting:site_name").Result()
	require.NoError(t, err)
	assert.Equal(t, "Shop", raw)

	require.NoError(t, cache.Delete(ctx, "site_name"))
	_, ok, err = cache.Get(ctx, "site_name")
	require.NoError(t, err)
	assert.False(t, ok)
}
