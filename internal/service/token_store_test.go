package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryTokenStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "live", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "already-expired", now.Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, store.revoked)
}

func TestMemoryTokenStore_RevokeOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryTokenStore()
	store.now = func() time.Time { return now }

	first, err := store.RevokeOnce(ctx, "refresh", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.RevokeOnce(ctx, "refresh", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	revoked, err := store.IsRevoked(ctx, "refresh")
	require.NoError(t, err)
	assert.True(t, revoked)

	expired, err := store.RevokeOnce(ctx, "old", now.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, expired)

	const callers = 50
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.RevokeOnce(ctx, "contended", now.Add(time.Hour)); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisTokenStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisTokenStore(client)

	require.NoError(t, store.Revoke(ctx, "abc", time.Now().Add(time.Minute)))
	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, revokedKeyPrefix+"abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	revoked, err = store.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "stale", time.Now().Add(-time.Second)))
	revoked, err = store.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	first, err := store.RevokeOnce(ctx, "refresh", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, first)
	again, err := store.RevokeOnce(ctx, "refresh", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, again)
}
