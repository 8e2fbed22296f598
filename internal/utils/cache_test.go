package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestUserCacheRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	cache := NewUserCache[[]string](rdb, "things:user:", time.Minute)
	assert.Equal(t, "things:user:7", cache.Key(7))

	_, found, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, 7, []string{"a", "b"}))
	got, found, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, time.Minute, mr.TTL("things:user:7"))

	// values are per user
	_, found, err = cache.Get(ctx, 8)
	require.NoError(t, err)
	assert.False(t, found)

	mr.FastForward(2 * time.Minute)
	_, found, err = cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, 7, []string{"c"}))
	require.NoError(t, cache.Invalidate(ctx, 7))
	assert.False(t, mr.Exists("things:user:7"))
}

func TestUserCacheCorruptValue(t *testing.T) {
	mr, rdb := newRedis(t)
	cache := NewUserCache[[]string](rdb, "things:user:", time.Minute)
	require.NoError(t, mr.Set("things:user:1", "{not json"))

	_, found, err := cache.Get(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRevokeToken(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, rdb, "jti-1", time.Now().Add(10*time.Minute)))
	revoked, err = IsTokenRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(11 * time.Minute)
	revoked, err = IsTokenRevoked(ctx, rdb, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, RevokeToken(ctx, rdb, "jti-2", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists(revokedKey("jti-2")))
}
