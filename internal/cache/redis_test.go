package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/us-matching/internal/cache"
	"github.com/oggyb/us-matching/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestIncomingLikeCount(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	_, ok, err := c.GetIncomingLikeCount(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	require.NoError(t, c.SetIncomingLikeCount(ctx, "alice", 3))
	assert.Equal(t, cache.IncomingLikesTTL, mr.TTL("likes:incoming:count:alice"))

	mr.FastForward(30 * time.Minute)
	n, ok, err := c.GetIncomingLikeCount(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, cache.IncomingLikesTTL, mr.TTL("likes:incoming:count:alice"), "hit refreshes the TTL")

	require.NoError(t, c.InvalidateIncomingLikes(ctx, "alice"))
	assert.False(t, mr.Exists("likes:incoming:count:alice"))
}

func TestIncomingLikeCount_GarbageIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, mr.Set("likes:incoming:count:bob", "nope"))
	_, ok, err := c.GetIncomingLikeCount(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncomingLikeCount_RedisDown(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)
	mr.Close()

	_, ok, err := c.GetIncomingLikeCount(ctx, "carol")
	assert.Error(t, err)
	assert.False(t, ok)
}
