package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/us-matching/internal/config"
)

// IncomingLikesTTL bounds how stale a cached incoming-like count may get.
const IncomingLikesTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForIncomingLikes generates the Redis key for a user's incoming-like count.
func (c *RedisCache) KeyForIncomingLikes(userID string) string {
	return fmt.Sprintf("likes:incoming:count:%s", userID)
}

// SetIncomingLikeCount stores a freshly computed count with a full TTL.
func (c *RedisCache) SetIncomingLikeCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForIncomingLikes(userID), count, IncomingLikesTTL).Err()
}

// GetIncomingLikeCount returns the cached count. ok is false on a miss or an
// unreadable value; the caller then recomputes from the store.
func (c *RedisCache) GetIncomingLikeCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForIncomingLikes(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, perr := strconv.ParseInt(val, 10, 64)
	if perr != nil || n < 0 {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, IncomingLikesTTL).Err()
	return n, true, nil
}

// InvalidateIncomingLikes drops the cached count after a like or a decline.
func (c *RedisCache) InvalidateIncomingLikes(ctx context.Context, userID string) error {
	return c.Del(ctx, c.KeyForIncomingLikes(userID))
}
