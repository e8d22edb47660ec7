package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campverse/authcore/internal"
)

const defaultPrefix = "rv"

// RedisCache stores revocation markers as TTL'd keys.
type RedisCache struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

// NewRedisCache builds a cache. opTimeout bounds every call; zero disables it.
func NewRedisCache(client redis.UniversalClient, prefix string, opTimeout time.Duration) *RedisCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisCache{
		redis:     client,
		prefix:    prefix,
		opTimeout: opTimeout,
	}
}

func (c *RedisCache) sessionKey(sessionID string) string {
	return c.prefix + ":s:" + sessionID
}

func (c *RedisCache) tokenKey(token string) string {
	return c.prefix + ":t:" + internal.HashString(token)
}

func (c *RedisCache) BlacklistSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" || ttl <= 0 {
		return nil
	}
	return c.set(ctx, c.sessionKey(sessionID), ttl)
}

func (c *RedisCache) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return nil
	}
	return c.set(ctx, c.tokenKey(token), ttl)
}

func (c *RedisCache) IsBlacklisted(ctx context.Context, sessionID, token string) (bool, error) {
	keys := make([]string, 0, 2)
	if sessionID != "" {
		keys = append(keys, c.sessionKey(sessionID))
	}
	if token != "" {
		keys = append(keys, c.tokenKey(token))
	}
	if len(keys) == 0 {
		return false, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	n, err := c.redis.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

func (c *RedisCache) set(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

var _ Cache = (*RedisCache)(nil)
