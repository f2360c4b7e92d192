package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// listKeyPrefix is the Redis key prefix for cached list responses.
const listKeyPrefix = "list:"

// ErrCacheMiss indicates the requested entry is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// listKey builds the cache key for one user's view of one resource. Entries
// are keyed per user so a cached list can never leak rows across principals;
// they are only ever written from results that already passed the visibility
// rule.
func listKey(resource, userID string) string {
	return listKeyPrefix + resource + ":" + userID
}

// GetList retrieves a cached list response body.
// Returns ErrCacheMiss if not present.
func (c *Cache) GetList(ctx context.Context, resource, userID string) ([]byte, error) {
	data, err := c.client.Get(ctx, listKey(resource, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached list: %w", err)
	}
	return data, nil
}

// SetList stores a list response body with a time-boxed TTL.
func (c *Cache) SetList(ctx context.Context, resource, userID string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, listKey(resource, userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache list: %w", err)
	}
	return nil
}

// InvalidateList drops a user's cached list for a resource. Called after any
// mutation of that resource by that user.
func (c *Cache) InvalidateList(ctx context.Context, resource, userID string) error {
	if err := c.client.Del(ctx, listKey(resource, userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached list: %w", err)
	}
	return nil
}
