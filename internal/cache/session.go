package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for server-side sessions.
const sessionKeyPrefix = "session:"

// ErrSessionNotFound indicates the session does not exist or was revoked.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is the server-side state for one login session. A token whose
// session record is gone is treated as revoked even if its signature is still
// valid.
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SetSession stores a session record under its session ID with the given TTL.
func (c *Cache) SetSession(ctx context.Context, sessionID string, record *SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	if err := c.client.Set(ctx, sessionKeyPrefix+sessionID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession retrieves a session record by session ID.
// Returns ErrSessionNotFound if the session is absent or expired.
func (c *Cache) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Corrupted entry - treat as revoked
		return nil, ErrSessionNotFound
	}

	return &record, nil
}

// DeleteSession revokes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
