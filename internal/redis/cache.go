package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gemini-gateway/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - session:{session_id} - SessionTTL, never outlives the session itself
// - user:{user_id}       - UserTTL, profile cache

// CacheConfig contains configuration for caching
type CacheConfig struct {
	SessionTTL time.Duration
	UserTTL    time.Duration
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SessionTTL: 15 * time.Minute,
		UserTTL:    5 * time.Minute,
	}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
	now    func() time.Time
}

// NewCacheStore creates a new cache store
func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{
		client: client,
		config: config,
		now:    time.Now,
	}
}

// --- Session Cache ---

// SessionCache represents cached session data
type SessionCache struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id.String())
}

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetSession retrieves a session from cache. A miss returns (nil, nil).
func (c *CacheStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionCache, error) {
	var session SessionCache
	ok, err := c.getJSON(ctx, sessionKey(sessionID), &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}

// SetSession caches an active session. Revoked or expired sessions are not cached.
func (c *CacheStore) SetSession(ctx context.Context, s user.UserSession) error {
	now := c.now()
	if !s.Active(now) {
		return nil
	}
	ttl := c.config.SessionTTL
	if remaining := s.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	return c.setJSON(ctx, sessionKey(s.ID), SessionCache{
		SessionID: s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
	}, ttl)
}

// InvalidateSession removes a session from cache
func (c *CacheStore) InvalidateSession(ctx context.Context, sessionID uuid.UUID) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

// --- User Cache ---

// UserCache represents cached user data
type UserCache struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUser retrieves a user from cache. A miss returns (nil, nil).
func (c *CacheStore) GetUser(ctx context.Context, userID uuid.UUID) (*UserCache, error) {
	var u UserCache
	ok, err := c.getJSON(ctx, userKey(userID), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// SetUser stores the public part of a user in cache
func (c *CacheStore) SetUser(ctx context.Context, u user.User) error {
	return c.setJSON(ctx, userKey(u.ID), UserCache{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}, c.config.UserTTL)
}

func (c *CacheStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false, nil // Cache miss
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *CacheStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
