// Package session tracks revoked session tokens so logout takes effect
// before a JWT expires.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Revoker stores revoked token ids until their expiry
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevoker keeps revoked token ids in Redis with a TTL matching the token expiry
type RedisRevoker struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisRevoker creates a RedisRevoker. Keys are "<prefix>revoked:<jti>".
func NewRedisRevoker(rdb *goredis.Client, prefix string) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, prefix: prefix}
}

func (r *RedisRevoker) key(tokenID string) string {
	return r.prefix + "revoked:" + tokenID
}

// Revoke marks the token id as revoked until the given time
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		// Already expired, the JWT check rejects it anyway
		return nil
	}
	if err := r.rdb.Set(ctx, r.key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id was revoked
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MemoryRevoker is a process-local Revoker used when Redis is not configured
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker creates an empty MemoryRevoker
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{revoked: make(map[string]time.Time), now: time.Now}
}

// Revoke marks the token id as revoked until the given time
func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	if until.After(now) {
		m.revoked[tokenID] = until
	}
	return nil
}

// IsRevoked reports whether the token id was revoked and has not expired yet
func (m *MemoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[tokenID]
	return ok && exp.After(m.now()), nil
}
