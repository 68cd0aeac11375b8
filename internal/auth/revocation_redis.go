package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RedisRevocationRegistry shares revocations across instances. Each entry
// lives exactly as long as the token it revokes.
type RedisRevocationRegistry struct {
	client redis.Cmdable
	now    Clock
}

// NewRedisRevocationRegistry wraps a go-redis client. A nil clock uses time.Now.
func NewRedisRevocationRegistry(client redis.Cmdable, now Clock) *RedisRevocationRegistry {
	if now == nil {
		now = time.Now
	}
	return &RedisRevocationRegistry{client: client, now: now}
}

// RevokedKey is the redis key for token. Raw tokens are never stored.
func RevokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}

// Revoke stores the token hash with TTL equal to its remaining lifetime.
// Tokens that have already expired are not stored.
func (r *RedisRevocationRegistry) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	now := r.now()
	ttl := expiresAt.Sub(now)
	if expiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return nil
	}
	if err := r.client.SetNX(ctx, RevokedKey(token), now.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke: %v", ErrLookupUnavailable, err)
	}
	return nil
}

// IsRevoked checks for the token hash.
func (r *RedisRevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, RevokedKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation check: %v", ErrLookupUnavailable, err)
	}
	return n > 0, nil
}

// NewRevocationRegistry picks a backend by name: "memory" keeps revocations
// in process, "redis" shares them through client.
func NewRevocationRegistry(backend string, client redis.Cmdable) (RevocationRegistry, error) {
	switch backend {
	case "memory":
		return NewMemoryRevocationRegistry(nil), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis revocation backend needs a client")
		}
		return NewRedisRevocationRegistry(client, nil), nil
	}
	return nil, fmt.Errorf("unknown revocation backend %q", backend)
}
