package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked_refresh:"

// RedisRevocationStore keeps revocations in Redis so every instance sees them.
type RedisRevocationStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRevocationStore creates a store on top of an existing client.
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, now: time.Now}
}

// Revoke implements RevocationStore with SET NX so two concurrent refreshes
// with the same token cannot both succeed.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) (bool, error) {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		// Already expired tokens fail verification on their own.
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, revokedKeyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to revoke refresh token")
	}
	return ok, nil
}

// IsRevoked implements RevocationStore.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check refresh token revocation")
	}
	return n > 0, nil
}
