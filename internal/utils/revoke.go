package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func revokedKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}

// RevokeToken marks a token id as revoked until the token would have expired anyway
func RevokeToken(ctx context.Context, rdb *redis.Client, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

// IsTokenRevoked reports whether RevokeToken was called for tokenID
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, tokenID string) (bool, error) {
	n, err := rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
