package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // redis.Nil comparison
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// UserCache keeps one JSON encoded value of type T per user in Redis
type UserCache[T any] struct {
	rdb    *redis.Client // Redis client
	prefix string        // Key prefix, the user id is appended
	ttl    time.Duration // Lifetime of a cached value
}

// NewUserCache returns a cache storing values under prefix+<user id>
func NewUserCache[T any](rdb *redis.Client, prefix string, ttl time.Duration) *UserCache[T] {
	return &UserCache[T]{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key holding the value of userID
func (c *UserCache[T]) Key(userID uint) string {
	return c.prefix + strconv.FormatUint(uint64(userID), 10)
}

// Get returns the cached value of userID; found is false on a miss
func (c *UserCache[T]) Get(ctx context.Context, userID uint) (value T, found bool, err error) {
	b, err := c.rdb.Get(ctx, c.Key(userID)).Bytes() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return value, false, nil // Key does not exist
	} else if err != nil {
		return value, false, err // Other Redis error
	}
	if err := json.Unmarshal(b, &value); err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Set stores value for userID with the cache TTL
func (c *UserCache[T]) Set(ctx context.Context, userID uint, value T) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, c.Key(userID), b, c.ttl).Err()
}

// Invalidate drops the cached value of userID
func (c *UserCache[T]) Invalidate(ctx context.Context, userID uint) error {
	return c.rdb.Del(ctx, c.Key(userID)).Err()
}
