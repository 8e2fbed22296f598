package utils

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// countAttempt increments the counter and (re)arms its expiry in one step,
// so a counter can never be left without a TTL.
var countAttempt = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// CountAttempt increments a fixed-window counter and returns the count
// within the current window. The window starts with the first attempt.
func CountAttempt(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, error) {
	return countAttempt.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int64()
}

// ResetAttempts clears a counter kept by CountAttempt
func ResetAttempts(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}

// LoginLimiter caps login attempts per email within a fixed window
type LoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter returns a limiter allowing maxAttempts per window
func NewLoginLimiter(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, maxAttempts: int64(maxAttempts), window: window}
}

func loginKey(email string) string {
	return "auth:login:" + strings.ToLower(strings.TrimSpace(email))
}

// Allow records an attempt for email and reports whether it is within the limit
func (l *LoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	n, err := CountAttempt(ctx, l.rdb, loginKey(email), l.window)
	if err != nil {
		return false, err
	}
	return n <= l.maxAttempts, nil
}

// Reset forgets the attempts recorded for email, called after a successful login
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	return ResetAttempts(ctx, l.rdb, loginKey(email))
}

// Window is the length of one rate limit window
func (l *LoginLimiter) Window() time.Duration {
	return l.window
}
