package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindow counts hits per key in Redis using INCR with a window-length expiry.
// Counters live in Redis so every API instance shares the same budget.
type FixedWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewFixedWindow builds a limiter. A nil client or non-positive limit disables limiting.
func NewFixedWindow(client *redis.Client, prefix string, limit int, window time.Duration) *FixedWindow {
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &FixedWindow{client: client, limit: limit, window: window, prefix: prefix}
}

// Enabled reports whether the limiter enforces anything.
func (l *FixedWindow) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0
}

var incrWithExpiry = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// Allow records one hit for key and reports whether it fits in the current window.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	res, err := incrWithExpiry.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", redisKey, err)
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	if count > l.limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}
