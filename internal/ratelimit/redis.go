package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter and starts its expiry on the first hit
// only, so later hits never extend the window.
var fixedWindow = redis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {c, redis.call('PTTL', KEYS[1])}
`)

// Redis is a fixed-window limiter whose counters live in Redis, so every
// instance sharing the server sees the same windows.
type Redis struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewRedis allows limit hits per key in every window.
func NewRedis(client redis.Scripter, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

// Allow counts one hit for key.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, errors.Wrap(err, "rate limit script")
	}
	if len(vals) != 2 {
		return Result{}, errors.Errorf("rate limit script returned %d values", len(vals))
	}

	count := int(vals[0])
	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = r.window
	}
	resetAt := time.Now().Add(ttl)

	if count > r.limit {
		return Result{Allowed: false, Limit: r.limit, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Limit: r.limit, Remaining: r.limit - count, ResetAt: resetAt}, nil
}
