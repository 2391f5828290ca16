package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrExpireScript increments the counter and starts the window on the first hit.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a Limiter shared by every instance of the service.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter allows limit hits per key in each window.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

// Allow records a hit for key atomically.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := incrExpireScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}

	var count, pttl int64
	if len(res) > 0 {
		count = res[0]
	}
	if len(res) > 1 {
		pttl = res[1]
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	reset := time.Duration(pttl) * time.Millisecond
	if reset < 0 {
		reset = 0
	}
	return Decision{
		Allowed:   int(count) <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetIn:   reset,
	}, nil
}
