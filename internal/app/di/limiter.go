package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	"startup_boilerplate/internal/shared/ratelimiter"
)

// NewLimiter shares limits across instances through Redis when available.
func NewLimiter(rdb *redis.Client, limit int, window time.Duration) ratelimiter.Limiter {
	if rdb != nil {
		return ratelimiter.NewRedisLimiter(rdb, limit, window, "rl")
	}
	return ratelimiter.NewRateLimiter(limit, window)
}
