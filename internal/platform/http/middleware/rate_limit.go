package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"startup_boilerplate/internal/shared/ratelimiter"
)

// KeyFunc derives the limiter key for a request.
type KeyFunc func(c *gin.Context) string

// KeyByIP keys requests by client IP.
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit rejects requests over the limit with 429.
// Limiter errors fail open so a Redis outage does not block sign-in.
func RateLimit(l ratelimiter.Limiter, scope string, key KeyFunc, m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), scope+":"+key(c))
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			secs := int(d.ResetIn.Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			if m != nil {
				m.RateLimited(c.FullPath())
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
