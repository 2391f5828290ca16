package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	jwtmw "startup_boilerplate/internal/platform/jwt"
)

// RequireAdmin allows only the listed user IDs through. It must run after Authenticate.
// An empty list locks the route for everyone.
func RequireAdmin(adminIDs []string) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			admins[id] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		id, ok := jwtmw.UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := admins[id]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
