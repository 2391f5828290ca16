// Package middleware authenticates API requests for the auth feature.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"startup_boilerplate/internal/feature/auth/usecase"
	userentity "startup_boilerplate/internal/feature/user/domain/entity"
	useruc "startup_boilerplate/internal/feature/user/usecase"
	jwtmw "startup_boilerplate/internal/platform/jwt"
)

// PrincipalResolver loads the user behind a verified token subject or a session cookie.
// Both methods fail for users that are no longer active.
type PrincipalResolver interface {
	ResolveUser(ctx context.Context, userID string) (*userentity.User, error)
	ResolveSession(ctx context.Context, sessionID string) (*userentity.User, error)
}

// Config selects the credentials Authenticate accepts.
type Config struct {
	JWTSecret  string
	CookieName string
}

// Authenticate accepts a bearer JWT or, when no Authorization header is sent, the session cookie.
// The resolved user must still be active.
// - 401 when credentials are missing, invalid, or point at an unknown user or session
// - 403 when the account is deactivated or closed
// - 500 when a bearer token arrives and no secret is configured
func Authenticate(resolver PrincipalResolver, cfg Config) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			user *userentity.User
			err  error
		)
		if token, present := jwtmw.BearerToken(c); present {
			sub, perr := jwtmw.ParseSubject(cfg.JWTSecret, token)
			switch {
			case errors.Is(perr, jwtmw.ErrMissingSecret):
				slog.Error("bearer token received but JWT_SECRET is not set")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
				return
			case perr != nil:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			user, err = resolver.ResolveUser(ctx, sub)
		} else {
			sid, cerr := c.Cookie(cfg.CookieName)
			if cerr != nil || sid == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
				return
			}
			user, err = resolver.ResolveSession(ctx, sid)
		}

		if err != nil {
			abort(c, err)
			return
		}

		jwtmw.SetUserID(c, user.ID)
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, useruc.ErrUserInactive):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is inactive"})
	case errors.Is(err, useruc.ErrUserDeleted):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is deleted"})
	case errors.Is(err, useruc.ErrUserNotFound),
		errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, usecase.ErrSessionRevoked),
		errors.Is(err, usecase.ErrSessionExpired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		slog.Error("authentication failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
