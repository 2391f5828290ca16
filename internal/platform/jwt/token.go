package jwtmw

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ContextUserID = "userID"

var (
	// ErrMissingSecret is returned when tokens cannot be verified because no secret is configured.
	ErrMissingSecret = errors.New("jwt secret is not configured")

	// ErrInvalidToken is returned for malformed, expired, or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// BearerToken returns the token from an "Authorization: Bearer" header.
// present reports whether an Authorization header was sent at all.
func BearerToken(c *gin.Context) (token string, present bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", false
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", true
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// ParseSubject verifies a token signed with secret and returns its subject.
func ParseSubject(secret, tokenStr string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if tokenStr == "" {
		return "", ErrInvalidToken
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is accepted.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// SetUserID stores the authenticated user ID on the request context.
func SetUserID(c *gin.Context, id string) {
	c.Set(ContextUserID, id)
}

// UserID returns the authenticated user ID stored by SetUserID.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}
