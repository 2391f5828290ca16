package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("my-secret-key", time.Hour)
	require.NotNil(t, gen)
	assert.Equal(t, "my-secret-key", string(gen.secret))
	assert.Equal(t, time.Hour, gen.expiration)
}

func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		userID     string
		email      string
		expiration time.Duration
	}{
		{"local user", "5f0c4b5e-8d1c-4d55-9a63-3a7d0c6f1b2e", "user@example.com", time.Hour},
		{"external user", "google|1234567890", "user+tag@example.com", time.Hour},
		{"long expiration", "github|42", "test@test.com", 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("test-secret", tt.expiration)
			tokenStr, err := gen.GenerateToken(tt.userID, tt.email)
			require.NoError(t, err)
			require.NotEmpty(t, tokenStr)

			var claims Claims
			token, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
				return []byte("test-secret"), nil
			})
			require.NoError(t, err)
			assert.True(t, token.Valid)
			assert.Equal(t, jwt.SigningMethodHS256, token.Method)

			assert.Equal(t, tt.userID, claims.Subject)
			assert.Equal(t, tt.email, claims.Email)
			assert.WithinDuration(t, claims.IssuedAt.Add(tt.expiration), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestGenerator_WrongSecretFails(t *testing.T) {
	t.Parallel()

	tokenStr, err := NewGenerator("secret-a", time.Hour).GenerateToken("u1", "a@example.com")
	require.NoError(t, err)

	_, err = jwt.Parse(tokenStr, func(*jwt.Token) (interface{}, error) {
		return []byte("secret-b"), nil
	})
	assert.Error(t, err)
}
