package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "BASE_URL", "SESSION_TTL", "MAX_SESSIONS_PER_USER", "COOKIE_SECURE", "AFTER_SIGN_OUT_URL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.MaxSessionsPerUser)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "/", cfg.AfterSignOutURL)
	assert.Equal(t, "session", cfg.SessionCookieName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BASE_URL", "https://app.example.com/")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("MAX_SESSIONS_PER_USER", "2")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("DB_HOST", "db.internal")

	cfg := Load()

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "https://app.example.com", cfg.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 2, cfg.MaxSessionsPerUser)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "db.internal", cfg.DB.Host)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("MAX_SESSIONS_PER_USER", "many")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.MaxSessionsPerUser)
	assert.False(t, cfg.CookieSecure)
}

func TestConfig_CORSOrigins(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"trims and skips blanks", " https://a.example.com , ,https://b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CORSAllowedOrigins: tt.in}
			assert.Equal(t, tt.want, cfg.CORSOrigins())
		})
	}
}

func TestConfig_ListSettings(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")
	t.Setenv("ADMIN_USER_IDS", "u-admin,google|42,")

	cfg := Load()

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies())
	assert.Equal(t, []string{"u-admin", "google|42"}, cfg.AdminUserIDs())

	t.Setenv("TRUSTED_PROXIES", "")
	t.Setenv("ADMIN_USER_IDS", "")
	cfg = Load()
	assert.Nil(t, cfg.TrustedProxies(), "no proxy is trusted by default")
	assert.Nil(t, cfg.AdminUserIDs())
}

func TestConfig_SignInURL(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "", cfg.SignInURL(nil))
	assert.Equal(t, "/auth/github", cfg.SignInURL([]string{"github", "google"}))
}
