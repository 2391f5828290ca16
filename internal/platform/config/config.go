// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"startup_boilerplate/internal/platform/db"
	"startup_boilerplate/internal/platform/redis"
)

// Config holds application configuration with defaults suited to local development.
type Config struct {
	Env      string // development, staging, production
	Port     string
	LogLevel string
	BaseURL  string

	DB    db.Config
	Redis redis.Config

	// Migrations
	RunMigrations bool

	// JWT for the JSON API
	JWTSecret     string
	JWTExpiration time.Duration

	// Browser sessions
	SessionSecret        string
	SessionTTL           time.Duration
	SessionCookieName    string
	CookieSecure         bool
	MaxSessionsPerUser   int
	SessionSweepInterval time.Duration
	AfterSignOutURL      string

	// Identity providers
	OAuthHTTPTimeout   time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// CORS
	CORSAllowedOrigins string // comma-separated

	// Reverse proxies whose X-Forwarded-For is believed; empty trusts none
	TrustedProxyList string // comma-separated IPs or CIDRs

	// Users allowed to call the /api/users directory
	AdminUserIDList string // comma-separated user IDs

	UserCacheTTL time.Duration

	// Rate limit for /signup and /login, per client IP
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean, using default", "key", key, "error", err, "default", def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid int, using default", "key", key, "error", err, "default", def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration, using default", "key", key, "error", err, "default", def)
			return def
		}
		return d
	}
	return def
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Env:      getenv("APP_ENV", "development"),
		Port:     getenv("PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		BaseURL:  strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),

		DB:    db.LoadConfigFromEnv(),
		Redis: redis.LoadConfigFromEnv(),

		RunMigrations: getbool("RUN_MIGRATIONS", false),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTExpiration: getdur("JWT_EXPIRATION", 24*time.Hour),

		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionTTL:           getdur("SESSION_TTL", 7*24*time.Hour),
		SessionCookieName:    getenv("SESSION_COOKIE_NAME", "session"),
		CookieSecure:         getbool("COOKIE_SECURE", false),
		MaxSessionsPerUser:   getint("MAX_SESSIONS_PER_USER", 5),
		SessionSweepInterval: getdur("SESSION_SWEEP_INTERVAL", time.Hour),
		AfterSignOutURL:      getenv("AFTER_SIGN_OUT_URL", "/"),

		OAuthHTTPTimeout:   getdur("OAUTH_HTTP_TIMEOUT", 10*time.Second),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),

		CORSAllowedOrigins: os.Getenv("CORS_ALLOWED_ORIGINS"),
		TrustedProxyList:   os.Getenv("TRUSTED_PROXIES"),
		AdminUserIDList:    os.Getenv("ADMIN_USER_IDS"),

		UserCacheTTL: getdur("USER_CACHE_TTL", 5*time.Minute),

		LoginRateLimit:  getint("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getdur("LOGIN_RATE_WINDOW", time.Minute),
	}
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// CORSOrigins returns CORS allowed origins as a slice.
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxies returns the proxies whose forwarding headers set the client IP.
func (c *Config) TrustedProxies() []string {
	return splitList(c.TrustedProxyList)
}

// AdminUserIDs returns the user IDs allowed to list and look up other users.
func (c *Config) AdminUserIDs() []string {
	return splitList(c.AdminUserIDList)
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SignInURL is the page path that starts sign-in with the first configured provider.
func (c *Config) SignInURL(providers []string) string {
	if len(providers) == 0 {
		return ""
	}
	return "/auth/" + providers[0]
}
