// Package db opens the PostgreSQL connection and applies schema migrations.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryInterval is the pause between connection attempts.
const retryInterval = 3 * time.Second

// Config holds the connection parameters.
// When InstanceName is set the Cloud SQL unix socket is used instead of Host and Port.
type Config struct {
	User         string
	Password     string
	Name         string
	Host         string
	Port         string
	SSLMode      string
	InstanceName string
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv reads the connection parameters from the environment.
func LoadConfigFromEnv() Config {
	return Config{
		User:         getenv("DB_USER", "postgres"),
		Password:     getenv("DB_PASSWORD", "postgres"),
		Name:         getenv("DB_NAME", "startup"),
		Host:         getenv("DB_HOST", "localhost"),
		Port:         getenv("DB_PORT", "5432"),
		SSLMode:      getenv("DB_SSLMODE", "disable"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
	}
}

// BuildDSN renders the keyword/value connection string understood by pgx.
func BuildDSN(cfg Config) string {
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}

	parts := []string{
		"host=" + quote(host),
		"user=" + quote(cfg.User),
		"password=" + quote(cfg.Password),
		"dbname=" + quote(cfg.Name),
	}
	if port != "" {
		parts = append(parts, "port="+quote(port))
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts = append(parts, "sslmode="+quote(sslmode))
	return strings.Join(parts, " ")
}

// GormOpener opens PostgreSQL through gorm with driver errors translated to gorm sentinels.
func GormOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// ConnectWithRetry calls opener until it succeeds. It gives up once the next attempt
// would start after timeout has elapsed.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open connects with the default opener and a 60 second retry budget.
func Open(cfg Config) (*gorm.DB, error) {
	return ConnectWithRetry(BuildDSN(cfg), 60*time.Second, GormOpener)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// quote escapes a keyword/value DSN value.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
