// Command migrate applies or rolls back the embedded SQL migrations.
//
//	migrate -direction up
//	migrate -direction down -steps 1
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"startup_boilerplate/internal/platform/db"
	"startup_boilerplate/internal/platform/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of migrations to apply; 0 means all")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	dir, err := db.ParseDirection(*direction)
	if err != nil {
		slog.Error("invalid direction", "error", err)
		os.Exit(2)
	}
	if *steps < 0 {
		slog.Error("steps must not be negative", "steps", *steps)
		os.Exit(2)
	}

	if err := db.Migrate(db.LoadConfigFromEnv(), dir, *steps); err != nil {
		slog.Error("migration failed", "direction", dir, "steps", *steps, "error", err)
		os.Exit(1)
	}
	slog.Info("migration complete", "direction", dir, "steps", *steps)
}
