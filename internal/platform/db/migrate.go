package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"startup_boilerplate/migrations"
)

// Direction selects which way migrations run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction flag value.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Up, Down:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown migration direction %q", s)
}

// stepper is the part of *migrate.Migrate that Migrate drives.
type stepper interface {
	Up() error
	Down() error
	Steps(n int) error
}

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	return iofs.New(migrations.FS, ".")
}

// Migrate applies the embedded migrations. steps <= 0 means all pending migrations.
func Migrate(cfg Config, dir Direction, steps int) error {
	sqlDB, err := sql.Open("pgx", BuildDSN(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	src, err := Source()
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return err
	}
	return run(m, dir, steps)
}

func run(m stepper, dir Direction, steps int) error {
	slog.Info("running migrations", "direction", dir, "steps", steps)

	var err error
	switch {
	case steps > 0 && dir == Down:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case dir == Down:
		err = m.Down()
	default:
		err = m.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no migrations to run")
		return nil
	}
	return err
}
