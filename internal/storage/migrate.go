package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. It uses its own short
// lived connection so the repository pool never sees the database
// mid-migration.
func RunMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("wrap sqlite connection: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil:
		version, dirty, verr := m.Version()
		if verr != nil {
			slog.Warn("Schema migrated but version unreadable", "error", verr)
			return nil
		}
		slog.Info("Schema migrated", "version", version, "dirty", dirty)
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("Schema already up to date")
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
