// Package db owns the embedded schema migrations.
package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/feedlane/feedlane-backend/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newMigrate(dbURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	// golang-migrate uses pgx v5 driver, connection string must use pgx5:// scheme
	m, err := migrate.NewWithSourceInstance("iofs", source, convertToPgx5URL(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations. Safe to call on every
// startup; already-applied migrations are skipped.
func RunMigrations(dbURL string) error {
	log := logger.GetLogger()

	m, err := newMigrate(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("Empty database, applying all migrations")
	case err != nil:
		return fmt.Errorf("failed to read migration version: %w", err)
	case dirty:
		// A previous migration failed partway. Roll the marker back so the
		// failed step is retried.
		clean := int(version) - 1
		if clean < 1 {
			clean = -1
		}
		log.Infow("Dirty migration state detected, resetting to retry",
			"dirtyVersion", version,
			"resettingTo", clean)
		if err := m.Force(clean); err != nil {
			return fmt.Errorf("failed to reset dirty migration: %w", err)
		}
	default:
		log.Infow("Current migration version", "version", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database is up to date, no migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	if version, _, err := m.Version(); err == nil {
		log.Infow("Migrations applied successfully", "currentVersion", version)
	}
	return nil
}

// RollbackMigrations reverts the given number of migration steps.
func RollbackMigrations(dbURL string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, err := newMigrate(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("rollback failed: %w", err)
	}
	logger.GetLogger().Infow("Rolled back migrations", "steps", steps)
	return nil
}

// convertToPgx5URL converts a standard postgres:// URL to the pgx5:// scheme
// required by golang-migrate's pgx v5 driver.
func convertToPgx5URL(dbURL string) string {
	for _, prefix := range []string{"postgresql:", "postgres:"} {
		if strings.HasPrefix(dbURL, prefix) {
			return "pgx5:" + strings.TrimPrefix(dbURL, prefix)
		}
	}
	return dbURL
}
