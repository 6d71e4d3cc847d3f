package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"fuelstock/pkg/logger"
)

// Migrator applies schema migrations from a file source.
type Migrator struct {
	m   *migrate.Migrate
	log *logger.Logger
}

// NewMigrator creates a migrator reading migrations from sourcePath.
func NewMigrator(sourcePath, databaseURL string, log *logger.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+sourcePath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	if log == nil {
		log = logger.Default()
	}

	return &Migrator{m: m, log: log.WithComponent("migrate")}, nil
}

// Up applies all pending migrations.
func (mg *Migrator) Up(ctx context.Context) error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.WithContext(ctx).Infow("no migrations to run")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := mg.m.Version()
	if err != nil {
		return fmt.Errorf("read version after migrate: %w", err)
	}
	mg.log.WithContext(ctx).Infow("migrations applied", "version", version, "dirty", dirty)

	return nil
}

// Down rolls back the most recent migration.
func (mg *Migrator) Down(ctx context.Context) error {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is dirty at version %d, resolve manually", version)
	}

	if err := mg.m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.WithContext(ctx).Infow("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("roll back migration: %w", err)
	}

	mg.log.WithContext(ctx).Infow("migration rolled back", "fromVersion", version)
	return nil
}

// Version returns the current migration version.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the migrator's connections.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return dbErr
}
