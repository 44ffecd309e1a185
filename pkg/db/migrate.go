package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"taxibooking/pkg/config"
)

// MigrateConfig applies every pending up migration.
func MigrateConfig(migrationsPath string, cfg config.Config) error {
	return withMigrator(migrationsPath, cfg, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateSteps moves n migrations up (n > 0) or down (n < 0).
func MigrateSteps(migrationsPath string, cfg config.Config, n int) error {
	if n == 0 {
		return nil
	}
	return withMigrator(migrationsPath, cfg, func(m *migrate.Migrate) error {
		return m.Steps(n)
	})
}

// SchemaVersion reports the applied migration version. Version 0 means none has run.
func SchemaVersion(migrationsPath string, cfg config.Config) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := withMigrator(migrationsPath, cfg, func(m *migrate.Migrate) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		version, dirty = v, d
		return err
	})
	return version, dirty, err
}

func withMigrator(migrationsPath string, cfg config.Config, fn func(m *migrate.Migrate) error) error {
	m, err := migrate.New(migrationsPath, migrationConnString(cfg))
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", migrationsPath, err)
	}
	defer func() { _, _ = m.Close() }()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
