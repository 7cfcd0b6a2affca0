package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"

	// File source driver for reading migration files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the zones and reservations schema up to the latest
// version in migrationsPath. Applied versions are skipped. A dirty schema,
// left by a migration that failed halfway, stops startup until someone
// fixes it by hand.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	if info, err := os.Stat(migrationsPath); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory %q not found", migrationsPath)
	}

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if _, dirty, err := m.Version(); err == nil && dirty {
		return errors.New("database schema is dirty; fix the failed migration and force its version")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("schema up to date", slog.Uint64("version", uint64(version)))
	return nil
}
