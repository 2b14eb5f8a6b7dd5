package iocache

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/flowmosaic/mosaic/schema"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationResult describes the outcome of a schema migration.
type MigrationResult struct {
	From    uint // 0 when nothing was applied before
	To      uint
	Changed bool
}

// migrationDir maps a SQL backend to its dialect directory under migrations/.
func migrationDir(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "migrations/sqlite", nil
	case schema.MySQLBackend:
		return "migrations/mysql", nil
	case schema.PostgreSQLBackend:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}

// runMigrations moves the cache schema of a SQL backend to targetVersion.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
//
// It uses its own connection, which is closed before returning.
func runMigrations(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	var result MigrationResult

	dir, err := migrationDir(backend)
	if err != nil {
		return result, err
	}
	db, _, err := openDB(backend, connStr)
	if err != nil {
		return result, err
	}

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	}
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "mosaic", driver)
	if err != nil {
		_ = db.Close()
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Closes the source, the driver, and the db it wraps
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", current)
	}
	result.From = current

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.To = current
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate %s cache to version %d: %w", backend, targetVersion, err)
	}

	result.Changed = true
	if targetVersion == 0 {
		return result, nil
	}
	result.To, _, _ = m.Version()
	return result, nil
}

// MigrateCache runs database migrations for the search cache and reports the outcome.
func MigrateCache(backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	result, err := runMigrations(backend, connStr, targetVersion)
	if err != nil {
		return err
	}
	if !result.Changed {
		if targetVersion < 0 {
			fmt.Println("No migration needed. Database is already at the latest version.")
		} else {
			fmt.Printf("No migration needed. Database is already at version %d\n", result.To)
		}
		return nil
	}
	if targetVersion == 0 {
		fmt.Printf("Successfully rolled back from version %d to version 0\n", result.From)
		return nil
	}
	fmt.Printf("Successfully migrated from version %d to version %d\n", result.From, result.To)
	return nil
}
