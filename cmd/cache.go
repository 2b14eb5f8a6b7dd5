package cmd

import (
	"fmt"
	"os"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/iocache"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheConfigSetup loads the minimal configuration needed for cache operations.
func cacheConfigSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return contract.NewConfigError("cache-backend", "'%s' must be sqlite, mysql, postgresql, redis, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetup also opens the configured store.
func cacheSetup() error {
	if err := cacheConfigSetup(); err != nil {
		return err
	}
	if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	return nil
}

// sqliteCachePath is the SQLite file the cache lives in.
func sqliteCachePath() string {
	if cfg.CacheDBConnect != "" {
		return cfg.CacheDBConnect
	}
	return contract.GetCacheDBFilePath()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization instead of the full
// sharedSetup used by report. They never contact the tracker.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the tracker search cache",
	Long: `Manage the cache of completed-ticket searches.

Mosaic caches the tickets returned by completed searches so repeated reports over
the same window skip the tracker. In-flight searches for --rolling are never cached.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached searches
  migrate - Move the cache schema to a given version`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached searches",
	Long: `Delete all cached searches from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache and migration tables
For Redis: Deletes the mosaic:search:* keys

Examples:
  mosaic cache clear
  MOSAIC_CACHE_BACKEND=redis MOSAIC_CACHE_DB_CONNECT="redis://localhost:6379/0" mosaic cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheConfigSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, sqliteCachePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, entry count, entry age range and size of the cache.

Examples:
  mosaic cache status`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetSearchStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheMigrateCmd runs schema migrations.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run cache schema migrations",
	Long: `Move the SQL cache schema to the latest or a specific version.

Stores are migrated to the latest version automatically when opened; use this
to roll back or to prepare a shared database ahead of time.

Examples:
  mosaic cache migrate
  mosaic cache migrate --target-version 1
  mosaic cache migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheConfigSetup()
	},
	Run: func(_ *cobra.Command, _ []string) {
		connStr := cfg.CacheDBConnect
		if cfg.CacheBackend == schema.SQLiteBackend {
			connStr = sqliteCachePath()
		}
		if err := iocache.MigrateCache(cfg.CacheBackend, connStr, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to migrate cache", err)
		}
	},
}
