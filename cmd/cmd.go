// Package cmd defines the command-line interface for mosaic.
package cmd

import (
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(queriesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.StringP("project", "p", "", "Tracker project key")
	flags.StringP("begin", "b", "", "Window start date (YYYY-MM-DD, default 14 days ago)")
	flags.StringP("end", "e", "", "Window end date (YYYY-MM-DD, default today)")
	flags.String("types", contract.DefaultTypes, "Comma-separated ticket types")
	flags.StringP("argument", "a", "", "Status name or priority for queries that need one")
	flags.Bool("rolling", false, "Include in-flight tickets measured up to now")
	flags.String("query-append", "", "Extra clause appended to every search with AND")
	flags.String("end-state", contract.DefaultEndState, "Status that marks a ticket as done")
	flags.String("epic-field", contract.DefaultEpicField, "Custom field holding the epic link")
	flags.String("backlog-statuses", contract.DefaultBacklog, "Comma-separated statuses that count as not started")
	flags.StringP("server", "s", "", "Tracker base URL (e.g., https://jira.example.com)")
	flags.String("user", "", "Tracker user for basic auth (bearer token auth when empty)")
	flags.String("token", "", "Tracker API token (prefer MOSAIC_TOKEN in the environment or .env)")
	flags.StringP("cert", "c", "", "CA bundle for the tracker's TLS certificate")
	flags.Int("page-size", contract.DefaultPageSize, "Search page size")
	flags.String("timeout", contract.DefaultTimeout.String(), "HTTP timeout per tracker request")
	flags.String("output", string(schema.TextOut), "Output format: text or table or csv or json or yaml or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for metric values")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored values in output (yes/no/true/false/1/0)")
	flags.BoolP("verbose", "v", false, "Log per-ticket diagnostics (same as --log-level debug)")
	flags.String("log-level", "info", "Log level: debug or info or warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	flags.String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached searches stay fresh (0 = forever)")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().StringArrayP("query", "q", nil, "Query to run (repeatable, or comma-separated)")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
