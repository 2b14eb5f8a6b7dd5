package contract

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/flowmosaic/mosaic/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays = 14
	DefaultTypes        = "bug, story, task"
	DefaultEndState     = "Done"
	DefaultEpicField    = "customfield_10006"
	DefaultBacklog      = "To Do,Next"
	DefaultPrecision    = 1
	DefaultPageSize     = 100
	DefaultTimeout      = 30 * time.Second
	DefaultCacheTTL     = time.Hour
	MaxPageSize         = 1000
)

// Config holds the runtime configuration for a report run.
// This struct remains the "final, validated" config.
type Config struct {
	Queries         []string
	Request         schema.Request
	EpicField       string
	BacklogStatuses []string

	Server   string
	User     string
	Token    string
	CertFile string
	PageSize int
	Timeout  time.Duration

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	Verbose   bool
	LogLevel  string
	LogFormat string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// Positional query names are appended here by the report command
	Queries []string `mapstructure:"query"`

	// --- Request fields ---
	Project     string `mapstructure:"project"`
	Begin       string `mapstructure:"begin"`
	End         string `mapstructure:"end"`
	Types       string `mapstructure:"types"`
	Argument    string `mapstructure:"argument"`
	Rolling     bool   `mapstructure:"rolling"`
	QueryAppend string `mapstructure:"query-append"`
	EndState    string `mapstructure:"end-state"`
	EpicField   string `mapstructure:"epic-field"`
	Backlog     string `mapstructure:"backlog-statuses"`

	// --- Tracker connection ---
	Server   string `mapstructure:"server"`
	User     string `mapstructure:"user"`
	Token    string `mapstructure:"token"`
	CertFile string `mapstructure:"cert"`
	PageSize int    `mapstructure:"page-size"`
	Timeout  string `mapstructure:"timeout"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Logging ---
	Verbose   bool   `mapstructure:"verbose"`
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// --- Cache ---
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	CacheTTL       string `mapstructure:"cache-ttl"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Queries = slices.Clone(c.Queries)
	clone.BacklogStatuses = slices.Clone(c.BacklogStatuses)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. now anchors the default date window.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRequest(cfg, input, now); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateTrackerConfig checks the fields needed to reach the issue tracker.
// Commands that never search (queries, cache) skip it.
func ValidateTrackerConfig(cfg *Config) error {
	if cfg.Server == "" {
		return NewConfigError("server", "tracker server URL is required")
	}
	u, err := url.Parse(cfg.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewConfigError("server", "%q is not an absolute URL", cfg.Server)
	}
	if cfg.User != "" && cfg.Token == "" {
		return NewConfigError("token", "a token is required when user is set")
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must be a redis:// or rediss:// URL")
		}
	}
	return nil
}

// SplitList splits a comma-separated value, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateSimpleInputs processes and validates the output, logging and tracker fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.Server = strings.TrimRight(strings.TrimSpace(input.Server), "/")
	cfg.User = input.User
	cfg.Token = input.Token
	cfg.CertFile = input.CertFile

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 0 || input.Precision > 3 {
		return NewConfigError("precision", "must be between 0 and 3 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return NewConfigError("output", "'%s' must be text, table, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return NewConfigError("output-file", "parquet output requires an output file")
	}

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return NewConfigError("log-format", "'%s' must be text or json", input.LogFormat)
	}
	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.PageSize = input.PageSize
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize < 0 || cfg.PageSize > MaxPageSize {
		return NewConfigError("page-size", "must be between 1 and %d (received %d)", MaxPageSize, input.PageSize)
	}

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil || d <= 0 {
			return NewConfigError("timeout", "'%s' is not a positive duration", input.Timeout)
		}
		cfg.Timeout = d
	}
	return nil
}

// processRequest builds the immutable request value and the query selection.
func processRequest(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.Queries = nil
	for _, q := range input.Queries {
		for _, name := range SplitList(q) {
			cfg.Queries = append(cfg.Queries, strings.ToLower(name))
		}
	}

	req := schema.Request{
		Project:     strings.TrimSpace(input.Project),
		Types:       strings.TrimSpace(input.Types),
		Argument:    strings.TrimSpace(input.Argument),
		Rolling:     input.Rolling,
		QueryAppend: strings.TrimSpace(input.QueryAppend),
		EndState:    strings.TrimSpace(input.EndState),
		Now:         now,
	}
	if req.Types == "" {
		req.Types = DefaultTypes
	}
	if req.EndState == "" {
		req.EndState = DefaultEndState
	}

	today := schema.TruncateDate(now)
	req.EndDate = today
	req.BeginDate = today.AddDate(0, 0, -DefaultLookbackDays)
	if input.Begin != "" {
		t, err := time.Parse(schema.DateFormat, input.Begin)
		if err != nil {
			return NewConfigError("begin", "'%s' must be a YYYY-MM-DD date", input.Begin)
		}
		req.BeginDate = t
	}
	if input.End != "" {
		t, err := time.Parse(schema.DateFormat, input.End)
		if err != nil {
			return NewConfigError("end", "'%s' must be a YYYY-MM-DD date", input.End)
		}
		req.EndDate = t
	}
	if req.BeginDate.After(req.EndDate) {
		return NewConfigError("begin", "%s is after end date %s",
			req.BeginDate.Format(schema.DateFormat), req.EndDate.Format(schema.DateFormat))
	}
	cfg.Request = req

	cfg.EpicField = strings.TrimSpace(input.EpicField)
	if cfg.EpicField == "" {
		cfg.EpicField = DefaultEpicField
	}
	backlog := input.Backlog
	if strings.TrimSpace(backlog) == "" {
		backlog = DefaultBacklog
	}
	cfg.BacklogStatuses = SplitList(backlog)
	return nil
}

// validateBackendConfigs validates the cache backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return NewConfigError("cache-backend", "'%s' must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		d, err := time.ParseDuration(input.CacheTTL)
		if err != nil || d < 0 {
			return NewConfigError("cache-ttl", "'%s' is not a valid duration", input.CacheTTL)
		}
		cfg.CacheTTL = d
	}
	return nil
}

// RequestOverrides carries per-call request changes, as sent by MCP tool calls.
// Empty fields keep the base value.
type RequestOverrides struct {
	Queries  []string
	Project  string
	Begin    string
	End      string
	Argument string
	Rolling  *bool
}

// RevalidateRequest applies overrides to a cloned config and rebuilds its request.
// now re-anchors the request so long-running servers measure against the current time.
func RevalidateRequest(cfg *Config, o RequestOverrides, now time.Time) error {
	req := cfg.Request
	input := &ConfigRawInput{
		Queries:     cfg.Queries,
		Project:     req.Project,
		Types:       req.Types,
		Argument:    req.Argument,
		Rolling:     req.Rolling,
		QueryAppend: req.QueryAppend,
		EndState:    req.EndState,
		EpicField:   cfg.EpicField,
		Backlog:     strings.Join(cfg.BacklogStatuses, ","),
	}
	if !req.BeginDate.IsZero() {
		input.Begin = req.BeginDate.Format(schema.DateFormat)
	}
	if !req.EndDate.IsZero() {
		input.End = req.EndDate.Format(schema.DateFormat)
	}

	if len(o.Queries) > 0 {
		input.Queries = o.Queries
	}
	if o.Project != "" {
		input.Project = o.Project
	}
	if o.Begin != "" {
		input.Begin = o.Begin
	}
	if o.End != "" {
		input.End = o.End
	}
	if o.Argument != "" {
		input.Argument = o.Argument
	}
	if o.Rolling != nil {
		input.Rolling = *o.Rolling
	}
	return processRequest(cfg, input, now)
}
