package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// MetricKind names the flow metric a query computes.
	MetricKind string

	// Grouping selects how tickets are split before aggregation.
	Grouping string

	// StatusCategory is the coarse bucket a tracker assigns to each status.
	StatusCategory string

	// EventKind names a structured observability event.
	EventKind string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	TableOut   OutputMode = "table"
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis"
	NoneBackend       DatabaseBackend = "none"
)

// All metric kinds supported.
const (
	LeadTime       MetricKind = "leadtime"
	CycleTime      MetricKind = "cycletime"
	StatusDuration MetricKind = "statusduration"
	Throughput     MetricKind = "throughput"
)

// All grouping strategies supported.
const (
	NoGrouping         Grouping = "none"
	ByEpic             Grouping = "epic"
	ByArgumentGrouping Grouping = "argument" // search filtered by the argument, qualifier = argument
)

// Status categories as reported by the tracker.
const (
	ToDoCategory       StatusCategory = "todo"
	InProgressCategory StatusCategory = "inprogress"
	DoneCategory       StatusCategory = "done"
	UnknownCategory    StatusCategory = "unknown"
)

// UnassignedEpic is the partition key for tickets without an epic link.
const UnassignedEpic = "UNASSIGNED"

// StatusField is the changelog field name carrying status changes.
const StatusField = "status"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	TableOut:   {},
	CSVOut:     {},
	JSONOut:    {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}
