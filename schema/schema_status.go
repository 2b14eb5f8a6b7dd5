package schema

import "time"

// CacheStatus represents the status of the search cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// QueryInfo describes one registered query for listings.
type QueryInfo struct {
	Name             string     `json:"name"`
	Metric           MetricKind `json:"metric"`
	Grouping         Grouping   `json:"grouping"`
	SupportsRolling  bool       `json:"supports_rolling"`
	IsolatedRolling  bool       `json:"isolated_rolling"`
	RequiresArgument bool       `json:"requires_argument"`
	Placeholders     []string   `json:"placeholders"`
	Description      string     `json:"description"`
}
