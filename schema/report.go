package schema

import (
	"fmt"
	"time"
)

// DateFormat is the layout of every date the tool accepts or prints.
const DateFormat = "2006-01-02"

// Request is the read-only set of per-run parameters.
// It is passed by value and never mutated after validation.
type Request struct {
	Project     string
	BeginDate   time.Time // date only, UTC midnight
	EndDate     time.Time // date only, UTC midnight
	Types       string    // comma-separated ticket types
	Argument    string    // status name or priority, query dependent
	Rolling     bool
	QueryAppend string
	EndState    string
	Now         time.Time
}

// Vars returns the values for every named search placeholder.
func (r Request) Vars() map[string]string {
	return map[string]string{
		"project":    r.Project,
		"begin_date": r.BeginDate.Format(DateFormat),
		"end_date":   r.EndDate.Format(DateFormat),
		"types":      r.Types,
		"argument":   r.Argument,
		"end_state":  r.EndState,
	}
}

// WindowIncludesToday reports whether Now falls inside [BeginDate, EndDate].
func (r Request) WindowIncludesToday() bool {
	today := TruncateDate(r.Now)
	return !today.Before(TruncateDate(r.BeginDate)) && !today.After(TruncateDate(r.EndDate))
}

// Measurement is the per-ticket outcome of a metric calculation.
type Measurement struct {
	Key    string
	Result Result
	Reason string // why the ticket was excluded, if it was
}

// Summary is an aggregate over measurements.
type Summary struct {
	Result Result
	Count  int // number of contributing tickets
}

// GroupSummary is a Summary for one partition.
type GroupSummary struct {
	Qualifier string
	Summary
}

// ReportRecord is the uniform output row of the engine.
type ReportRecord struct {
	Query     string `json:"query" yaml:"query"`
	Project   string `json:"project" yaml:"project"`
	BeginDate string `json:"begin_date" yaml:"begin_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
	Qualifier string `json:"qualifier" yaml:"qualifier"`
	Value     Result `json:"value" yaml:"value"`
	Count     int    `json:"count" yaml:"count"`
	Rolling   bool   `json:"rolling" yaml:"rolling"`
}

// String gives a compact single-line form used in debug output.
func (r ReportRecord) String() string {
	return fmt.Sprintf("%s[%s] %s..%s value=%s count=%d", r.Query, r.Qualifier, r.BeginDate, r.EndDate, r.Value, r.Count)
}
