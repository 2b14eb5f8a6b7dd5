// Package schema has models, enums and value types shared by all parts of mosaic.
package schema

import "time"

// Ticket is a single issue-tracker item as returned by a search.
// It is read-only input for the metrics engine.
type Ticket struct {
	Key            string         `json:"key"`
	Created        time.Time      `json:"created"`
	Resolved       *time.Time     `json:"resolved,omitempty"` // nil while unresolved
	Status         string         `json:"status"`
	StatusCategory StatusCategory `json:"status_category"`
	Priority       string         `json:"priority,omitempty"`
	EpicLink       string         `json:"epic_link,omitempty"` // empty when absent or null
	Changelog      []HistoryEntry `json:"changelog,omitempty"` // no ordering guarantee
}

// HistoryEntry is one changelog entry: a timestamp and the fields it changed.
type HistoryEntry struct {
	Created time.Time     `json:"created"`
	Items   []FieldChange `json:"items"`
}

// FieldChange is a single (field, from, to) triple inside a history entry.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// Transition is a status change derived from a history entry.
type Transition struct {
	From string
	To   string
	At   time.Time
}

// Interval bounds the time a ticket spent in the measured state.
type Interval struct {
	Begin time.Time
	End   time.Time
	Open  bool // End came from an open boundary (query end date or now)
}

// Days returns the whole-day length of the interval.
func (i Interval) Days() int {
	return DayDiff(i.End, i.Begin)
}

// TruncateDate drops the time of day, keeping the calendar date in t's own offset.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayDiff returns the number of calendar days from begin to end.
// Sub-day precision is discarded before subtracting.
func DayDiff(end, begin time.Time) int {
	return int(TruncateDate(end).Sub(TruncateDate(begin)).Hours() / 24)
}
