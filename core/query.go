package core

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/flowmosaic/mosaic/schema"
)

// Query is one named report: a metric, a grouping and the searches that feed it.
type Query struct {
	Name             string
	Metric           schema.MetricKind
	Grouping         schema.Grouping
	SupportsRolling  bool
	IsolatedRolling  bool // rolling allowed even when the window excludes today
	RequiresArgument bool
	Completed        string // search for tickets finished inside the window
	InFlight         string // search for open tickets, used in rolling mode
	Sentence         string // text-mode rendering of one record
	Description      string
}

const (
	baseSearch     = `PROJECT = {project} AND TYPE IN ({types})`
	doneSearch     = baseSearch + ` AND statusCategory = Done AND status CHANGED TO {end_state} DURING("{begin_date}", "{end_date}")`
	progressSearch = baseSearch + ` AND statusCategory = "In Progress"`
	inStatusSearch = baseSearch + ` AND status = "{argument}"`
	priorityClause = ` AND priority in ({argument})`
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// registry holds every query in listing order.
var registry = []Query{
	{
		Name:        "throughput",
		Metric:      schema.Throughput,
		Grouping:    schema.NoGrouping,
		Completed:   doneSearch,
		Sentence:    "Between {begin_date} and {end_date}, {value} issues transitioned to the Done state.",
		Description: "Number of tickets completed in the window",
	},
	{
		Name:        "throughputbyepic",
		Metric:      schema.Throughput,
		Grouping:    schema.ByEpic,
		Completed:   doneSearch,
		Sentence:    "Between {begin_date} and {end_date}, {value} issues transitioned to the Done state on the {qualifier} epic.",
		Description: "Completed tickets counted per epic",
	},
	{
		Name:        "leadtime",
		Metric:      schema.LeadTime,
		Grouping:    schema.NoGrouping,
		Completed:   doneSearch,
		Sentence:    "Between {begin_date} and {end_date}, the average lead time was {value} days.",
		Description: "Average days from creation to resolution",
	},
	{
		Name:        "leadtimebyepic",
		Metric:      schema.LeadTime,
		Grouping:    schema.ByEpic,
		Completed:   doneSearch,
		Sentence:    "Between {begin_date} and {end_date}, the average lead time on the {qualifier} epic was {value} days.",
		Description: "Average lead time per epic",
	},
	{
		Name:             "priorityleadtime",
		Metric:           schema.LeadTime,
		Grouping:         schema.ByArgumentGrouping,
		RequiresArgument: true,
		Completed:        doneSearch + priorityClause,
		Sentence:         "Between {begin_date} and {end_date}, the average lead time for {qualifier} priority issues was {value} days.",
		Description:      "Average lead time for tickets of the given priority",
	},
	{
		Name:            "cycletime",
		Metric:          schema.CycleTime,
		Grouping:        schema.NoGrouping,
		SupportsRolling: true,
		Completed:       doneSearch,
		InFlight:        progressSearch,
		Sentence:        "Between {begin_date} and {end_date}, the average cycle time was {value} days.",
		Description:     "Average days from leaving the backlog to resolution",
	},
	{
		Name:            "cycletimebyepic",
		Metric:          schema.CycleTime,
		Grouping:        schema.ByEpic,
		SupportsRolling: true,
		Completed:       doneSearch,
		InFlight:        progressSearch,
		Sentence:        "Between {begin_date} and {end_date}, the average cycle time on the {qualifier} epic was {value} days.",
		Description:     "Average cycle time per epic",
	},
	{
		Name:             "prioritycycletime",
		Metric:           schema.CycleTime,
		Grouping:         schema.ByArgumentGrouping,
		SupportsRolling:  true,
		RequiresArgument: true,
		Completed:        doneSearch + priorityClause,
		InFlight:         progressSearch + priorityClause,
		Sentence:         "Between {begin_date} and {end_date}, the average cycle time for {qualifier} priority issues was {value} days.",
		Description:      "Average cycle time for tickets of the given priority",
	},
	{
		Name:             "statusduration",
		Metric:           schema.StatusDuration,
		Grouping:         schema.NoGrouping,
		SupportsRolling:  true,
		IsolatedRolling:  true,
		RequiresArgument: true,
		Completed:        doneSearch,
		InFlight:         inStatusSearch,
		Sentence:         "Between {begin_date} and {end_date}, the average time spent in {qualifier} status was {value} days.",
		Description:      "Average days from first entering to last leaving the given status",
	},
	{
		Name:             "statusdurationbyepic",
		Metric:           schema.StatusDuration,
		Grouping:         schema.ByEpic,
		SupportsRolling:  true,
		IsolatedRolling:  true,
		RequiresArgument: true,
		Completed:        doneSearch,
		InFlight:         inStatusSearch,
		Sentence:         "Between {begin_date} and {end_date}, the average time spent in status on the {qualifier} epic was {value} days.",
		Description:      "Average status duration per epic",
	},
}

// Lookup finds a query by name, ignoring case.
func Lookup(name string) (Query, bool) {
	for _, q := range registry {
		if strings.EqualFold(q.Name, name) {
			return q, true
		}
	}
	return Query{}, false
}

// QueryNames lists every registered query name in listing order.
func QueryNames() []string {
	names := make([]string, len(registry))
	for i, q := range registry {
		names[i] = q.Name
	}
	return names
}

// ListQueries describes every registered query.
func ListQueries() []schema.QueryInfo {
	out := make([]schema.QueryInfo, len(registry))
	for i, q := range registry {
		out[i] = q.Info()
	}
	return out
}

// Info summarizes the query for listings.
func (q Query) Info() schema.QueryInfo {
	return schema.QueryInfo{
		Name:             q.Name,
		Metric:           q.Metric,
		Grouping:         q.Grouping,
		SupportsRolling:  q.SupportsRolling,
		IsolatedRolling:  q.IsolatedRolling,
		RequiresArgument: q.RequiresArgument,
		Placeholders:     q.Placeholders(),
		Description:      q.Description,
	}
}

// Placeholders returns the distinct named placeholders of the query's searches, sorted.
func (q Query) Placeholders() []string {
	var names []string
	for _, tmpl := range []string{q.Completed, q.InFlight} {
		for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
			if !slices.Contains(names, m[1]) {
				names = append(names, m[1])
			}
		}
	}
	slices.Sort(names)
	return names
}

// FormatQuery substitutes vars into tmpl and appends the request's extra clause.
// Every placeholder must have a non-empty value.
func FormatQuery(tmpl string, vars map[string]string, appendClause string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := vars[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("search template is missing values for %s", strings.Join(missing, ", "))
	}
	if appendClause != "" {
		out += " AND " + appendClause
	}
	return out, nil
}

// RenderSentence fills a text-mode sentence for one record.
func RenderSentence(tmpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
