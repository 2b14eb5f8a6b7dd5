// Package metric computes per-ticket flow measurements and reduces them by grouping.
package metric

import (
	"strings"
	"time"

	"github.com/flowmosaic/mosaic/core/agg"
	"github.com/flowmosaic/mosaic/core/flow"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
)

// Calculator computes one metric kind under one grouping strategy.
// The zero Observer is treated as contract.NopObserver.
type Calculator struct {
	Kind     schema.MetricKind
	Grouping schema.Grouping
	Query    string
	Request  schema.Request
	Backlog  []string
	Observer contract.Observer
}

// Measure computes the metric for a completed ticket.
func (c Calculator) Measure(t schema.Ticket) schema.Measurement {
	var (
		iv  schema.Interval
		err error
	)
	switch c.Kind {
	case schema.LeadTime:
		iv, err = flow.LeadInterval(t)
	case schema.CycleTime:
		iv, err = flow.CycleInterval(t, flow.ExtractTransitions(t.Changelog), c.backlog())
	case schema.StatusDuration:
		iv, err = flow.StatusInterval(flow.ExtractTransitions(t.Changelog), c.Request.Argument, c.statusOpenEnd())
	default:
		// Throughput has no per-ticket interval; every ticket counts once.
		return schema.Measurement{Key: t.Key, Result: schema.ValueOf(1)}
	}
	return c.record(t.Key, iv, err, schema.TicketMeasuredEvent)
}

// MeasureInFlight computes the metric for an unresolved ticket, ending its interval now.
func (c Calculator) MeasureInFlight(t schema.Ticket) schema.Measurement {
	var (
		iv  schema.Interval
		err error
	)
	ts := flow.ExtractTransitions(t.Changelog)
	switch c.Kind {
	case schema.CycleTime:
		iv, err = flow.OpenCycleInterval(ts, c.backlog(), c.Request.Now)
	case schema.StatusDuration:
		iv, err = flow.OpenStatusInterval(ts, c.Request.Argument, c.Request.Now)
	default:
		return schema.Measurement{Key: t.Key, Result: schema.Excluded(), Reason: "metric has no rolling form"}
	}
	return c.record(t.Key, iv, err, schema.RollingMeasuredEvent)
}

// Run reduces completed and in-flight tickets into one summary per group.
// In-flight tickets are only folded in when the request is rolling.
func (c Calculator) Run(completed, inFlight []schema.Ticket) []schema.GroupSummary {
	if !c.Request.Rolling {
		inFlight = nil
	}
	if c.Grouping != schema.ByEpic {
		return []schema.GroupSummary{{Qualifier: c.qualifier(), Summary: c.summarize(completed, inFlight)}}
	}

	done := agg.PartitionByEpic(completed)
	open := agg.PartitionByEpic(inFlight)
	if n := len(done[schema.UnassignedEpic]) + len(open[schema.UnassignedEpic]); n > 0 {
		c.emit(schema.Event{
			Kind:   schema.UnassignedTicketsEvent,
			Count:  n,
			Detail: strings.Join(ticketKeys(done[schema.UnassignedEpic], open[schema.UnassignedEpic]), ","),
		})
	}

	keys := done.Keys()
	if len(open) > 0 {
		keys = agg.UnionKeys(done, open)
	}
	var out []schema.GroupSummary
	for _, key := range keys {
		out = append(out, schema.GroupSummary{Qualifier: key, Summary: c.summarize(done[key], open[key])})
	}
	return out
}

func (c Calculator) summarize(completed, inFlight []schema.Ticket) schema.Summary {
	if c.Kind == schema.Throughput {
		return agg.Count(completed)
	}
	ms := make([]schema.Measurement, 0, len(completed)+len(inFlight))
	for _, t := range completed {
		ms = append(ms, c.Measure(t))
	}
	for _, t := range inFlight {
		ms = append(ms, c.MeasureInFlight(t))
	}
	return agg.Average(ms)
}

func (c Calculator) record(key string, iv schema.Interval, err error, kind schema.EventKind) schema.Measurement {
	if err != nil {
		c.emit(schema.Event{Kind: schema.TicketExcludedEvent, TicketKey: key, Status: c.status(), Reason: err.Error()})
		return schema.Measurement{Key: key, Result: schema.Excluded(), Reason: err.Error()}
	}
	days := iv.Days()
	c.emit(schema.Event{Kind: kind, TicketKey: key, Status: c.status(), Days: days})
	return schema.Measurement{Key: key, Result: schema.ValueOf(float64(days))}
}

// qualifier names the single group of an ungrouped run.
func (c Calculator) qualifier() string {
	if c.Kind == schema.StatusDuration || c.Grouping == schema.ByArgumentGrouping {
		return c.Request.Argument
	}
	return ""
}

func (c Calculator) status() string {
	if c.Kind == schema.StatusDuration {
		return c.Request.Argument
	}
	return ""
}

// statusOpenEnd bounds a completed ticket still sitting in the target status.
func (c Calculator) statusOpenEnd() time.Time {
	if c.Request.Rolling {
		return c.Request.Now
	}
	return c.Request.EndDate
}

func (c Calculator) backlog() []string {
	if len(c.Backlog) == 0 {
		return flow.DefaultBacklogStatuses
	}
	return c.Backlog
}

func (c Calculator) emit(ev schema.Event) {
	if c.Observer == nil {
		return
	}
	ev.Query = c.Query
	c.Observer.Observe(ev)
}

func ticketKeys(groups ...[]schema.Ticket) []string {
	var keys []string
	for _, g := range groups {
		for _, t := range g {
			keys = append(keys, t.Key)
		}
	}
	return keys
}
