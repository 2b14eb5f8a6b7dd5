package flow

import (
	"errors"
	"time"

	"github.com/flowmosaic/mosaic/schema"
)

// Per-ticket exclusion reasons. None of these abort a run.
var (
	ErrUnresolved       = errors.New("ticket has no resolution date")
	ErrNoCycleStart     = errors.New("no transition out of a backlog status into work")
	ErrNeverEntered     = errors.New("ticket never entered the target status")
	ErrNegativeInterval = errors.New("interval ends before it begins")
)

// DefaultBacklogStatuses are the statuses a ticket leaves when work on it starts.
var DefaultBacklogStatuses = []string{"To Do", "Next"}

// newInterval builds an interval, rejecting one that would measure negative days.
func newInterval(begin, end time.Time, open bool) (schema.Interval, error) {
	if schema.DayDiff(end, begin) < 0 {
		return schema.Interval{}, ErrNegativeInterval
	}
	return schema.Interval{Begin: begin, End: end, Open: open}, nil
}

// LeadInterval spans from ticket creation to resolution.
// A resolution dated before creation is malformed data; it is excluded with
// ErrNegativeInterval rather than clamped to zero.
func LeadInterval(t schema.Ticket) (schema.Interval, error) {
	if t.Resolved == nil {
		return schema.Interval{}, ErrUnresolved
	}
	return newInterval(t.Created, *t.Resolved, false)
}

// CycleStart finds the first transition out of a backlog status into a non-backlog one.
// Moving between backlog statuses (To Do to Next) does not start the cycle.
func CycleStart(ts []schema.Transition, backlog []string) (time.Time, error) {
	for _, tr := range ts {
		if inStatuses(tr.From, backlog) && !inStatuses(tr.To, backlog) {
			return tr.At, nil
		}
	}
	return time.Time{}, ErrNoCycleStart
}

// CycleInterval spans from the cycle start to the ticket's resolution.
func CycleInterval(t schema.Ticket, ts []schema.Transition, backlog []string) (schema.Interval, error) {
	if t.Resolved == nil {
		return schema.Interval{}, ErrUnresolved
	}
	start, err := CycleStart(ts, backlog)
	if err != nil {
		return schema.Interval{}, err
	}
	return newInterval(start, *t.Resolved, false)
}

// OpenCycleInterval spans from the cycle start of an in-flight ticket to now.
func OpenCycleInterval(ts []schema.Transition, backlog []string, now time.Time) (schema.Interval, error) {
	start, err := CycleStart(ts, backlog)
	if err != nil {
		return schema.Interval{}, err
	}
	return newInterval(start, now, true)
}

// StatusInterval spans from the first entry into target to the last exit from it.
// A ticket that never left target is measured up to openEnd. Repeated visits are
// collapsed into one span rather than summed.
func StatusInterval(ts []schema.Transition, target string, openEnd time.Time) (schema.Interval, error) {
	first := -1
	for i, tr := range ts {
		if sameStatus(tr.To, target) && !sameStatus(tr.From, target) {
			first = i
			break
		}
	}
	if first < 0 {
		return schema.Interval{}, ErrNeverEntered
	}
	begin := ts[first].At

	for i := len(ts) - 1; i > first; i-- {
		if sameStatus(ts[i].From, target) && !sameStatus(ts[i].To, target) {
			return newInterval(begin, ts[i].At, false)
		}
	}
	return newInterval(begin, openEnd, true)
}

// OpenStatusInterval measures an in-flight ticket. A ticket whose latest transition
// put it into target is still there, so its span runs from the first entry to now
// even when an earlier visit ended with an exit.
func OpenStatusInterval(ts []schema.Transition, target string, now time.Time) (schema.Interval, error) {
	iv, err := StatusInterval(ts, target, now)
	if err != nil || iv.Open {
		return iv, err
	}
	if last := ts[len(ts)-1]; sameStatus(last.To, target) {
		return newInterval(iv.Begin, now, true)
	}
	return iv, nil
}
