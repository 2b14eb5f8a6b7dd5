// Package logging formats engine events and client diagnostics with logrus.
package logging

import (
	"io"
	"sync"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus logger writing to out. An unknown level falls back to info.
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	}
	logger.SetOutput(out)
	return logger
}

// Observer writes engine events to a logrus entry tagged with a run id.
type Observer struct {
	entry *logrus.Entry
	runID string
}

var _ contract.Observer = &Observer{}

// NewObserver starts a new run on logger.
func NewObserver(logger *logrus.Logger) *Observer {
	runID := uuid.NewString()
	return &Observer{entry: logger.WithField("run_id", runID), runID: runID}
}

// RunID returns the id attached to every line of this run.
func (o *Observer) RunID() string { return o.runID }

// Entry exposes the run-scoped entry for collaborators like the tracker client.
func (o *Observer) Entry() *logrus.Entry { return o.entry }

// Observe implements contract.Observer.
func (o *Observer) Observe(ev schema.Event) {
	o.entry.WithFields(logrus.Fields(ev.Fields())).Log(levelFor(ev.Kind), messageFor(ev.Kind))
}

func levelFor(kind schema.EventKind) logrus.Level {
	switch kind {
	case schema.QueryFinishedEvent:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

func messageFor(kind schema.EventKind) string {
	switch kind {
	case schema.SearchStartedEvent:
		return "search started"
	case schema.SearchFinishedEvent:
		return "search finished"
	case schema.CacheHitEvent:
		return "search served from cache"
	case schema.TicketMeasuredEvent:
		return "ticket measured"
	case schema.TicketExcludedEvent:
		return "ticket excluded"
	case schema.RollingMeasuredEvent:
		return "in-flight ticket measured"
	case schema.UnassignedTicketsEvent:
		return "tickets without epic"
	case schema.QueryFinishedEvent:
		return "query finished"
	default:
		return string(kind)
	}
}

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []schema.Event
}

var _ contract.Observer = &Recorder{}

// Observe implements contract.Observer.
func (r *Recorder) Observe(ev schema.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything observed so far.
func (r *Recorder) Events() []schema.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the observed events of one kind, in order.
func (r *Recorder) OfKind(kind schema.EventKind) []schema.Event {
	var out []schema.Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
