package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestVars(t *testing.T) {
	req := Request{
		Project:   "FACTORY",
		BeginDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		Types:     "bug, story, task",
		Argument:  "Review",
		EndState:  "Done",
	}

	assert.Equal(t, map[string]string{
		"project":    "FACTORY",
		"begin_date": "2024-01-01",
		"end_date":   "2024-01-14",
		"types":      "bug, story, task",
		"argument":   "Review",
		"end_state":  "Done",
	}, req.Vars())
}

func TestWindowIncludesToday(t *testing.T) {
	req := Request{
		BeginDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"first day", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), true},
		{"last day late", time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC), true},
		{"day before", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), false},
		{"day after", time.Date(2024, 1, 15, 0, 1, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := req
			r.Now = tt.now
			assert.Equal(t, tt.want, r.WindowIncludesToday())
		})
	}
}

func TestEventFields(t *testing.T) {
	ev := Event{Kind: TicketExcludedEvent, Query: "cycletime", TicketKey: "A-1", Reason: "no start"}
	assert.Equal(t, map[string]any{"query": "cycletime", "ticket": "A-1", "reason": "no start"}, ev.Fields())

	measured := Event{Kind: TicketMeasuredEvent, TicketKey: "A-2", Days: 0}
	assert.Equal(t, map[string]any{"ticket": "A-2", "days": 0}, measured.Fields())
}
