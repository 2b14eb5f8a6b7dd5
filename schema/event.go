package schema

// Structured events emitted by the metrics engine.
const (
	SearchStartedEvent     EventKind = "search_started"
	SearchFinishedEvent    EventKind = "search_finished"
	CacheHitEvent          EventKind = "cache_hit"
	TicketMeasuredEvent    EventKind = "ticket_measured"
	TicketExcludedEvent    EventKind = "ticket_excluded"
	RollingMeasuredEvent   EventKind = "rolling_measured"
	UnassignedTicketsEvent EventKind = "unassigned_tickets"
	QueryFinishedEvent     EventKind = "query_finished"
)

// Event is one diagnostic fact about a run. Zero-valued fields are unset.
type Event struct {
	Kind      EventKind
	Query     string
	TicketKey string
	Status    string
	Days      int
	Count     int
	Reason    string
	Detail    string
}

// Fields returns the non-empty attributes of e keyed by name.
func (e Event) Fields() map[string]any {
	fields := map[string]any{}
	if e.Query != "" {
		fields["query"] = e.Query
	}
	if e.TicketKey != "" {
		fields["ticket"] = e.TicketKey
	}
	if e.Status != "" {
		fields["status"] = e.Status
	}
	if e.Kind == TicketMeasuredEvent || e.Kind == RollingMeasuredEvent {
		fields["days"] = e.Days
	}
	if e.Count != 0 {
		fields["count"] = e.Count
	}
	if e.Reason != "" {
		fields["reason"] = e.Reason
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	return fields
}
