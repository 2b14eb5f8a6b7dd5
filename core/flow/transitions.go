// Package flow turns ticket changelogs into ordered status transitions and
// resolves the time intervals that flow metrics are measured over.
package flow

import (
	"slices"
	"strings"

	"github.com/flowmosaic/mosaic/schema"
)

// ExtractTransitions returns the status changes of a changelog in ascending time order.
// Entries at the same instant keep their changelog order. Non-status fields are ignored.
func ExtractTransitions(changelog []schema.HistoryEntry) []schema.Transition {
	var out []schema.Transition
	for _, entry := range changelog {
		for _, item := range entry.Items {
			if !strings.EqualFold(item.Field, schema.StatusField) {
				continue
			}
			out = append(out, schema.Transition{From: item.From, To: item.To, At: entry.Created})
		}
	}
	return SortTransitions(out)
}

// SortTransitions returns a copy of ts sorted ascending by timestamp.
// The sort is stable, so sorting a sorted sequence yields the same sequence.
func SortTransitions(ts []schema.Transition) []schema.Transition {
	sorted := slices.Clone(ts)
	slices.SortStableFunc(sorted, func(a, b schema.Transition) int {
		return a.At.Compare(b.At)
	})
	return sorted
}

// sameStatus compares status names the way trackers display them.
func sameStatus(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// inStatuses reports whether status matches any of the given names.
func inStatuses(status string, names []string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return sameStatus(n, status) })
}
