// Package agg reduces per-ticket measurements into summaries and splits
// result sets into epic partitions.
package agg

import (
	"slices"
	"strings"

	"github.com/flowmosaic/mosaic/schema"
)

// Partition maps an epic key (or UnassignedEpic) to the tickets linked to it.
type Partition map[string][]schema.Ticket

// PartitionByEpic assigns every ticket to exactly one partition.
// Tickets with an absent or blank epic link land in UnassignedEpic.
func PartitionByEpic(tickets []schema.Ticket) Partition {
	p := Partition{}
	for _, t := range tickets {
		key := strings.TrimSpace(t.EpicLink)
		if key == "" {
			key = schema.UnassignedEpic
		}
		p[key] = append(p[key], t)
	}
	return p
}

// Keys returns the partition keys sorted, with UnassignedEpic last.
func (p Partition) Keys() []string {
	return sortEpicKeys(mapsKeys(p))
}

// UnionKeys returns the sorted keys present in any of the partitions.
func UnionKeys(parts ...Partition) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, p := range parts {
		for k := range p {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return sortEpicKeys(keys)
}

func mapsKeys(p Partition) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

func sortEpicKeys(keys []string) []string {
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == schema.UnassignedEpic:
			return 1
		case b == schema.UnassignedEpic:
			return -1
		default:
			return strings.Compare(a, b)
		}
	})
	return keys
}

// Average folds measurements into a mean over the ones carrying a value.
// Excluded measurements reduce the count; with nothing left the result is Undefined.
func Average(ms []schema.Measurement) schema.Summary {
	total := 0.0
	count := 0
	for _, m := range ms {
		if !m.Result.IsValue() {
			continue
		}
		total += m.Result.Value
		count++
	}
	if count == 0 {
		return schema.Summary{Result: schema.Undefined()}
	}
	return schema.Summary{Result: schema.ValueOf(total / float64(count)), Count: count}
}

// Count summarizes a raw ticket count. Zero is a definite count, not Undefined.
func Count(tickets []schema.Ticket) schema.Summary {
	return schema.Summary{Result: schema.ValueOf(float64(len(tickets))), Count: len(tickets)}
}
