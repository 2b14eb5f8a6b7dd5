package core

import (
	"strings"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
)

// PlanReport resolves query names and checks them against the request.
// Every configuration error is reported here, before any search runs.
func PlanReport(names []string, req schema.Request) ([]Query, error) {
	if len(names) == 0 {
		return nil, contract.NewConfigError("query", "at least one query is required (supported: %s)", strings.Join(QueryNames(), ", "))
	}
	if req.Project == "" {
		return nil, contract.NewConfigError("project", "a project key is required")
	}
	queries := make([]Query, 0, len(names))
	for _, name := range names {
		q, ok := Lookup(name)
		if !ok {
			return nil, contract.NewConfigError("query", "unknown query %q (supported: %s)", name, strings.Join(QueryNames(), ", "))
		}
		if err := checkQuery(q, req); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func checkQuery(q Query, req schema.Request) error {
	if q.RequiresArgument && req.Argument == "" {
		return contract.NewConfigError("argument", "query %s requires an argument", q.Name)
	}
	if !req.Rolling {
		return nil
	}
	if !q.SupportsRolling {
		return contract.NewConfigError("rolling", "query %s does not support rolling mode", q.Name)
	}
	if !q.IsolatedRolling && !req.WindowIncludesToday() {
		return contract.NewConfigError("rolling", "query %s needs a date window that includes today (%s to %s given)",
			q.Name, req.BeginDate.Format(schema.DateFormat), req.EndDate.Format(schema.DateFormat))
	}
	return nil
}
