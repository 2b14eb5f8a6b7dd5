package schema

import (
	"encoding/json"
	"math"
	"strconv"
)

// ResultKind tells a computed value apart from the two no-data outcomes.
type ResultKind int

const (
	// UndefinedResult means nothing contributed, so there is no value.
	UndefinedResult ResultKind = iota
	// ValueResult carries a computed number.
	ValueResult
	// ExcludedResult marks a ticket that never qualified for the metric.
	ExcludedResult
)

// Result is the tri-state outcome of a measurement or aggregate.
// Only ValueResult contributes to sums and counts.
type Result struct {
	Kind  ResultKind
	Value float64
}

// ValueOf wraps a computed number.
func ValueOf(v float64) Result {
	return Result{Kind: ValueResult, Value: v}
}

// Excluded returns the result for a ticket dropped from an aggregate.
func Excluded() Result {
	return Result{Kind: ExcludedResult}
}

// Undefined returns the result for an aggregate with nothing contributing.
func Undefined() Result {
	return Result{Kind: UndefinedResult}
}

// IsValue reports whether r carries a number.
func (r Result) IsValue() bool { return r.Kind == ValueResult }

// IsExcluded reports whether r is a per-ticket exclusion.
func (r Result) IsExcluded() bool { return r.Kind == ExcludedResult }

// IsUndefined reports whether r is an empty aggregate.
func (r Result) IsUndefined() bool { return r.Kind == UndefinedResult }

// Float returns the value, or NaN when there is none.
func (r Result) Float() float64 {
	if !r.IsValue() {
		return math.NaN()
	}
	return r.Value
}

// String renders the value, or "NaN" / "excluded".
func (r Result) String() string {
	switch r.Kind {
	case ValueResult:
		return strconv.FormatFloat(r.Value, 'f', -1, 64)
	case ExcludedResult:
		return "excluded"
	default:
		return "NaN"
	}
}

// MarshalJSON encodes non-values as null.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.IsValue() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON decodes null as Undefined.
func (r *Result) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = ValueOf(v)
	return nil
}

// MarshalYAML encodes non-values as the YAML NaN literal.
func (r Result) MarshalYAML() (any, error) {
	if !r.IsValue() {
		return math.NaN(), nil
	}
	return r.Value, nil
}
