package schema

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestResultKinds(t *testing.T) {
	zero := ValueOf(0)
	assert.True(t, zero.IsValue())
	assert.Equal(t, 0.0, zero.Float())

	undefined := Undefined()
	assert.True(t, undefined.IsUndefined())
	assert.True(t, math.IsNaN(undefined.Float()))

	excluded := Excluded()
	assert.True(t, excluded.IsExcluded())
	assert.False(t, excluded.IsValue())

	assert.NotEqual(t, zero, undefined, "a computed zero is not the same as no data")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "8.5", ValueOf(8.5).String())
	assert.Equal(t, "0", ValueOf(0).String())
	assert.Equal(t, "NaN", Undefined().String())
	assert.Equal(t, "excluded", Excluded().String())
}

func TestResultJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Result{"a": ValueOf(2.5), "b": Undefined()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2.5, "b": null}`, string(data))

	var decoded map[string]Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ValueOf(2.5), decoded["a"])
	assert.True(t, decoded["b"].IsUndefined())
}

func TestResultYAML(t *testing.T) {
	data, err := yaml.Marshal(ReportRecord{Query: "cycletime", Value: Undefined()})
	require.NoError(t, err)
	assert.Contains(t, string(data), "value: .nan")

	data, err = yaml.Marshal(ReportRecord{Query: "cycletime", Value: ValueOf(3)})
	require.NoError(t, err)
	assert.Contains(t, string(data), "value: 3")
}
