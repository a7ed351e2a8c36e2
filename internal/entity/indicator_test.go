package entity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorValueJSONPreservesWarmUp(t *testing.T) {
	v := IndicatorValue{Values: []float64{math.NaN(), math.NaN(), 42.5, 43.0}}

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":[null,null,42.5,43]}`, string(b))

	var back IndicatorValue
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Values, 4)
	assert.True(t, math.IsNaN(back.Values[0]))
	assert.True(t, math.IsNaN(back.Values[1]))
	assert.Equal(t, 42.5, back.Values[2])
}

func TestIndicatorValueJSONInsufficient(t *testing.T) {
	v := IndicatorValue{Insufficient: true}

	b, err := json.Marshal(v)
	require.NoError(t, err)

	var back IndicatorValue
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Insufficient)
	_, ok := back.Latest()
	assert.False(t, ok)
}

func TestIndicatorValueLatestSkipsNaN(t *testing.T) {
	v := IndicatorValue{Values: []float64{1, 2, math.NaN()}}
	latest, ok := v.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.0, latest)

	empty := IndicatorValue{Values: []float64{math.NaN()}}
	_, ok = empty.Latest()
	assert.False(t, ok)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("3mo")
	require.NoError(t, err)
	assert.Equal(t, Timeframe3M, tf)

	_, err = ParseTimeframe("2y")
	assert.ErrorIs(t, err, ErrConfiguration)
}
