package comparison

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgpt/internal/entity"
	"stockgpt/internal/indicator"
)

func buildInput(t *testing.T, symbol string, closes []float64) Input {
	t.Helper()
	s := &entity.Series{
		Symbol:    symbol,
		Timeframe: entity.Timeframe1M,
		Interval:  entity.Interval1Day,
	}
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Bars = append(s.Bars, entity.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		})
	}

	set, err := indicator.NewEngine().Compute(s, indicator.DefaultRequests())
	require.NoError(t, err)
	return Input{Series: s, Indicators: set}
}

func rampCloses(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestCompareMomentumOrder(t *testing.T) {
	// A +10%, B -5%, C +2% over the window.
	inputs := map[string]Input{
		"A": buildInput(t, "A", rampCloses(100, 10.0/9, 10)),
		"B": buildInput(t, "B", rampCloses(100, -5.0/9, 10)),
		"C": buildInput(t, "C", rampCloses(100, 2.0/9, 10)),
	}

	result := NewEngine().Compare(inputs, nil)
	assert.Equal(t, []string{"A", "C", "B"}, result.Order(entity.MetricMomentum))
}

func TestCompareTieBreaksLexically(t *testing.T) {
	closes := rampCloses(100, 1, 10)
	inputs := map[string]Input{
		"ZZ": buildInput(t, "ZZ", closes),
		"AA": buildInput(t, "AA", closes),
	}

	result := NewEngine().Compare(inputs, nil)
	assert.Equal(t, []string{"AA", "ZZ"}, result.Order(entity.MetricMomentum))
}

func TestCompareVolatilityRanksLowestFirst(t *testing.T) {
	calm := rampCloses(100, 0.1, 30)
	wild := make([]float64, 30)
	for i := range wild {
		if i%2 == 0 {
			wild[i] = 100
		} else {
			wild[i] = 110
		}
	}
	inputs := map[string]Input{
		"CALM": buildInput(t, "CALM", calm),
		"WILD": buildInput(t, "WILD", wild),
	}

	result := NewEngine().Compare(inputs, nil)
	assert.Equal(t, []string{"CALM", "WILD"}, result.Order(entity.MetricVolatility))
}

func TestCompareUndefinedMetricRanksLast(t *testing.T) {
	// SHORT has too few bars for volatility, so it must rank after the
	// symbols with a defined value.
	inputs := map[string]Input{
		"LONG":  buildInput(t, "LONG", rampCloses(100, 1, 30)),
		"SHORT": buildInput(t, "SHORT", rampCloses(100, 1, 5)),
	}

	result := NewEngine().Compare(inputs, nil)
	assert.Equal(t, []string{"LONG", "SHORT"}, result.Order(entity.MetricVolatility))
}

func TestCorrelationPerfectPositive(t *testing.T) {
	inputs := map[string]Input{
		"A": buildInput(t, "A", []float64{100, 101, 103, 102, 105, 104}),
		"B": buildInput(t, "B", []float64{200, 202, 206, 204, 210, 208}),
	}

	result := NewEngine().Compare(inputs, nil)
	require.Len(t, result.Correlations, 1)

	c := result.Correlations[0]
	assert.Equal(t, "A", c.SymbolA)
	assert.Equal(t, "B", c.SymbolB)
	require.True(t, c.Defined)
	assert.InDelta(t, 1.0, c.Value, 1e-9)
}

func TestCorrelationPerfectNegative(t *testing.T) {
	// Anti-phase oscillation: every return of A pairs with the opposite
	// sign return of B.
	inputs := map[string]Input{
		"A": buildInput(t, "A", []float64{100, 110, 100, 110, 100, 110}),
		"B": buildInput(t, "B", []float64{100, 90, 100, 90, 100, 90}),
	}

	result := NewEngine().Compare(inputs, nil)
	require.Len(t, result.Correlations, 1)
	require.True(t, result.Correlations[0].Defined)
	assert.InDelta(t, -1.0, result.Correlations[0].Value, 1e-9)
}

func TestCorrelationUndefinedOnTinyOverlap(t *testing.T) {
	a := buildInput(t, "A", []float64{100, 101, 102, 103})
	b := buildInput(t, "B", []float64{50, 51, 52, 53})
	// Shift B's calendar so only two timestamps overlap, giving a single
	// overlapping return point.
	for i := range b.Series.Bars {
		b.Series.Bars[i].Timestamp = b.Series.Bars[i].Timestamp.Add(2 * 24 * time.Hour)
	}

	result := NewEngine().Compare(inputs(a, b), nil)
	require.Len(t, result.Correlations, 1)
	assert.False(t, result.Correlations[0].Defined)
}

func inputs(a, b Input) map[string]Input {
	return map[string]Input{
		a.Series.Symbol: a,
		b.Series.Symbol: b,
	}
}

func TestCompareCarriesFailures(t *testing.T) {
	in := map[string]Input{
		"GOOD": buildInput(t, "GOOD", rampCloses(100, 1, 10)),
	}
	failed := map[string]string{"BAD!": "invalid symbol"}

	result := NewEngine().Compare(in, failed)
	assert.Equal(t, []string{"GOOD"}, result.Symbols)
	assert.Equal(t, "invalid symbol", result.Failed["BAD!"])
}
