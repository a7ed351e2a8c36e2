package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"stockgpt/internal/entity"
)

// computeVolatility computes the rolling standard deviation of the
// bar-to-bar percentage returns, annualized by the square root of the
// trading periods per year for the series interval. A window of n
// returns needs n+1 bars.
func computeVolatility(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	n := req.Period
	if s.Len() < n+1 {
		return map[string]entity.IndicatorValue{
			entity.IndicatorVolatility: insufficient(),
		}
	}

	returns := s.Returns()
	annualize := math.Sqrt(s.Interval.PeriodsPerYear())

	// returns[i] belongs to bar i+1, so the window ending at bar i covers
	// returns[i-n .. i-1].
	out := nanSlice(s.Len())
	for i := n; i < s.Len(); i++ {
		window := returns[i-n : i]
		out[i] = stat.StdDev(window, nil) * annualize
	}

	return map[string]entity.IndicatorValue{
		entity.IndicatorVolatility: {Values: out},
	}
}
