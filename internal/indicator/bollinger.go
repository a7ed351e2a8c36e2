package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"stockgpt/internal/entity"
)

// computeBollinger computes Bollinger Bands: middle = SMA(n), upper/lower
// = middle ± k times the population standard deviation of the window.
func computeBollinger(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	n, k := req.Period, req.K
	if s.Len() < n {
		return map[string]entity.IndicatorValue{
			entity.IndicatorBBUpper:  insufficient(),
			entity.IndicatorBBMiddle: insufficient(),
			entity.IndicatorBBLower:  insufficient(),
		}
	}

	closes := s.Closes()
	middle := rollingMean(closes, n)
	upper := nanSlice(len(closes))
	lower := nanSlice(len(closes))

	for i := n - 1; i < len(closes); i++ {
		window := closes[i-n+1 : i+1]
		sd := popStdDev(window)
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}

	return map[string]entity.IndicatorValue{
		entity.IndicatorBBUpper:  {Values: upper},
		entity.IndicatorBBMiddle: {Values: middle},
		entity.IndicatorBBLower:  {Values: lower},
	}
}

// popStdDev is the population standard deviation (divisor N, not N-1).
func popStdDev(window []float64) float64 {
	mean := stat.Mean(window, nil)
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(window)))
}
