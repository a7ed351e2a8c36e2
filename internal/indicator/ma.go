package indicator

import (
	"fmt"

	"stockgpt/internal/entity"
)

// rollingMean computes the simple moving average over window n, aligned to
// the input with a NaN warm-up prefix of n-1 entries.
func rollingMean(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// expMean computes the exponential moving average with smoothing factor
// 2/(n+1), seeded by the SMA of the first n values.
func expMean(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	if len(values) < n {
		return out
	}

	var seed float64
	for _, v := range values[:n] {
		seed += v
	}
	seed /= float64(n)
	out[n-1] = seed

	alpha := 2 / (float64(n) + 1)
	for i := n; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

func computeSMA(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	name := fmt.Sprintf("SMA_%d", req.Period)
	if s.Len() < req.Period {
		return map[string]entity.IndicatorValue{name: insufficient()}
	}
	return map[string]entity.IndicatorValue{
		name: {Values: rollingMean(s.Closes(), req.Period)},
	}
}

func computeEMA(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	name := fmt.Sprintf("EMA_%d", req.Period)
	if s.Len() < req.Period {
		return map[string]entity.IndicatorValue{name: insufficient()}
	}
	return map[string]entity.IndicatorValue{
		name: {Values: expMean(s.Closes(), req.Period)},
	}
}
