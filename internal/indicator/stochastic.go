package indicator

import (
	"math"

	"stockgpt/internal/entity"
)

const stochSmoothPeriod = 3

// computeStochastic computes the stochastic oscillator:
// %K = 100 * (close - lowest low) / (highest high - lowest low) over n
// bars, defined as 50 when the range is degenerate, and %D = 3-period
// SMA of %K.
func computeStochastic(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	n := req.Period
	if s.Len() < n {
		return map[string]entity.IndicatorValue{
			entity.IndicatorStochK: insufficient(),
			entity.IndicatorStochD: insufficient(),
		}
	}

	highs, lows, closes := s.Highs(), s.Lows(), s.Closes()
	k := nanSlice(len(closes))

	for i := n - 1; i < len(closes); i++ {
		hh := highs[i]
		ll := lows[i]
		for j := i - n + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - ll) / (hh - ll)
	}

	out := map[string]entity.IndicatorValue{
		entity.IndicatorStochK: {Values: k},
	}

	if s.Len() < n+stochSmoothPeriod-1 {
		out[entity.IndicatorStochD] = insufficient()
		return out
	}

	d := nanSlice(len(closes))
	for i, v := range rollingMean(k[n-1:], stochSmoothPeriod) {
		if !math.IsNaN(v) {
			d[n-1+i] = v
		}
	}
	out[entity.IndicatorStochD] = entity.IndicatorValue{Values: d}

	return out
}
