package indicator

import (
	"fmt"

	"stockgpt/internal/entity"
)

// computeRSI computes the Wilder-smoothed relative strength index. The
// initial averages use the first n close-to-close changes, so n+1 bars
// are needed for the first defined value. When the average loss is zero
// the RSI is 100, never a division error.
func computeRSI(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	n := req.Period
	name := fmt.Sprintf("RSI_%d", n)
	if s.Len() < n+1 {
		return map[string]entity.IndicatorValue{name: insufficient()}
	}

	closes := s.Closes()
	out := nanSlice(len(closes))

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiValue(avgGain, avgLoss)

	for i := n + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return map[string]entity.IndicatorValue{name: {Values: out}}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
