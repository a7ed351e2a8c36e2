package indicator

import (
	"math"

	"stockgpt/internal/entity"
)

const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// computeMACD computes MACD = EMA(12) - EMA(26) with a signal line equal
// to the EMA(9) of the MACD. The MACD is first defined where EMA(26) is,
// the signal line 8 bars later.
func computeMACD(s *entity.Series, _ Request) map[string]entity.IndicatorValue {
	if s.Len() < macdSlowPeriod {
		return map[string]entity.IndicatorValue{
			entity.IndicatorMACD:       insufficient(),
			entity.IndicatorMACDSignal: insufficient(),
		}
	}

	closes := s.Closes()
	fast := expMean(closes, macdFastPeriod)
	slow := expMean(closes, macdSlowPeriod)

	macd := nanSlice(len(closes))
	for i := macdSlowPeriod - 1; i < len(closes); i++ {
		macd[i] = fast[i] - slow[i]
	}

	out := map[string]entity.IndicatorValue{
		entity.IndicatorMACD: {Values: macd},
	}

	defined := macd[macdSlowPeriod-1:]
	if len(defined) < macdSignalPeriod {
		out[entity.IndicatorMACDSignal] = insufficient()
		return out
	}

	signal := nanSlice(len(closes))
	for i, v := range expMean(defined, macdSignalPeriod) {
		if !math.IsNaN(v) {
			signal[macdSlowPeriod-1+i] = v
		}
	}
	out[entity.IndicatorMACDSignal] = entity.IndicatorValue{Values: signal}

	return out
}
