package indicator

import (
	"gonum.org/v1/gonum/stat"

	"stockgpt/internal/entity"
)

// summaryStats derives whole-series statistics for the prompt and the
// comparison engine.
func summaryStats(s *entity.Series) entity.SummaryStats {
	if s.Len() == 0 {
		return entity.SummaryStats{}
	}

	closes := s.Closes()
	first, last := closes[0], closes[len(closes)-1]

	stats := entity.SummaryStats{
		LastClose:   last,
		AvgPrice:    stat.Mean(closes, nil),
		AvgVolume:   stat.Mean(s.Volumes(), nil),
		PriceChange: last - first,
	}
	if first != 0 {
		stats.PriceChangePct = (last/first - 1) * 100
	}

	if returns := s.Returns(); len(returns) > 0 {
		stats.MaxGain = returns[0]
		stats.MaxLoss = returns[0]
		for _, r := range returns[1:] {
			if r > stats.MaxGain {
				stats.MaxGain = r
			}
			if r < stats.MaxLoss {
				stats.MaxLoss = r
			}
		}
	}

	if stats.PriceChange > 0 {
		stats.Trend = "Upward"
	} else {
		stats.Trend = "Downward"
	}

	return stats
}
