package indicator

import (
	"fmt"
	"math"

	"stockgpt/internal/entity"
)

// computeVolume computes the rolling average volume over n bars and the
// ratio of each bar's volume to that average.
func computeVolume(s *entity.Series, req Request) map[string]entity.IndicatorValue {
	n := req.Period
	avgName := fmt.Sprintf("VOLUME_AVG_%d", n)
	if s.Len() < n {
		return map[string]entity.IndicatorValue{
			avgName:                     insufficient(),
			entity.IndicatorVolumeRatio: insufficient(),
		}
	}

	volumes := s.Volumes()
	avg := rollingMean(volumes, n)
	ratio := nanSlice(len(volumes))
	for i := n - 1; i < len(volumes); i++ {
		if avg[i] == 0 {
			ratio[i] = math.NaN()
			continue
		}
		ratio[i] = volumes[i] / avg[i]
	}

	return map[string]entity.IndicatorValue{
		avgName:                     {Values: avg},
		entity.IndicatorVolumeRatio: {Values: ratio},
	}
}
