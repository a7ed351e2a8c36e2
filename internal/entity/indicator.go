package entity

import (
	"encoding/json"
	"math"
)

// Indicator result names.
const (
	IndicatorSMA20       = "SMA_20"
	IndicatorSMA50       = "SMA_50"
	IndicatorEMA12       = "EMA_12"
	IndicatorEMA26       = "EMA_26"
	IndicatorMACD        = "MACD"
	IndicatorMACDSignal  = "MACD_SIGNAL"
	IndicatorRSI14       = "RSI_14"
	IndicatorBBUpper     = "BB_UPPER"
	IndicatorBBMiddle    = "BB_MIDDLE"
	IndicatorBBLower     = "BB_LOWER"
	IndicatorStochK      = "STOCH_K"
	IndicatorStochD      = "STOCH_D"
	IndicatorVolumeAvg   = "VOLUME_AVG_20"
	IndicatorVolumeRatio = "VOLUME_RATIO"
	IndicatorVolatility  = "VOLATILITY"
)

// IndicatorValue is one computed indicator. Values is aligned with the
// source series; entries before the warm-up window are NaN. When the
// warm-up window exceeds the series length the value is marked
// insufficient and carries no numbers at all.
type IndicatorValue struct {
	Values       []float64
	Insufficient bool
}

type indicatorValueJSON struct {
	Values       []*float64 `json:"values,omitempty"`
	Insufficient bool       `json:"insufficient,omitempty"`
}

// MarshalJSON encodes warm-up NaN entries as null, which plain float64
// slices cannot represent in JSON.
func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	out := indicatorValueJSON{Insufficient: v.Insufficient}
	for i := range v.Values {
		if math.IsNaN(v.Values[i]) {
			out.Values = append(out.Values, nil)
			continue
		}
		f := v.Values[i]
		out.Values = append(out.Values, &f)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null entries as NaN.
func (v *IndicatorValue) UnmarshalJSON(data []byte) error {
	var in indicatorValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	v.Insufficient = in.Insufficient
	v.Values = nil
	for _, p := range in.Values {
		if p == nil {
			v.Values = append(v.Values, math.NaN())
			continue
		}
		v.Values = append(v.Values, *p)
	}
	return nil
}

// Latest returns the last defined value, if any.
func (v IndicatorValue) Latest() (float64, bool) {
	if v.Insufficient {
		return 0, false
	}
	for i := len(v.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(v.Values[i]) {
			return v.Values[i], true
		}
	}
	return 0, false
}

// SummaryStats are whole-series statistics derived alongside the indicators.
type SummaryStats struct {
	LastClose      float64 `json:"last_close"`
	AvgPrice       float64 `json:"avg_price"`
	PriceChange    float64 `json:"price_change"`
	PriceChangePct float64 `json:"price_change_pct"`
	AvgVolume      float64 `json:"avg_volume"`
	MaxGain        float64 `json:"max_gain"`
	MaxLoss        float64 `json:"max_loss"`
	Trend          string  `json:"trend"`
}

// IndicatorSet is the derived view over one series. It is recomputed from
// scratch whenever the series changes, never mutated in place.
type IndicatorSet struct {
	Symbol    string                    `json:"symbol"`
	Timeframe Timeframe                 `json:"timeframe"`
	Interval  Interval                  `json:"interval"`
	Values    map[string]IndicatorValue `json:"values"`
	Stats     SummaryStats              `json:"stats"`
}

// Latest returns the last defined value of a named indicator.
func (s *IndicatorSet) Latest(name string) (float64, bool) {
	v, ok := s.Values[name]
	if !ok {
		return 0, false
	}
	return v.Latest()
}
