package indicator

import (
	"fmt"
	"math"

	"stockgpt/internal/entity"
)

// Kind identifies one indicator family. The set is closed: every kind is
// registered below, there is no runtime dispatch by arbitrary name.
type Kind string

const (
	KindSMA        Kind = "sma"
	KindEMA        Kind = "ema"
	KindMACD       Kind = "macd"
	KindRSI        Kind = "rsi"
	KindBollinger  Kind = "bollinger"
	KindStochastic Kind = "stochastic"
	KindVolume     Kind = "volume"
	KindVolatility Kind = "volatility"
)

// Request asks for one indicator computation. Period is ignored by kinds
// with fixed windows (MACD). K is the Bollinger band width multiplier.
type Request struct {
	Kind   Kind
	Period int
	K      float64
}

// DefaultRequests is the standard set computed for every analysis.
func DefaultRequests() []Request {
	return []Request{
		{Kind: KindSMA, Period: 20},
		{Kind: KindSMA, Period: 50},
		{Kind: KindEMA, Period: 12},
		{Kind: KindEMA, Period: 26},
		{Kind: KindMACD},
		{Kind: KindRSI, Period: 14},
		{Kind: KindBollinger, Period: 20, K: 2},
		{Kind: KindStochastic, Period: 14},
		{Kind: KindVolume, Period: 20},
		{Kind: KindVolatility, Period: 20},
	}
}

type computeFunc func(s *entity.Series, req Request) map[string]entity.IndicatorValue

var registry = map[Kind]computeFunc{
	KindSMA:        computeSMA,
	KindEMA:        computeEMA,
	KindMACD:       computeMACD,
	KindRSI:        computeRSI,
	KindBollinger:  computeBollinger,
	KindStochastic: computeStochastic,
	KindVolume:     computeVolume,
	KindVolatility: computeVolatility,
}

// Engine computes indicator sets from bar series.
type Engine struct{}

// NewEngine creates an indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute evaluates the requested indicators over the series. Indicators
// whose warm-up window exceeds the series length come back explicitly
// marked insufficient; callers must handle partial results and never see
// fabricated zeroes. Unknown kinds are an error.
func (e *Engine) Compute(s *entity.Series, reqs []Request) (*entity.IndicatorSet, error) {
	set := &entity.IndicatorSet{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Interval:  s.Interval,
		Values:    make(map[string]entity.IndicatorValue),
		Stats:     summaryStats(s),
	}

	for _, req := range reqs {
		fn, ok := registry[req.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown indicator kind %q", req.Kind)
		}
		for name, value := range fn(s, req) {
			set.Values[name] = value
		}
	}

	return set, nil
}

// insufficient builds the explicit marker for a too-short series.
func insufficient() entity.IndicatorValue {
	return entity.IndicatorValue{Insufficient: true}
}

// nanSlice returns a series-aligned slice initialized to NaN.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
