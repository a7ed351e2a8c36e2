package comparison

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"stockgpt/internal/entity"
)

// Input pairs one symbol's series with its computed indicators.
type Input struct {
	Series     *entity.Series
	Indicators *entity.IndicatorSet
}

// Engine ranks symbols by metric and computes pairwise correlations.
type Engine struct{}

// NewEngine creates a comparison engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compare ranks the given symbols by momentum, volatility, relative
// strength and average volume, and computes Pearson correlations for
// each pair. failed lists symbols excluded from the comparison with the
// reason; they appear in the result untouched.
func (e *Engine) Compare(inputs map[string]Input, failed map[string]string) *entity.ComparisonResult {
	symbols := make([]string, 0, len(inputs))
	for sym := range inputs {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	result := &entity.ComparisonResult{
		Symbols: symbols,
		Ranks:   make(map[string]map[string]int),
		Failed:  failed,
	}

	momentum := make(map[string]float64)
	volatility := make(map[string]float64)
	strength := make(map[string]float64)
	volume := make(map[string]float64)
	for sym, in := range inputs {
		momentum[sym] = in.Indicators.Stats.PriceChangePct
		volume[sym] = in.Indicators.Stats.AvgVolume
		if v, ok := in.Indicators.Latest(entity.IndicatorVolatility); ok {
			volatility[sym] = v
		} else {
			volatility[sym] = math.NaN()
		}
		if v, ok := in.Indicators.Latest(entity.IndicatorRSI14); ok {
			strength[sym] = v
		} else {
			strength[sym] = math.NaN()
		}
	}

	result.Ranks[entity.MetricMomentum] = rank(momentum, false)
	result.Ranks[entity.MetricVolume] = rank(volume, false)
	result.Ranks[entity.MetricRelativeStrength] = rank(strength, false)
	// Lower volatility ranks first: rank 1 is the least risky symbol.
	result.Ranks[entity.MetricVolatility] = rank(volatility, true)

	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := symbols[i], symbols[j]
			value, defined := correlate(inputs[a].Series, inputs[b].Series)
			result.Correlations = append(result.Correlations, entity.PairCorrelation{
				SymbolA: a,
				SymbolB: b,
				Value:   value,
				Defined: defined,
			})
		}
	}

	return result
}

// rank orders symbols by value (descending unless ascending is set) and
// assigns ranks starting at 1. Ties and undefined values break by symbol
// lexical order, undefined sorting last.
func rank(values map[string]float64, ascending bool) map[string]int {
	symbols := make([]string, 0, len(values))
	for sym := range values {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool {
		vi, vj := values[symbols[i]], values[symbols[j]]
		ni, nj := math.IsNaN(vi), math.IsNaN(vj)
		switch {
		case ni && nj:
			return symbols[i] < symbols[j]
		case ni:
			return false
		case nj:
			return true
		case vi == vj:
			return symbols[i] < symbols[j]
		case ascending:
			return vi < vj
		default:
			return vi > vj
		}
	})

	ranks := make(map[string]int, len(symbols))
	for i, sym := range symbols {
		ranks[sym] = i + 1
	}
	return ranks
}

// correlate computes the Pearson correlation of the two series' returns
// over the intersection of their timestamps. Trading calendars differ by
// exchange, so alignment is by timestamp, never by position. Fewer than
// two overlapping return points leaves the correlation undefined.
func correlate(a, b *entity.Series) (float64, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	closesB := make(map[int64]float64, b.Len())
	for _, bar := range b.Bars {
		closesB[bar.Timestamp.Unix()] = bar.Close
	}

	var alignedA, alignedB []float64
	for _, bar := range a.Bars {
		if cb, ok := closesB[bar.Timestamp.Unix()]; ok {
			alignedA = append(alignedA, bar.Close)
			alignedB = append(alignedB, cb)
		}
	}

	returnsA := pctReturns(alignedA)
	returnsB := pctReturns(alignedB)
	if len(returnsA) < 2 {
		return 0, false
	}

	r := stat.Correlation(returnsA, returnsB, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return r, true
}

func pctReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	return out
}
