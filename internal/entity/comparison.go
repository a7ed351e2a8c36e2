package entity

// Ranking metrics.
const (
	MetricMomentum         = "momentum"
	MetricVolatility       = "volatility"
	MetricRelativeStrength = "relative_strength"
	MetricVolume           = "volume"
)

// PairCorrelation is the Pearson correlation of two symbols' return
// sequences over the intersection of their timestamps. Defined is false
// when fewer than two overlapping return points exist.
type PairCorrelation struct {
	SymbolA string  `json:"symbol_a"`
	SymbolB string  `json:"symbol_b"`
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// ComparisonResult ranks a set of symbols per metric (rank 1 = best, ties
// broken by symbol lexical order) and carries pairwise correlations.
// Recomputed fully on each comparison request.
type ComparisonResult struct {
	Symbols      []string                  `json:"symbols"`
	Ranks        map[string]map[string]int `json:"ranks"` // metric -> symbol -> rank
	Correlations []PairCorrelation         `json:"correlations"`
	Failed       map[string]string         `json:"failed,omitempty"` // symbol -> error
}

// Order returns the symbols for a metric in rank order.
func (r *ComparisonResult) Order(metric string) []string {
	ranks, ok := r.Ranks[metric]
	if !ok {
		return nil
	}
	out := make([]string, len(ranks))
	for sym, rank := range ranks {
		if rank >= 1 && rank <= len(out) {
			out[rank-1] = sym
		}
	}
	return out
}
