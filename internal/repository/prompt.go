package repository

import (
	"fmt"
	"sort"
	"strings"

	"stockgpt/internal/entity"
)

const analystPreamble = `Take a deep breath and think step by step. You are a CFA certified expert financial analyst who helps portfolio managers with research. Your task is to extract the most accurate and relevant financial information from the data below.
Guidelines:
- Identify the key points that are most relevant to assessing this position.
- If there are no relevant points, respond with 'No relevant information.'
- Answer succinctly and avoid verbatim quotes or references.
- Close with a detailed overview of recent happenings around the stock.`

// BuildAnalysisPrompt assembles the single-symbol analyst prompt from the
// indicator set, news headlines and market context.
func BuildAnalysisPrompt(set *entity.IndicatorSet, news []entity.NewsArticle, market []entity.MarketIndex) string {
	var b strings.Builder

	b.WriteString(analystPreamble)
	fmt.Fprintf(&b, "\n\nAnalyze the following stock data for %s over a %s period and provide insights and recommendations:\n\n",
		set.Symbol, set.Timeframe)

	stats := set.Stats
	fmt.Fprintf(&b, "- Average Price: $%.2f\n", stats.AvgPrice)
	fmt.Fprintf(&b, "- Price Change: $%.2f (%.2f%%)\n", stats.PriceChange, stats.PriceChangePct)
	fmt.Fprintf(&b, "- Average Volume: %.0f\n", stats.AvgVolume)
	fmt.Fprintf(&b, "- Trend: %s\n", stats.Trend)
	fmt.Fprintf(&b, "- Max Gain per Bar: %.2f%%\n", stats.MaxGain)
	fmt.Fprintf(&b, "- Max Loss per Bar: %.2f%%\n", stats.MaxLoss)
	writeIndicatorLine(&b, "MACD", set, entity.IndicatorMACD)
	writeIndicatorLine(&b, "MACD Signal", set, entity.IndicatorMACDSignal)
	writeIndicatorLine(&b, "RSI (14)", set, entity.IndicatorRSI14)
	b.WriteString("- Bollinger Bands:\n")
	writeIndicatorLine(&b, "  Upper", set, entity.IndicatorBBUpper)
	writeIndicatorLine(&b, "  Middle", set, entity.IndicatorBBMiddle)
	writeIndicatorLine(&b, "  Lower", set, entity.IndicatorBBLower)
	b.WriteString("- Stochastic Oscillator:\n")
	writeIndicatorLine(&b, "  %K", set, entity.IndicatorStochK)
	writeIndicatorLine(&b, "  %D", set, entity.IndicatorStochD)
	writeIndicatorLine(&b, "Annualized Volatility", set, entity.IndicatorVolatility)
	writeIndicatorLine(&b, "Volume vs 20-bar Average", set, entity.IndicatorVolumeRatio)

	if len(market) > 0 {
		b.WriteString("\nMarket Context:\n")
		for _, idx := range market {
			fmt.Fprintf(&b, "- %s: %.2f (%+.2f%%)\n", idx.Name, idx.Price, idx.ChangePct)
		}
	}

	if len(news) > 0 {
		b.WriteString("\nNews Headlines:\n")
		for _, item := range news {
			fmt.Fprintf(&b, "- %s (%s)\n", item.Headline, item.Source)
			if item.Summary != "" {
				fmt.Fprintf(&b, "  %s\n", item.Summary)
			}
		}
	}

	return b.String()
}

// BuildComparisonPrompt assembles the multi-symbol prompt from per-symbol
// metrics, rankings and pairwise correlations.
func BuildComparisonPrompt(result *entity.ComparisonResult, sets map[string]*entity.IndicatorSet) string {
	var b strings.Builder

	b.WriteString(analystPreamble)
	fmt.Fprintf(&b, "\n\nCompare the following stocks: %s\n\n", strings.Join(result.Symbols, ", "))

	for _, sym := range result.Symbols {
		set, ok := sets[sym]
		if !ok {
			continue
		}
		stats := set.Stats
		fmt.Fprintf(&b, "%s:\n", sym)
		fmt.Fprintf(&b, "- Price Change: %.2f%% (%s)\n", stats.PriceChangePct, stats.Trend)
		fmt.Fprintf(&b, "- Average Volume: %.0f\n", stats.AvgVolume)
		writeIndicatorLine(&b, "RSI (14)", set, entity.IndicatorRSI14)
		writeIndicatorLine(&b, "Annualized Volatility", set, entity.IndicatorVolatility)
		b.WriteString("\n")
	}

	b.WriteString("Rankings (1 = best):\n")
	metrics := make([]string, 0, len(result.Ranks))
	for metric := range result.Ranks {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)
	for _, metric := range metrics {
		fmt.Fprintf(&b, "- %s: %s\n", metric, strings.Join(result.Order(metric), " > "))
	}

	if len(result.Correlations) > 0 {
		b.WriteString("\nPairwise return correlations:\n")
		for _, c := range result.Correlations {
			if !c.Defined {
				fmt.Fprintf(&b, "- %s / %s: undefined (insufficient overlap)\n", c.SymbolA, c.SymbolB)
				continue
			}
			fmt.Fprintf(&b, "- %s / %s: %.3f\n", c.SymbolA, c.SymbolB, c.Value)
		}
	}

	if len(result.Failed) > 0 {
		b.WriteString("\nExcluded symbols (fetch or analysis failed):\n")
		failed := make([]string, 0, len(result.Failed))
		for sym := range result.Failed {
			failed = append(failed, sym)
		}
		sort.Strings(failed)
		for _, sym := range failed {
			fmt.Fprintf(&b, "- %s: %s\n", sym, result.Failed[sym])
		}
	}

	b.WriteString("\nProvide a comparative assessment: which symbols look strongest and weakest, how correlated the group is, and what risks stand out.")

	return b.String()
}

func writeIndicatorLine(b *strings.Builder, label string, set *entity.IndicatorSet, name string) {
	if v, ok := set.Latest(name); ok {
		fmt.Fprintf(b, "- %s: %.2f\n", label, v)
		return
	}
	fmt.Fprintf(b, "- %s: insufficient data\n", label)
}
