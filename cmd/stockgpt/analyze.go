package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stockgpt/internal/entity"
	"stockgpt/internal/service"
)

var (
	flagSymbols   []string
	flagTimeframe string
	flagCompare   bool
	flagNoNews    bool
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Short:   "Analyze one or more stock symbols",
	Example: `  stockgpt analyze --symbols AAPL --timeframe 3mo
  stockgpt analyze --symbols AAPL,MSFT,GOOG --timeframe 1y --compare`,
	RunE: runAnalyze,
}

var compareCmd = &cobra.Command{
	Use:     "compare",
	Short:   "Rank and correlate two or more symbols",
	Example: `  stockgpt compare --symbols AAPL,MSFT,GOOG --timeframe 1y`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// compare is sugar over analyze --compare.
		flagCompare = true
		return runAnalyze(cmd, args)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, compareCmd} {
		cmd.Flags().StringSliceVar(&flagSymbols, "symbols", nil, "Stock symbols to analyze")
		cmd.Flags().StringVar(&flagTimeframe, "timeframe", "1mo", "Timeframe: 1d, 1wk, 1mo, 3mo or 1y")
		cmd.Flags().BoolVar(&flagNoNews, "no-news", false, "Skip news aggregation")
		_ = cmd.MarkFlagRequired("symbols")
	}
	analyzeCmd.Flags().BoolVar(&flagCompare, "compare", false, "Rank and correlate the symbols against each other")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	timeframe, err := entity.ParseTimeframe(flagTimeframe)
	if err != nil {
		return err
	}

	symbols := normalizeSymbols(flagSymbols)
	if len(symbols) == 0 {
		return fmt.Errorf("%w: no symbols given", entity.ErrConfiguration)
	}

	ctx := cmd.Context()
	application, cleanup, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if flagCompare || len(symbols) > 1 {
		return runComparison(ctx, application, symbols, timeframe)
	}

	result, err := application.analyzer.Analyze(ctx, symbols[0], timeframe, service.Options{SkipNews: flagNoNews})
	if err != nil {
		return err
	}
	renderAnalysis(result)
	return nil
}

func runComparison(ctx context.Context, application *app, symbols []string, timeframe entity.Timeframe) error {
	report, err := application.comparer.Compare(ctx, symbols, timeframe, true)
	if err != nil {
		return err
	}
	renderComparison(report)
	return nil
}

func normalizeSymbols(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func renderAnalysis(result *service.AnalysisResult) {
	fmt.Printf("\n=== Analysis for %s (%s) ===\n", result.Symbol, result.Timeframe)

	stats := result.Indicators.Stats
	fmt.Println("\nTechnical Analysis:")
	fmt.Printf("Price Change: $%.2f (%.2f%%)\n", stats.PriceChange, stats.PriceChangePct)
	fmt.Printf("Average Volume: %.0f\n", stats.AvgVolume)
	printIndicator(result.Indicators, entity.IndicatorRSI14, "RSI")
	printIndicator(result.Indicators, entity.IndicatorVolatility, "Annualized Volatility")
	fmt.Printf("Trend: %s\n", stats.Trend)

	fmt.Println("\nMarket Summary:")
	fmt.Printf("Max Gain per Bar: %.2f%%\n", stats.MaxGain)
	fmt.Printf("Max Loss per Bar: %.2f%%\n", stats.MaxLoss)

	if len(result.Market) > 0 {
		fmt.Println("\nMarket Context:")
		for _, idx := range result.Market {
			fmt.Printf("%s: %.2f (%+.2f%%)\n", idx.Name, idx.Price, idx.ChangePct)
		}
	}

	if len(result.News) > 0 {
		fmt.Println("\nRecent News:")
		for i, item := range result.News {
			if i >= 3 {
				break
			}
			fmt.Printf("• %s (%s)\n", item.Headline, item.Source)
		}
	}

	fmt.Println("\nAI Analysis:")
	fmt.Println(result.Insight)
}

func renderComparison(report *service.ComparisonReport) {
	fmt.Printf("\n=== Comparison (%s) ===\n", report.Timeframe)

	fmt.Println("\nPerformance:")
	for _, sym := range report.Comparison.Symbols {
		set := report.Indicators[sym]
		fmt.Printf("%s: %.2f%% change\n", sym, set.Stats.PriceChangePct)
	}

	fmt.Println("\nRankings:")
	for _, metric := range []string{entity.MetricMomentum, entity.MetricRelativeStrength, entity.MetricVolatility, entity.MetricVolume} {
		if order := report.Comparison.Order(metric); len(order) > 0 {
			fmt.Printf("%s: %s\n", metric, strings.Join(order, " > "))
		}
	}

	if len(report.Comparison.Correlations) > 0 {
		fmt.Println("\nCorrelations:")
		for _, c := range report.Comparison.Correlations {
			if c.Defined {
				fmt.Printf("%s / %s: %.3f\n", c.SymbolA, c.SymbolB, c.Value)
			} else {
				fmt.Printf("%s / %s: undefined\n", c.SymbolA, c.SymbolB)
			}
		}
	}

	if len(report.Comparison.Failed) > 0 {
		fmt.Println("\nExcluded:")
		for sym, reason := range report.Comparison.Failed {
			fmt.Printf("%s: %s\n", sym, reason)
		}
	}

	if report.Insight != "" {
		fmt.Println("\nAI Analysis:")
		fmt.Println(report.Insight)
	}
}

func printIndicator(set *entity.IndicatorSet, name, label string) {
	if v, ok := set.Latest(name); ok {
		fmt.Printf("%s: %.2f\n", label, v)
		return
	}
	fmt.Printf("%s: insufficient data\n", label)
}
