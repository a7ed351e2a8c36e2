package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"stockgpt/internal/entity"
	"stockgpt/internal/service"
	"stockgpt/pkg/logger"
	"stockgpt/pkg/telegram"
	"stockgpt/pkg/utils"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Re-run the analysis on a schedule and send Telegram alerts",
	Example: `  stockgpt watch --symbols AAPL,MSFT --timeframe 1d`,
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&flagSymbols, "symbols", nil, "Stock symbols to watch")
	watchCmd.Flags().StringVar(&flagTimeframe, "timeframe", "1d", "Timeframe: 1d, 1wk, 1mo, 3mo or 1y")
	watchCmd.Flags().BoolVar(&flagNoNews, "no-news", false, "Skip news aggregation")
	_ = watchCmd.MarkFlagRequired("symbols")
}

func runWatch(cmd *cobra.Command, _ []string) error {
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

	var notifier telegram.Notifier
	if application.cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(application.cfg.Telegram.BotToken, application.cfg.Telegram.ChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram notifier: %w", err)
		}
	}

	run := func() {
		runWatchCycle(ctx, application, notifier, symbols, timeframe)
	}

	c := cron.New()
	if _, err := c.AddFunc(application.cfg.Watch.Schedule, run); err != nil {
		return fmt.Errorf("%w: invalid watch schedule %q: %v", entity.ErrConfiguration, application.cfg.Watch.Schedule, err)
	}

	application.log.InfoContext(ctx, "watch started",
		logger.StringField("schedule", application.cfg.Watch.Schedule),
		logger.StringField("symbols", strings.Join(symbols, ",")),
		logger.StringField("timeframe", string(timeframe)))

	// Run once immediately so the first alert does not wait a full cycle.
	run()

	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	application.log.InfoContext(context.Background(), "watch stopped")
	return nil
}

func runWatchCycle(ctx context.Context, application *app, notifier telegram.Notifier, symbols []string, timeframe entity.Timeframe) {
	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx) {
			return
		}

		result, err := application.analyzer.Analyze(ctx, symbol, timeframe, service.Options{SkipNews: flagNoNews})
		if err != nil {
			application.log.ErrorContext(ctx, "watch analysis failed",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err))
			notify(application, notifier, telegram.FormatErrorAlertMessage(time.Now(), fmt.Sprintf("analysis of %s failed: %s", symbol, err)))
			continue
		}

		rsi := math.NaN()
		if v, ok := result.Indicators.Latest(entity.IndicatorRSI14); ok {
			rsi = v
		}
		stats := result.Indicators.Stats
		application.log.InfoContext(ctx, "watch analysis completed",
			logger.StringField("symbol", symbol),
			logger.StringField("trend", stats.Trend),
			logger.Float64Field("price_change_pct", stats.PriceChangePct))

		notify(application, notifier, telegram.FormatAnalysisMessage(
			time.Now(), symbol, string(timeframe), stats.Trend, stats.PriceChangePct, rsi, result.Insight))
	}
}

func notify(application *app, notifier telegram.Notifier, text string) {
	if notifier == nil {
		return
	}
	if err := notifier.SendMessage(text); err != nil {
		application.log.ErrorContext(context.Background(), "failed to send telegram message", logger.ErrorField(err))
	}
}
