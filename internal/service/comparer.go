package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"stockgpt/internal/cache"
	"stockgpt/internal/comparison"
	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/internal/repository"
	"stockgpt/pkg/logger"
	"stockgpt/pkg/utils"
)

// ComparisonReport is the outcome of a multi-symbol run.
type ComparisonReport struct {
	Timeframe  entity.Timeframe                `json:"timeframe"`
	Indicators map[string]*entity.IndicatorSet `json:"indicators"`
	Comparison *entity.ComparisonResult        `json:"comparison"`
	Insight    string                          `json:"insight,omitempty"`
}

// ComparerService runs the per-symbol pipelines and the cross-symbol
// comparison.
type ComparerService interface {
	Compare(ctx context.Context, symbols []string, timeframe entity.Timeframe, withInsight bool) (*ComparisonReport, error)
}

type comparerService struct {
	cfg      *config.Config
	log      *logger.Logger
	store    cache.Store
	yahoo    repository.YahooFinanceRepository
	ai       repository.AIRepository
	analyzer AnalyzerService
	engine   *comparison.Engine
}

// NewComparerService wires the multi-symbol pipeline on top of the
// single-symbol analyzer.
func NewComparerService(cfg *config.Config, log *logger.Logger,
	store cache.Store,
	yahoo repository.YahooFinanceRepository,
	ai repository.AIRepository,
	analyzer AnalyzerService) ComparerService {
	return &comparerService{
		cfg:      cfg,
		log:      log,
		store:    store,
		yahoo:    yahoo,
		ai:       ai,
		analyzer: analyzer,
		engine:   comparison.NewEngine(),
	}
}

// Compare fetches and analyzes every symbol, then ranks and correlates.
// Per-symbol fetches run concurrently; one symbol failing is recorded
// and excluded, and only all symbols failing aborts the run.
func (s *comparerService) Compare(ctx context.Context, symbols []string, timeframe entity.Timeframe, withInsight bool) (*ComparisonReport, error) {
	if len(symbols) < 2 {
		return nil, fmt.Errorf("%w: comparison needs at least two symbols", entity.ErrConfiguration)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		inputs = make(map[string]comparison.Input)
		failed = make(map[string]string)
	)

	semaphore := make(chan struct{}, s.cfg.Analyzer.MaxConcurrentFetch)

	for _, symbol := range symbols {
		if !utils.ShouldContinue(ctx) {
			break
		}
		symbol := symbol
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			series, indicators, err := s.analyzeOne(ctx, symbol, timeframe)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.WarnContext(ctx, "Symbol excluded from comparison", logger.ErrorField(err), logger.StringField("symbol", symbol))
				failed[symbol] = err.Error()
				return
			}
			inputs[symbol] = comparison.Input{Series: series, Indicators: indicators}
		})
	}

	wg.Wait()

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: all requested symbols failed", entity.ErrDataUnavailable)
	}

	result := s.engine.Compare(inputs, failed)

	report := &ComparisonReport{
		Timeframe:  timeframe,
		Indicators: make(map[string]*entity.IndicatorSet, len(inputs)),
		Comparison: result,
	}
	for sym, in := range inputs {
		report.Indicators[sym] = in.Indicators
	}

	if withInsight {
		prompt := repository.BuildComparisonPrompt(result, report.Indicators)
		insight, err := s.ai.GenerateInsight(ctx, prompt)
		if err != nil {
			return nil, err
		}
		report.Insight = insight
	}

	return report, nil
}

// analyzeOne produces the series and indicator set for one symbol,
// reusing the analyzer's caching path for indicators.
func (s *comparerService) analyzeOne(ctx context.Context, symbol string, timeframe entity.Timeframe) (*entity.Series, *entity.IndicatorSet, error) {
	result, err := s.analyzer.Analyze(ctx, symbol, timeframe, Options{SkipNews: true, SkipInsight: true})
	if err != nil {
		return nil, nil, err
	}

	// The correlation needs the raw bars; read them back through the
	// series cache the analyzer just warmed.
	key := cache.Key{Symbol: symbol, Timeframe: timeframe, Kind: cache.KindSeries}
	if b, ok := s.store.Get(ctx, key); ok {
		var series entity.Series
		if err := json.Unmarshal(b, &series); err == nil {
			return &series, result.Indicators, nil
		}
	}

	series, err := s.yahoo.GetSeries(ctx, symbol, timeframe)
	if err != nil {
		return nil, nil, err
	}
	return series, result.Indicators, nil
}
