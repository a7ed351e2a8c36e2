package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockgpt/internal/cache"
	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/internal/indicator"
	"stockgpt/internal/repository"
	"stockgpt/pkg/logger"
)

// AnalysisResult is the outcome of one single-symbol pipeline run.
type AnalysisResult struct {
	Symbol     string               `json:"symbol"`
	Timeframe  entity.Timeframe     `json:"timeframe"`
	Indicators *entity.IndicatorSet `json:"indicators"`
	News       []entity.NewsArticle `json:"news,omitempty"`
	Market     []entity.MarketIndex `json:"market,omitempty"`
	Insight    string               `json:"insight"`
}

// Options tune one analysis run.
type Options struct {
	SkipNews    bool
	SkipInsight bool
}

// AnalyzerService runs the fetch -> compute -> narrate pipeline.
type AnalyzerService interface {
	Analyze(ctx context.Context, symbol string, timeframe entity.Timeframe, opts Options) (*AnalysisResult, error)
}

type analyzerService struct {
	cfg        *config.Config
	log        *logger.Logger
	store      cache.Store
	yahoo      repository.YahooFinanceRepository
	news       repository.NewsRepository
	ai         repository.AIRepository
	engine     *indicator.Engine
	recordRepo repository.AnalysisRecordRepository
}

// NewAnalyzerService wires the single-symbol pipeline. recordRepo may be
// nil when history persistence is disabled.
func NewAnalyzerService(cfg *config.Config, log *logger.Logger,
	store cache.Store,
	yahoo repository.YahooFinanceRepository,
	news repository.NewsRepository,
	ai repository.AIRepository,
	recordRepo repository.AnalysisRecordRepository) AnalyzerService {
	return &analyzerService{
		cfg:        cfg,
		log:        log,
		store:      store,
		yahoo:      yahoo,
		news:       news,
		ai:         ai,
		engine:     indicator.NewEngine(),
		recordRepo: recordRepo,
	}
}

func (s *analyzerService) Analyze(ctx context.Context, symbol string, timeframe entity.Timeframe, opts Options) (*AnalysisResult, error) {
	series, err := s.getSeries(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}

	indicators, err := s.getIndicators(ctx, series)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Symbol:     symbol,
		Timeframe:  timeframe,
		Indicators: indicators,
	}

	if opts.SkipInsight {
		return result, nil
	}

	if !opts.SkipNews {
		articles, err := s.news.GetNews(ctx, symbol)
		if err != nil {
			s.log.WarnContext(ctx, "News aggregation failed, continuing without headlines", logger.ErrorField(err), logger.StringField("symbol", symbol))
		}
		result.News = articles
	}

	market, err := s.yahoo.GetMarketContext(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Market context unavailable", logger.ErrorField(err))
	}
	result.Market = market

	insight, err := s.getInsight(ctx, result)
	if err != nil {
		return nil, err
	}
	result.Insight = insight

	if s.recordRepo != nil {
		if err := s.persist(ctx, result); err != nil {
			s.log.WarnContext(ctx, "Failed to persist analysis record", logger.ErrorField(err), logger.StringField("symbol", symbol))
		}
	}

	return result, nil
}

// getSeries returns the cached series when fresh, otherwise fetches and
// caches it with the timeframe's TTL.
func (s *analyzerService) getSeries(ctx context.Context, symbol string, timeframe entity.Timeframe) (*entity.Series, error) {
	key := cache.Key{Symbol: symbol, Timeframe: timeframe, Kind: cache.KindSeries}
	if b, ok := s.store.Get(ctx, key); ok {
		var series entity.Series
		if err := json.Unmarshal(b, &series); err == nil {
			s.log.DebugContext(ctx, "Series cache hit", logger.StringField("key", key.String()))
			return &series, nil
		}
		s.store.Invalidate(ctx, key)
	}

	series, err := s.yahoo.GetSeries(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(series); err == nil {
		s.store.Put(ctx, key, b, s.cfg.Cache.TTLFor(timeframe))
	}
	return series, nil
}

// getIndicators returns the cached indicator set for the series'
// (symbol, timeframe) key, recomputing when absent. A new set always
// replaces the old one; nothing is patched in place.
func (s *analyzerService) getIndicators(ctx context.Context, series *entity.Series) (*entity.IndicatorSet, error) {
	key := cache.Key{Symbol: series.Symbol, Timeframe: series.Timeframe, Kind: cache.KindIndicators}
	if b, ok := s.store.Get(ctx, key); ok {
		var set entity.IndicatorSet
		if err := json.Unmarshal(b, &set); err == nil {
			return &set, nil
		}
		s.store.Invalidate(ctx, key)
	}

	set, err := s.engine.Compute(series, indicator.DefaultRequests())
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(set); err == nil {
		s.store.Put(ctx, key, b, s.cfg.Cache.TTLFor(series.Timeframe))
	}
	return set, nil
}

func (s *analyzerService) getInsight(ctx context.Context, result *AnalysisResult) (string, error) {
	key := cache.Key{Symbol: result.Symbol, Timeframe: result.Timeframe, Kind: cache.KindInsight}
	if b, ok := s.store.Get(ctx, key); ok {
		return string(b), nil
	}

	prompt := repository.BuildAnalysisPrompt(result.Indicators, result.News, result.Market)
	insight, err := s.ai.GenerateInsight(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.store.Put(ctx, key, []byte(insight), s.cfg.Cache.TTLFor(result.Timeframe))
	return insight, nil
}

func (s *analyzerService) persist(ctx context.Context, result *AnalysisResult) error {
	metrics, err := json.Marshal(result.Indicators)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	record := &entity.AnalysisRecord{
		Symbol:         result.Symbol,
		Timeframe:      string(result.Timeframe),
		Provider:       s.cfg.AI.Provider,
		Trend:          result.Indicators.Stats.Trend,
		PriceChangePct: result.Indicators.Stats.PriceChangePct,
		Metrics:        metrics,
		Insight:        result.Insight,
	}
	if v, ok := result.Indicators.Latest(entity.IndicatorRSI14); ok {
		record.RSI = v
	}
	if v, ok := result.Indicators.Latest(entity.IndicatorVolatility); ok {
		record.Volatility = v
	}
	for _, article := range result.News {
		record.Headlines = append(record.Headlines, article.Headline)
	}

	createCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.recordRepo.Create(createCtx, record); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("failed to create analysis record: %w", err)
	}
	return nil
}
