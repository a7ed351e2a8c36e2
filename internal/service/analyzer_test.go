package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgpt/internal/cache"
	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

type fakeYahoo struct {
	series map[string]*entity.Series
	errs   map[string]error
	calls  int32
}

func (f *fakeYahoo) GetSeries(_ context.Context, symbol string, _ entity.Timeframe) (*entity.Series, error) {
	atomic.AddInt32(&f.calls, 1)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidSymbol, symbol)
	}
	return s, nil
}

func (f *fakeYahoo) GetMarketContext(context.Context) ([]entity.MarketIndex, error) {
	return []entity.MarketIndex{{Name: "S&P 500", Price: 5000, ChangePct: 0.5}}, nil
}

type fakeNews struct {
	articles []entity.NewsArticle
	err      error
}

func (f *fakeNews) GetNews(context.Context, string) ([]entity.NewsArticle, error) {
	return f.articles, f.err
}

type fakeAI struct {
	insight string
	err     error
	calls   int32
	prompts []string
}

func (f *fakeAI) GenerateInsight(_ context.Context, prompt string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.insight, nil
}

func testSeries(symbol string, closes ...float64) *entity.Series {
	s := &entity.Series{
		Symbol:    symbol,
		Timeframe: entity.Timeframe1M,
		Interval:  entity.Interval1Day,
	}
	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Bars = append(s.Bars, entity.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000,
		})
	}
	return s
}

func rampSeries(symbol string, start, step float64, n int) *entity.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return testSeries(symbol, closes...)
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.Cache{
			TTLIntraday: time.Minute,
			TTLDaily:    time.Hour,
		},
		AI:       config.AI{Provider: config.ProviderOpenAI},
		Analyzer: config.Analyzer{MaxConcurrentFetch: 2},
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"AAPL": rampSeries("AAPL", 100, 1, 30),
	}}
	news := &fakeNews{articles: []entity.NewsArticle{{Headline: "Apple ships", Source: "Yahoo Finance"}}}
	ai := &fakeAI{insight: "Constructive setup."}
	store := cache.NewMemory("", logger.NewNop())

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, news, ai, nil)
	result, err := svc.Analyze(context.Background(), "AAPL", entity.Timeframe1M, Options{})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, "Constructive setup.", result.Insight)
	assert.Len(t, result.News, 1)
	assert.Len(t, result.Market, 1)
	assert.Equal(t, "Upward", result.Indicators.Stats.Trend)

	// The prompt must carry indicators and headlines.
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "AAPL")
	assert.Contains(t, ai.prompts[0], "Apple ships")
}

func TestAnalyzeSecondRunHitsCache(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"AAPL": rampSeries("AAPL", 100, 1, 30),
	}}
	ai := &fakeAI{insight: "cached narrative"}
	store := cache.NewMemory("", logger.NewNop())

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, &fakeNews{}, ai, nil)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, "AAPL", entity.Timeframe1M, Options{SkipNews: true})
	require.NoError(t, err)

	fetchesAfterFirst := atomic.LoadInt32(&yahoo.calls)
	second, err := svc.Analyze(ctx, "AAPL", entity.Timeframe1M, Options{SkipNews: true})
	require.NoError(t, err)

	// GetMarketContext is not cached, but GetSeries must be: only the
	// market fetches may add calls, and fakeYahoo counts only GetSeries.
	assert.Equal(t, fetchesAfterFirst, atomic.LoadInt32(&yahoo.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ai.calls), "insight must come from cache")
	assert.Equal(t, first.Insight, second.Insight)
}

func TestAnalyzeCorruptCacheEntryIsRefetched(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"AAPL": rampSeries("AAPL", 100, 1, 30),
	}}
	store := cache.NewMemory("", logger.NewNop())
	ctx := context.Background()

	key := cache.Key{Symbol: "AAPL", Timeframe: entity.Timeframe1M, Kind: cache.KindSeries}
	store.Put(ctx, key, []byte("{not json"), time.Hour)

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, &fakeNews{}, &fakeAI{}, nil)
	result, err := svc.Analyze(ctx, "AAPL", entity.Timeframe1M, Options{SkipInsight: true})
	require.NoError(t, err)
	assert.Equal(t, 30, len(result.Indicators.Values["SMA_20"].Values))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&yahoo.calls), int32(1))
}

func TestAnalyzeInvalidSymbolPropagates(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{}}
	store := cache.NewMemory("", logger.NewNop())

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, &fakeNews{}, &fakeAI{}, nil)
	_, err := svc.Analyze(context.Background(), "NOPE", entity.Timeframe1M, Options{})
	assert.ErrorIs(t, err, entity.ErrInvalidSymbol)
}

func TestAnalyzeNewsFailureIsNotFatal(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"AAPL": rampSeries("AAPL", 100, 1, 30),
	}}
	news := &fakeNews{err: errors.New("feed parse failed")}
	store := cache.NewMemory("", logger.NewNop())

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, news, &fakeAI{insight: "ok"}, nil)
	result, err := svc.Analyze(context.Background(), "AAPL", entity.Timeframe1M, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.News)
	assert.Equal(t, "ok", result.Insight)
}

func TestAnalyzeAIFailurePropagates(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"AAPL": rampSeries("AAPL", 100, 1, 30),
	}}
	ai := &fakeAI{err: fmt.Errorf("%w: provider down", entity.ErrExternalService)}
	store := cache.NewMemory("", logger.NewNop())

	svc := NewAnalyzerService(testConfig(), logger.NewNop(), store, yahoo, &fakeNews{}, ai, nil)
	_, err := svc.Analyze(context.Background(), "AAPL", entity.Timeframe1M, Options{SkipNews: true})
	assert.ErrorIs(t, err, entity.ErrExternalService)
}

func TestCompareNeedsTwoSymbols(t *testing.T) {
	store := cache.NewMemory("", logger.NewNop())
	cfg := testConfig()
	analyzer := NewAnalyzerService(cfg, logger.NewNop(), store, &fakeYahoo{}, &fakeNews{}, &fakeAI{}, nil)
	comparer := NewComparerService(cfg, logger.NewNop(), store, &fakeYahoo{}, &fakeAI{}, analyzer)

	_, err := comparer.Compare(context.Background(), []string{"AAPL"}, entity.Timeframe1M, false)
	assert.ErrorIs(t, err, entity.ErrConfiguration)
}

func TestCompareExcludesFailedSymbol(t *testing.T) {
	yahoo := &fakeYahoo{
		series: map[string]*entity.Series{
			"AAPL": rampSeries("AAPL", 100, 1, 30),
			"MSFT": rampSeries("MSFT", 300, 2, 30),
		},
		errs: map[string]error{"BAD": fmt.Errorf("%w: BAD", entity.ErrInvalidSymbol)},
	}
	store := cache.NewMemory("", logger.NewNop())
	cfg := testConfig()
	analyzer := NewAnalyzerService(cfg, logger.NewNop(), store, yahoo, &fakeNews{}, &fakeAI{}, nil)
	comparer := NewComparerService(cfg, logger.NewNop(), store, yahoo, &fakeAI{insight: "ranked"}, analyzer)

	report, err := comparer.Compare(context.Background(), []string{"AAPL", "MSFT", "BAD"}, entity.Timeframe1M, true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, report.Comparison.Symbols)
	assert.Contains(t, report.Comparison.Failed, "BAD")
	assert.True(t, strings.Contains(report.Comparison.Failed["BAD"], "invalid"))
	assert.Equal(t, "ranked", report.Insight)
	require.Len(t, report.Comparison.Correlations, 1)
}

func TestCompareAllFailedAborts(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{}}
	store := cache.NewMemory("", logger.NewNop())
	cfg := testConfig()
	analyzer := NewAnalyzerService(cfg, logger.NewNop(), store, yahoo, &fakeNews{}, &fakeAI{}, nil)
	comparer := NewComparerService(cfg, logger.NewNop(), store, yahoo, &fakeAI{}, analyzer)

	_, err := comparer.Compare(context.Background(), []string{"X", "Y"}, entity.Timeframe1M, false)
	assert.ErrorIs(t, err, entity.ErrDataUnavailable)
}

func TestCompareRanksMomentum(t *testing.T) {
	yahoo := &fakeYahoo{series: map[string]*entity.Series{
		"FAST": rampSeries("FAST", 100, 2, 30),
		"SLOW": rampSeries("SLOW", 100, 0.1, 30),
	}}
	store := cache.NewMemory("", logger.NewNop())
	cfg := testConfig()
	analyzer := NewAnalyzerService(cfg, logger.NewNop(), store, yahoo, &fakeNews{}, &fakeAI{}, nil)
	comparer := NewComparerService(cfg, logger.NewNop(), store, yahoo, &fakeAI{}, analyzer)

	report, err := comparer.Compare(context.Background(), []string{"FAST", "SLOW"}, entity.Timeframe1M, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"FAST", "SLOW"}, report.Comparison.Order(entity.MetricMomentum))
	assert.Empty(t, report.Insight)
}
