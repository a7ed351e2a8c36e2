package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"stockgpt/internal/config"
	"stockgpt/internal/dto"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

// Broad market indices used for prompt context.
var marketIndices = []struct {
	Symbol string
	Name   string
}{
	{"^GSPC", "S&P 500"},
	{"^DJI", "Dow Jones"},
	{"^IXIC", "NASDAQ"},
}

// YahooFinanceRepository fetches OHLCV series from the Yahoo chart API.
type YahooFinanceRepository interface {
	GetSeries(ctx context.Context, symbol string, timeframe entity.Timeframe) (*entity.Series, error)
	GetMarketContext(ctx context.Context) ([]entity.MarketIndex, error)
}

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a rate-limited Yahoo Finance client.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.YahooFinance.RequestTimeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// timeframeParams maps a timeframe to the Yahoo (range, interval) pair.
func timeframeParams(tf entity.Timeframe) (string, entity.Interval) {
	switch tf {
	case entity.Timeframe1D:
		return "1d", entity.Interval15Min
	case entity.Timeframe1W:
		return "5d", entity.Interval1Hour
	case entity.Timeframe1M:
		return "1mo", entity.Interval1Day
	case entity.Timeframe3M:
		return "3mo", entity.Interval1Day
	default:
		return "1y", entity.Interval1Day
	}
}

func (r *yahooFinanceRepository) GetSeries(ctx context.Context, symbol string, timeframe entity.Timeframe) (*entity.Series, error) {
	rng, interval := timeframeParams(timeframe)

	result, err := r.fetchChart(ctx, symbol, rng, string(interval))
	if err != nil {
		return nil, err
	}

	series := &entity.Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Interval:  interval,
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote data for %s", entity.ErrDataUnavailable, symbol)
	}
	quote := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		bar, ok := barAt(quote, ts, i)
		if !ok {
			continue
		}
		series.Bars = append(series.Bars, bar)
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Timestamp.Before(series.Bars[j].Timestamp)
	})
	series.Bars = dedupeBars(series.Bars)

	if len(series.Bars) == 0 {
		return nil, fmt.Errorf("%w: no usable bars for %s over %s", entity.ErrDataUnavailable, symbol, timeframe)
	}

	r.log.DebugContext(ctx, "Fetched price series",
		logger.StringField("symbol", symbol),
		logger.StringField("timeframe", string(timeframe)),
		logger.IntField("bars", len(series.Bars)),
	)

	return series, nil
}

// barAt extracts one bar, rejecting null and non-positive price fields as
// malformed.
func barAt(quote dto.ChartQuote, ts int64, i int) (entity.Bar, bool) {
	if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
		return entity.Bar{}, false
	}
	o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
	if o == nil || h == nil || l == nil || c == nil {
		return entity.Bar{}, false
	}
	if *o <= 0 || *h <= 0 || *l <= 0 || *c <= 0 {
		return entity.Bar{}, false
	}

	var volume int64
	if i < len(quote.Volume) && quote.Volume[i] != nil {
		volume = *quote.Volume[i]
	}

	return entity.Bar{
		Timestamp: time.Unix(ts, 0).UTC(),
		Open:      *o,
		High:      *h,
		Low:       *l,
		Close:     *c,
		Volume:    volume,
	}, true
}

func dedupeBars(bars []entity.Bar) []entity.Bar {
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Timestamp.Equal(bars[i-1].Timestamp) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (r *yahooFinanceRepository) GetMarketContext(ctx context.Context) ([]entity.MarketIndex, error) {
	var out []entity.MarketIndex
	for _, idx := range marketIndices {
		result, err := r.fetchChart(ctx, idx.Symbol, "5d", "1d")
		if err != nil {
			r.log.WarnContext(ctx, "Failed to fetch market index", logger.ErrorField(err), logger.StringField("index", idx.Name))
			continue
		}
		price := result.Meta.RegularMarketPrice
		prev := result.Meta.ChartPreviousClose
		mi := entity.MarketIndex{Name: idx.Name, Price: price}
		if prev != 0 {
			mi.ChangePct = (price/prev - 1) * 100
		}
		out = append(out, mi)
	}
	return out, nil
}

// fetchChart performs the HTTP round trip with one bounded retry on
// transient failures when configured.
func (r *yahooFinanceRepository) fetchChart(ctx context.Context, symbol, rng, interval string) (*dto.ChartResult, error) {
	result, err := r.doFetchChart(ctx, symbol, rng, interval)
	if err != nil && errors.Is(err, entity.ErrTransientFetch) && r.cfg.YahooFinance.MaxRetries > 0 {
		r.log.WarnContext(ctx, "Transient fetch failure, retrying once", logger.ErrorField(err), logger.StringField("symbol", symbol))
		result, err = r.doFetchChart(ctx, symbol, rng, interval)
	}
	return result, err
}

func (r *yahooFinanceRepository) doFetchChart(ctx context.Context, symbol, rng, interval string) (*dto.ChartResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", entity.ErrTransientFetch, err)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol), rng, interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", entity.ErrTransientFetch, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidSymbol, symbol)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d from provider", entity.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", entity.ErrDataUnavailable, resp.StatusCode, string(body))
	}

	var chart dto.ChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", entity.ErrDataUnavailable, err)
	}

	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s: %s", entity.ErrInvalidSymbol, symbol, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("%w: %s", entity.ErrDataUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: empty result for %s", entity.ErrDataUnavailable, symbol)
	}

	return &chart.Chart.Result[0], nil
}
