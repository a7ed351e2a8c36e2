package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

func yahooTestConfig(baseURL string) *config.Config {
	return &config.Config{
		YahooFinance: config.YahooFinance{
			BaseURL:             baseURL,
			MaxRequestPerMinute: 6000,
			RequestTimeout:      2 * time.Second,
			MaxRetries:          1,
		},
	}
}

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "regularMarketPrice": 104.0, "chartPreviousClose": 100.0},
      "timestamp": [1700000000, 1700086400, 1700172800, 1700259200],
      "indicators": {
        "quote": [{
          "open":   [100.0, 101.0, null,  103.0],
          "high":   [101.0, 102.0, 103.0, 104.0],
          "low":    [99.0,  100.0, 101.0, 102.0],
          "close":  [100.5, 101.5, 102.5, 103.5],
          "volume": [1000,  1100,  1200,  null]
        }]
      }
    }],
    "error": null
  }
}`

func TestGetSeriesParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	series, err := repo.GetSeries(context.Background(), "AAPL", entity.Timeframe1M)
	require.NoError(t, err)

	// The bar with a null open is dropped; the null volume defaults to 0.
	require.Len(t, series.Bars, 3)
	assert.Equal(t, entity.Interval1Day, series.Interval)
	assert.Equal(t, 100.5, series.Bars[0].Close)
	assert.Equal(t, int64(0), series.Bars[2].Volume)

	for i := 1; i < len(series.Bars); i++ {
		assert.True(t, series.Bars[i].Timestamp.After(series.Bars[i-1].Timestamp))
	}
}

func TestGetSeriesInvalidSymbolOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	_, err := repo.GetSeries(context.Background(), "NOPE!!", entity.Timeframe1M)
	assert.ErrorIs(t, err, entity.ErrInvalidSymbol)
}

func TestGetSeriesTransientOn500AndRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	_, err := repo.GetSeries(context.Background(), "AAPL", entity.Timeframe1M)
	assert.ErrorIs(t, err, entity.ErrTransientFetch)
	assert.Equal(t, 2, calls, "one bounded retry after the transient failure")
}

func TestGetSeriesRetryRecovers(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	series, err := repo.GetSeries(context.Background(), "AAPL", entity.Timeframe1M)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEmpty(t, series.Bars)
}

func TestGetSeriesDataUnavailableOnEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	_, err := repo.GetSeries(context.Background(), "AAPL", entity.Timeframe1M)
	assert.ErrorIs(t, err, entity.ErrDataUnavailable)
}

func TestGetSeriesInvalidSymbolFromChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	_, err := repo.GetSeries(context.Background(), "DELISTED", entity.Timeframe1M)
	assert.ErrorIs(t, err, entity.ErrInvalidSymbol)
}

func TestTimeframeParams(t *testing.T) {
	tests := []struct {
		timeframe entity.Timeframe
		rng       string
		interval  entity.Interval
	}{
		{entity.Timeframe1D, "1d", entity.Interval15Min},
		{entity.Timeframe1W, "5d", entity.Interval1Hour},
		{entity.Timeframe1M, "1mo", entity.Interval1Day},
		{entity.Timeframe3M, "3mo", entity.Interval1Day},
		{entity.Timeframe1Y, "1y", entity.Interval1Day},
	}
	for _, tt := range tests {
		rng, interval := timeframeParams(tt.timeframe)
		assert.Equal(t, tt.rng, rng, string(tt.timeframe))
		assert.Equal(t, tt.interval, interval, string(tt.timeframe))
	}
}

func TestGetMarketContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(srv.URL), logger.NewNop())
	out, err := repo.GetMarketContext(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "S&P 500", out[0].Name)
	assert.InDelta(t, 4.0, out[0].ChangePct, 1e-9)
}
