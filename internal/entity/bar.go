package entity

import (
	"fmt"
	"time"
)

// Timeframe identifies the lookback window requested by the user.
type Timeframe string

const (
	Timeframe1D Timeframe = "1d"
	Timeframe1W Timeframe = "1wk"
	Timeframe1M Timeframe = "1mo"
	Timeframe3M Timeframe = "3mo"
	Timeframe1Y Timeframe = "1y"
)

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case Timeframe1D, Timeframe1W, Timeframe1M, Timeframe3M, Timeframe1Y:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("%w: invalid timeframe %q (valid: 1d, 1wk, 1mo, 3mo, 1y)", ErrConfiguration, s)
}

// Interval is the duration of a single bar within a series.
type Interval string

const (
	Interval15Min Interval = "15m"
	Interval1Hour Interval = "1h"
	Interval1Day  Interval = "1d"
	Interval1Week Interval = "1wk"
)

// PeriodsPerYear returns the number of trading periods per year for the
// interval, used to annualize volatility. US equities trade ~252 days a
// year, 6.5 hours a day.
func (i Interval) PeriodsPerYear() float64 {
	switch i {
	case Interval15Min:
		return 252 * 26
	case Interval1Hour:
		return 252 * 6.5
	case Interval1Week:
		return 52
	default:
		return 252
	}
}

// Bar is one OHLCV observation. Immutable once fetched.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Series is an ordered sequence of bars for one symbol and timeframe,
// ascending by timestamp with no duplicates. Gaps from non-trading days
// are expected and tolerated.
type Series struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Interval  Interval  `json:"interval"`
	Bars      []Bar     `json:"bars"`
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Closes returns the close prices in bar order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices in bar order.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices in bar order.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volumes in bar order.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// Returns computes percentage changes between consecutive closes.
// The result has Len()-1 entries.
func (s *Series) Returns() []float64 {
	if len(s.Bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s.Bars)-1)
	for i := 1; i < len(s.Bars); i++ {
		prev := s.Bars[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (s.Bars[i].Close-prev)/prev*100)
	}
	return out
}
