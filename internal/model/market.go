package model

import (
	"fmt"
	"time"
)

// Period is the lookback window for a historical fetch.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
)

// DefaultPeriod is preselected in the dashboard.
const DefaultPeriod = Period1mo

// Periods lists the supported periods in display order.
var Periods = []Period{Period1d, Period5d, Period1mo, Period3mo, Period6mo, Period1y}

// ParsePeriod validates s against the supported periods.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported period %q", s)
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the bars fetched for one symbol, oldest first.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Period    Period    `json:"period"`
	Bars      []OHLCV   `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Empty reports whether the upstream source returned no bars.
func (s *PriceSeries) Empty() bool { return s == nil || len(s.Bars) == 0 }

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar. The series must not be empty.
func (s *PriceSeries) Last() OHLCV { return s.Bars[len(s.Bars)-1] }

// TrendSummary aggregates the close prices of a series.
type TrendSummary struct {
	MeanPrice float64 `json:"mean_price"`
	MaxPrice  float64 `json:"max_price"`
	MinPrice  float64 `json:"min_price"`
}

// NoDataError is returned when statistics are requested over an empty series.
type NoDataError struct {
	Symbol string
}

func (e *NoDataError) Error() string {
	if e.Symbol == "" {
		return "no data"
	}
	return fmt.Sprintf("no data for symbol %s", e.Symbol)
}
