package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"FinAgent/internal/calculator"
	"FinAgent/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Data overrides the generated bars per symbol.
	Data map[string][]model.OHLCV
	// Live overrides the bars returned by FetchLive; Data is used otherwise.
	Live map[string][]model.OHLCV
	// Unknown symbols come back as an empty series.
	Unknown map[string]bool
	// Err, when set, is returned by every fetch.
	Err error
	// Calls and Periods record every historical request, in order.
	Calls   []string
	Periods []model.Period
	// LiveCalls records every live request, in order.
	LiveCalls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistorical(_ context.Context, symbol string, period model.Period) (*model.PriceSeries, error) {
	m.Calls = append(m.Calls, symbol)
	m.Periods = append(m.Periods, period)
	return m.series(symbol, period, m.Data)
}

func (m *MockFetcher) FetchLive(_ context.Context, symbol string) (*model.PriceSeries, error) {
	m.LiveCalls = append(m.LiveCalls, symbol)
	data := m.Data
	if _, ok := m.Live[symbol]; ok {
		data = m.Live
	}
	return m.series(symbol, model.Period1d, data)
}

func (m *MockFetcher) series(symbol string, period model.Period, data map[string][]model.OHLCV) (*model.PriceSeries, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	series := emptySeries(symbol, period)
	if m.Unknown[symbol] {
		return series, nil
	}
	if bars, ok := data[symbol]; ok {
		series.Bars = bars
		return series, nil
	}
	series.Bars = generateMockBars(m.Price, barsIn(period))
	return series, nil
}

func barsIn(period model.Period) int {
	switch period {
	case model.Period1d:
		return 1
	case model.Period5d:
		return 5
	case model.Period1mo:
		return 21
	case model.Period3mo:
		return 63
	case model.Period6mo:
		return 126
	default:
		return 252
	}
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	bars := make([]model.OHLCV, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Snapshot is a fetched series with its trend summary.
type Snapshot struct {
	Series  *model.PriceSeries
	Summary model.TrendSummary
}

// Collector orchestrates data fetching and summary computation.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches the history for symbol and summarizes it.
// A symbol without data yields the empty series together with *model.NoDataError.
func (c *Collector) Collect(ctx context.Context, symbol string, period model.Period) (*Snapshot, error) {
	series, err := c.Fetcher.FetchHistorical(ctx, symbol, period)
	if err != nil {
		return nil, fmt.Errorf("fetch historical %s: %w", symbol, err)
	}
	snap := &Snapshot{Series: series}
	summary, err := calculator.Summarize(series)
	if err != nil {
		log.Warn().Str("symbol", symbol).Str("period", string(period)).Str("source", c.Fetcher.Name()).Msg("no data returned")
		return snap, err
	}
	snap.Summary = summary
	log.Debug().Str("symbol", symbol).Int("bars", len(series.Bars)).Msg("collected")
	return snap, nil
}

// Quote returns the latest bar for symbol, or *model.NoDataError.
func (c *Collector) Quote(ctx context.Context, symbol string) (model.OHLCV, error) {
	series, err := c.Fetcher.FetchLive(ctx, symbol)
	if err != nil {
		return model.OHLCV{}, fmt.Errorf("fetch live %s: %w", symbol, err)
	}
	if series.Empty() {
		return model.OHLCV{}, &model.NoDataError{Symbol: symbol}
	}
	return series.Last(), nil
}
