package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"FinAgent/internal/model"
)

const eodhdBaseURL = "https://eodhd.com/api"

// EODHDFetcher implements Fetcher using the EODHD end-of-day REST API.
type EODHDFetcher struct {
	BaseURL string
	APIKey  string
	// Exchange is appended to bare tickers, e.g. "US" turns NVDA into NVDA.US.
	Exchange string
	client   HTTPClient
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewEODHDFetcher creates a new fetcher with optional proxy support.
func NewEODHDFetcher(apiKey, proxyURL string, requestsPerSecond float64) *EODHDFetcher {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 10
	}
	return &EODHDFetcher{
		BaseURL:  eodhdBaseURL,
		APIKey:   apiKey,
		Exchange: "US",
		client:   newHTTPClient(proxyURL),
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		now:      time.Now,
	}
}

func (f *EODHDFetcher) Name() string { return "eodhd" }

// eodBar is the JSON shape of one row from the /eod endpoint.
type eodBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// window maps a period to a calendar lookback and, for day-count periods, the
// number of trading bars to keep.
func window(period model.Period, now time.Time) (from time.Time, keep int) {
	switch period {
	case model.Period1d:
		return now.AddDate(0, 0, -7), 1
	case model.Period5d:
		return now.AddDate(0, 0, -14), 5
	case model.Period1mo:
		return now.AddDate(0, -1, 0), 0
	case model.Period3mo:
		return now.AddDate(0, -3, 0), 0
	case model.Period6mo:
		return now.AddDate(0, -6, 0), 0
	default:
		return now.AddDate(-1, 0, 0), 0
	}
}

func (f *EODHDFetcher) ticker(symbol string) string {
	if strings.Contains(symbol, ".") || f.Exchange == "" {
		return symbol
	}
	return symbol + "." + f.Exchange
}

func (f *EODHDFetcher) FetchHistorical(ctx context.Context, symbol string, period model.Period) (*model.PriceSeries, error) {
	if _, err := model.ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	from, keep := window(period, f.now())
	bars, err := f.fetchBars(ctx, symbol, from)
	if err != nil {
		return nil, err
	}
	if keep > 0 && len(bars) > keep {
		bars = bars[len(bars)-keep:]
	}
	series := emptySeries(symbol, period)
	series.Bars = bars
	return series, nil
}

func (f *EODHDFetcher) FetchLive(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	return f.FetchHistorical(ctx, symbol, model.Period1d)
}

func (f *EODHDFetcher) fetchBars(ctx context.Context, symbol string, from time.Time) ([]model.OHLCV, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("eodhd rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("api_token", f.APIKey)
	params.Set("fmt", "json")
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("from", from.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/eod/%s?%s", f.BaseURL, url.PathEscape(f.ticker(symbol)), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		log.Warn().Str("symbol", symbol).Msg("eodhd: ticker not found")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var rows []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			log.Warn().Str("symbol", symbol).Str("date", r.Date).Msg("eodhd: skipping bar with bad date")
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
