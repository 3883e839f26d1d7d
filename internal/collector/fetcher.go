package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"FinAgent/internal/model"
)

//go:generate mockgen -package=collector -destination=mock_http_client_test.go -source=fetcher.go HTTPClient

// Fetcher defines the interface for fetching market data.
//
// A symbol the upstream source has no data for is not an error: implementations
// return an empty series so callers can report "no data" inline.
type Fetcher interface {
	FetchHistorical(ctx context.Context, symbol string, period model.Period) (*model.PriceSeries, error)
	FetchLive(ctx context.Context, symbol string) (*model.PriceSeries, error)
	Name() string
}

// HTTPClient is the subset of *http.Client used by the fetchers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func emptySeries(symbol string, period model.Period) *model.PriceSeries {
	return &model.PriceSeries{Symbol: symbol, Period: period, FetchedAt: time.Now()}
}
