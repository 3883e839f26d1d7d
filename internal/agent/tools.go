package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"FinAgent/internal/calculator"
	"FinAgent/internal/collector"
	"FinAgent/internal/interpreter"
	"FinAgent/internal/llm"
	"FinAgent/internal/model"
	"FinAgent/internal/websearch"
)

const (
	WebSearchAgentName = "Web Search Agent"
	FinanceAgentName   = "Finance AI Agent"
)

// Searcher is the web search capability used by WebSearchTool.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// WebSearchTool feeds web search results to the model.
type WebSearchTool struct {
	Searcher Searcher
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Call(ctx context.Context, query string) (string, error) {
	results, err := t.Searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}
	return websearch.Format(results), nil
}

type periodKey struct{}

// WithPeriod attaches the history period selected for a submission, so tools
// fetch the same window the report uses.
func WithPeriod(ctx context.Context, p model.Period) context.Context {
	return context.WithValue(ctx, periodKey{}, p)
}

// PeriodFromContext returns the period set by WithPeriod, if any.
func PeriodFromContext(ctx context.Context) (model.Period, bool) {
	p, ok := ctx.Value(periodKey{}).(model.Period)
	return p, ok && p != ""
}

// MarketDataTool reports the live price, a trend summary, RSI and where the
// price sits in the period range for every symbol in the query.
type MarketDataTool struct {
	Collector *collector.Collector
	// Period is used when the context carries none.
	Period model.Period
}

func (t *MarketDataTool) Name() string { return "market_data" }

func (t *MarketDataTool) period(ctx context.Context) model.Period {
	if p, ok := PeriodFromContext(ctx); ok {
		return p
	}
	if t.Period != "" {
		return t.Period
	}
	return model.DefaultPeriod
}

func (t *MarketDataTool) Call(ctx context.Context, query string) (string, error) {
	symbols := interpreter.ExtractSymbols(query)
	if len(symbols) == 0 {
		return "No ticker symbols found in the query.", nil
	}
	period := t.period(ctx)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("| Symbol | Live Price | Mean (%s) | Max (%s) | Min (%s) | RSI(%d) | Range Position |\n",
		period, period, period, calculator.DefaultRSIPeriod))
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	seen := make(map[string]bool)
	for _, sym := range symbols {
		if seen[sym] {
			continue
		}
		seen[sym] = true

		snap, err := t.Collector.Collect(ctx, sym, period)
		var noData *model.NoDataError
		if errors.As(err, &noData) {
			b.WriteString(fmt.Sprintf("| %s | n/a | n/a | n/a | n/a | n/a | n/a |\n", sym))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("market data %s: %w", sym, err)
		}
		sum := snap.Summary

		price := snap.Series.Last().Close
		if quote, err := t.Collector.Quote(ctx, sym); err == nil {
			price = quote.Close
		} else {
			log.Warn().Str("symbol", sym).Err(err).Msg("live quote unavailable, using last close")
		}
		rsi := "n/a"
		if v, err := calculator.RSI(snap.Series.Bars, calculator.DefaultRSIPeriod); err == nil {
			rsi = fmt.Sprintf("%.1f", v)
		}
		pos, _ := calculator.RangePosition(price, sum.MaxPrice, sum.MinPrice)
		b.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %s | %.0f%% |\n",
			sym, price, sum.MeanPrice, sum.MaxPrice, sum.MinPrice, rsi, pos*100))
	}
	return b.String(), nil
}

// NewWebSearchAgent searches the web and cites its sources.
func NewWebSearchAgent(p llm.Provider, searcher Searcher) *LLMAgent {
	a := &LLMAgent{
		AgentName:    WebSearchAgentName,
		Role:         "Search the web for information",
		Instructions: []string{"Always include sources"},
		Provider:     p,
		Markdown:     true,
		Grounded:     true,
	}
	if searcher != nil {
		a.Tools = []Tool{&WebSearchTool{Searcher: searcher}}
	}
	return a
}

// NewFinanceAgent answers with market data laid out in tables.
func NewFinanceAgent(p llm.Provider, fetcher collector.Fetcher) *LLMAgent {
	a := &LLMAgent{
		AgentName:    FinanceAgentName,
		Role:         "Provide stock prices, analyst insights and company fundamentals",
		Instructions: []string{"Use tables to display the data"},
		Provider:     p,
		Markdown:     true,
	}
	if fetcher != nil {
		a.Tools = []Tool{&MarketDataTool{Collector: collector.NewCollector(fetcher)}}
	}
	return a
}
