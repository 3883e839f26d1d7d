package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAgent/internal/collector"
	"FinAgent/internal/llm"
	"FinAgent/internal/model"
	"FinAgent/internal/websearch"
)

type recordingProvider struct {
	reply string
	err   error
	last  *llm.Request
}

func (p *recordingProvider) Type() llm.ProviderType { return "fake" }

func (p *recordingProvider) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Text: p.reply}, nil
}

type stubSearcher struct {
	results []websearch.Result
	err     error
}

func (s *stubSearcher) Search(context.Context, string) ([]websearch.Result, error) {
	return s.results, s.err
}

type panicAgent struct{}

func (panicAgent) Name() string { return "Broken Agent" }

func (panicAgent) Run(context.Context, string) (string, error) { panic("nil map") }

func TestWebSearchAgent(t *testing.T) {
	p := &recordingProvider{reply: "  NVIDIA is up. Source: example.com  "}
	s := &stubSearcher{results: []websearch.Result{{Title: "NVDA rallies", URL: "https://example.com"}}}
	a := NewWebSearchAgent(p, s)

	out, err := a.Run(context.Background(), "latest NVDA news")
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA is up. Source: example.com", out)
	assert.Equal(t, WebSearchAgentName, a.Name())

	assert.Contains(t, p.last.System, "Always include sources")
	assert.Contains(t, p.last.System, "markdown")
	assert.Contains(t, p.last.Prompt, "### web_search")
	assert.Contains(t, p.last.Prompt, "[NVDA rallies](https://example.com)")
	assert.True(t, p.last.Grounded)
}

func TestLLMAgent_ToolFailureDoesNotAbort(t *testing.T) {
	p := &recordingProvider{reply: "fine"}
	a := NewWebSearchAgent(p, &stubSearcher{err: errors.New("rate limited")})

	out, err := a.Run(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
	assert.Contains(t, p.last.Prompt, "(unavailable: rate limited)")
}

func TestFinanceAgent_MarketData(t *testing.T) {
	p := &recordingProvider{reply: "| A | B |"}
	fetcher := &collector.MockFetcher{
		Data: map[string][]model.OHLCV{
			"NVDA": {{Close: 100}, {Close: 110}, {Close: 120}},
		},
		Live: map[string][]model.OHLCV{
			"NVDA": {{Close: 119}},
		},
		Unknown: map[string]bool{"ZZZZ": true},
	}
	a := NewFinanceAgent(p, fetcher)

	_, err := a.Run(context.Background(), "Compare NVDA and ZZZZ and NVDA")
	require.NoError(t, err)
	assert.Contains(t, p.last.System, "Use tables to display the data")
	assert.Contains(t, p.last.Prompt, "| NVDA | 119.00 | 110.00 | 120.00 | 100.00 | n/a | 95% |")
	assert.Contains(t, p.last.Prompt, "| ZZZZ | n/a | n/a | n/a | n/a | n/a | n/a |")
	assert.Equal(t, []string{"NVDA", "ZZZZ"}, fetcher.Calls)
	assert.Equal(t, []string{"NVDA"}, fetcher.LiveCalls)
}

func TestMarketDataTool_LiveFailureFallsBackToLastClose(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Data: map[string][]model.OHLCV{"NVDA": {{Close: 100}, {Close: 120}}},
		Live: map[string][]model.OHLCV{"NVDA": {}},
	}
	tool := &MarketDataTool{Collector: collector.NewCollector(fetcher)}

	out, err := tool.Call(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.Contains(t, out, "| NVDA | 120.00 |")
	assert.Equal(t, []string{"NVDA"}, fetcher.LiveCalls)
}

func TestMarketDataTool_PeriodFromContext(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		preset model.Period
		want   model.Period
	}{
		{"context wins", WithPeriod(context.Background(), model.Period1y), model.Period5d, model.Period1y},
		{"tool preset", context.Background(), model.Period5d, model.Period5d},
		{"default", context.Background(), "", model.DefaultPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &collector.MockFetcher{Price: 50}
			tool := &MarketDataTool{Collector: collector.NewCollector(fetcher), Period: tt.preset}

			out, err := tool.Call(tt.ctx, "NVDA please")
			require.NoError(t, err)
			assert.Equal(t, []model.Period{tt.want}, fetcher.Periods)
			assert.Contains(t, out, "Mean ("+string(tt.want)+")")
		})
	}
}

func TestFinanceAgent_UsesSubmissionPeriod(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 50}
	a := NewFinanceAgent(&recordingProvider{reply: "ok"}, fetcher)

	_, err := a.Run(WithPeriod(context.Background(), model.Period1y), "NVDA 1y please")
	require.NoError(t, err)
	assert.Equal(t, []model.Period{model.Period1y}, fetcher.Periods)
}

func TestMarketDataTool_NoSymbols(t *testing.T) {
	fetcher := &collector.MockFetcher{}
	tool := &MarketDataTool{Collector: collector.NewCollector(fetcher)}
	out, err := tool.Call(context.Background(), "how are markets today")
	require.NoError(t, err)
	assert.Equal(t, "No ticker symbols found in the query.", out)
	assert.Empty(t, fetcher.Calls)
}

func TestInvoke(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("invalid api key")
		a := NewFinanceAgent(&recordingProvider{err: boom}, nil)

		_, err := Invoke(context.Background(), a, "NVDA")
		var failure *Failure
		require.True(t, errors.As(err, &failure))
		assert.Equal(t, FinanceAgentName, failure.Agent)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panic", func(t *testing.T) {
		out, err := Invoke(context.Background(), panicAgent{}, "NVDA")
		var failure *Failure
		require.True(t, errors.As(err, &failure))
		assert.Empty(t, out)
		assert.Contains(t, failure.Error(), "nil map")
	})

	t.Run("no provider", func(t *testing.T) {
		_, err := Invoke(context.Background(), &LLMAgent{AgentName: "x"}, "q")
		assert.Error(t, err)
	})
}
