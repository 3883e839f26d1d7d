package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAgent/internal/agent"
	"FinAgent/internal/collector"
	"FinAgent/internal/model"
	"FinAgent/internal/recorder"
	"FinAgent/internal/render"
)

type fakeAgent struct {
	name   string
	reply  string
	err    error
	panic  bool
	calls  int
	period model.Period
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Run(ctx context.Context, _ string) (string, error) {
	f.calls++
	f.period, _ = agent.PeriodFromContext(ctx)
	if f.panic {
		panic("agent exploded")
	}
	return f.reply, f.err
}

type memRecorder struct {
	recorder.NoopRecorder
	runs []*recorder.RunRecord
}

func (m *memRecorder) RecordRun(run *recorder.RunRecord) error {
	m.runs = append(m.runs, run)
	return nil
}

func newTestOrchestrator(t *testing.T, fetcher *collector.MockFetcher) (*Orchestrator, *memRecorder) {
	t.Helper()
	rec := &memRecorder{}
	o := NewOrchestrator(collector.NewCollector(fetcher), render.NewRenderer(t.TempDir()), rec)
	return o, rec
}

func kinds(blocks []model.Block) []model.BlockKind {
	out := make([]model.BlockKind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}

func texts(blocks []model.Block, kind model.BlockKind) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == kind {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestRun_EmptyQuery(t *testing.T) {
	fetcher := &collector.MockFetcher{}
	o, rec := newTestOrchestrator(t, fetcher)
	web := &fakeAgent{name: "Web Search Agent", reply: "x"}
	o.WebAgent = web

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "   "}, sink)

	assert.Equal(t, []model.Block{{Kind: model.BlockWarning, Text: "Please enter a query."}}, sink.Blocks())
	assert.Equal(t, []State{StateIdle, StateDone}, res.States)
	assert.Zero(t, web.calls)
	assert.Empty(t, fetcher.Calls)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, model.DefaultPeriod, rec.runs[0].Period)
}

func TestRun_SingleSymbolReport(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 120}
	o, rec := newTestOrchestrator(t, fetcher)

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "How is NVDA doing?", Mode: ModeNone, Period: model.Period5d}, sink)

	blocks := sink.Blocks()
	assert.Equal(t, []model.BlockKind{
		model.BlockSubheader, model.BlockMarkdown, model.BlockChart, model.BlockImage,
	}, kinds(blocks))
	assert.Equal(t, "Report for NVDA", blocks[0].Text)
	assert.Contains(t, blocks[1].Text, "**NVDA** trend summary")
	assert.Contains(t, blocks[2].HTML, "Stock Prices for NVDA Over Time")
	assert.Equal(t, "Plot saved as "+o.Renderer.PlotPath("NVDA"), blocks[3].Text)
	_, err := os.Stat(blocks[3].Path)
	assert.NoError(t, err)

	assert.Equal(t, []State{StateIdle, StateDispatching, StateExtracting, StateReporting, StateDone}, res.States)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.StatusOK, res.Reports[0].Status)
	assert.Equal(t, 5, res.Reports[0].Bars)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, res.ID, rec.runs[0].ID)
	assert.Equal(t, []string{"IDLE", "DISPATCHING", "EXTRACTING", "REPORTING", "DONE"}, rec.runs[0].States)
}

func TestRun_ComparisonWithOneSymbol(t *testing.T) {
	fetcher := &collector.MockFetcher{}
	o, _ := newTestOrchestrator(t, fetcher)

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "compare NVDA", Mode: ModeNone}, sink)

	assert.Equal(t, []model.BlockKind{model.BlockWarning}, kinds(sink.Blocks()))
	assert.Equal(t, "Please provide two stock symbols for comparison.", sink.Blocks()[0].Text)
	assert.Empty(t, fetcher.Calls, "no fetch for an insufficient comparison")
	assert.Empty(t, res.Reports)
	assert.NoFileExists(t, o.Renderer.PlotPath("NVDA"))
	assert.Equal(t, StateDone, res.States[len(res.States)-1])
}

func TestRun_Comparison(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 50}
	o, _ := newTestOrchestrator(t, fetcher)

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "Compare NVDA and AAPL", Mode: ModeNone}, sink)

	blocks := sink.Blocks()
	require.NotEmpty(t, blocks)
	assert.Equal(t, "Comparing NVDA and AAPL", blocks[0].Text)
	assert.Equal(t, []string{"Comparing NVDA and AAPL", "Report for NVDA", "Report for AAPL"}, texts(blocks, model.BlockSubheader))

	last := blocks[len(blocks)-1]
	require.Equal(t, model.BlockTable, last.Kind)
	assert.Equal(t, []string{"Metric", "NVDA", "AAPL"}, last.Table.Header)
	assert.Contains(t, res.States, StateComparing)
	assert.NotContains(t, res.States, StateReporting)
	assert.Equal(t, []string{"NVDA", "AAPL"}, fetcher.Calls)
}

func TestRun_NoDataSymbol(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 10, Unknown: map[string]bool{"ZZZZ": true}}
	o, _ := newTestOrchestrator(t, fetcher)

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "ZZZZ and MSFT", Mode: ModeNone}, sink)

	assert.Equal(t, []string{"No data for ZZZZ"}, texts(sink.Blocks(), model.BlockWarning))
	require.Len(t, res.Reports, 2)
	assert.Equal(t, model.StatusNoData, res.Reports[0].Status)
	assert.Nil(t, res.Reports[0].Summary)
	assert.Equal(t, model.StatusOK, res.Reports[1].Status, "later symbols still run")
}

func TestRun_FetchErrorIsInline(t *testing.T) {
	fetcher := &collector.MockFetcher{Err: errors.New("connection refused")}
	o, _ := newTestOrchestrator(t, fetcher)

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "AMD", Mode: ModeNone}, sink)

	errs := texts(sink.Blocks(), model.BlockError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "connection refused")
	assert.Equal(t, model.StatusFailed, res.Reports[0].Status)
	assert.Equal(t, StateDone, res.States[len(res.States)-1])
}

func TestRun_AgentFailureIsolation(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 10}
	o, rec := newTestOrchestrator(t, fetcher)
	web := &fakeAgent{name: "Web Search Agent", err: errors.New("invalid api key")}
	fin := &fakeAgent{name: "Finance AI Agent", panic: true}
	o.WebAgent, o.FinanceAgent = web, fin

	sink := &BufferSink{}
	res := o.Run(context.Background(), Submission{Query: "TSLA outlook", Mode: ModeBoth}, sink)

	assert.Equal(t, []string{
		"An error occurred with Web Search Agent: invalid api key",
		"An error occurred with Finance AI Agent: panic: agent exploded",
	}, texts(sink.Blocks(), model.BlockError))
	assert.Equal(t, 2, res.AgentErrors)
	require.Len(t, res.Reports, 1, "data pipeline still runs")
	assert.Equal(t, model.StatusOK, res.Reports[0].Status)
	assert.Equal(t, 2, rec.runs[0].AgentErrors)
}

func TestRun_AgentResponses(t *testing.T) {
	o, _ := newTestOrchestrator(t, &collector.MockFetcher{})
	o.WebAgent = &fakeAgent{name: "Web Search Agent", reply: "NVIDIA beat estimates.\n\nSource: example.com"}
	o.FinanceAgent = &fakeAgent{name: "Finance AI Agent", reply: "| Symbol | Price |\n| --- | --- |\n| NVDA | 120 |\n\nData delayed."}

	sink := &BufferSink{}
	o.Run(context.Background(), Submission{Query: "what's new with nvidia", Mode: ModeBoth}, sink)

	blocks := sink.Blocks()
	assert.Equal(t, []model.BlockKind{
		model.BlockSubheader, model.BlockMarkdown,
		model.BlockSubheader, model.BlockTable, model.BlockMarkdown,
	}, kinds(blocks))
	assert.Equal(t, "Web Search Agent Response", blocks[0].Text)
	assert.Equal(t, "Finance AI Agent Response (Table)", blocks[2].Text)
	assert.Equal(t, [][]string{{"NVDA", "120"}}, blocks[3].Table.Rows)
	assert.Equal(t, "Data delayed.", blocks[4].Text)
}

func TestRun_MalformedTableFallsBack(t *testing.T) {
	o, _ := newTestOrchestrator(t, &collector.MockFetcher{})
	reply := "| Symbol | Price |\n---\nbroken"
	o.FinanceAgent = &fakeAgent{name: "Finance AI Agent", reply: reply}

	sink := &BufferSink{}
	o.Run(context.Background(), Submission{Query: "prices", Mode: ModeFinance}, sink)

	blocks := sink.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "Finance AI Agent Response", blocks[0].Text)
	assert.Equal(t, reply, blocks[1].Text)
}

func TestRun_ModeSelectsAgents(t *testing.T) {
	o, _ := newTestOrchestrator(t, &collector.MockFetcher{})
	web := &fakeAgent{name: "w", reply: "a"}
	fin := &fakeAgent{name: "f", reply: "b"}
	o.WebAgent, o.FinanceAgent = web, fin

	o.Run(context.Background(), Submission{Query: "q", Mode: ModeWeb}, &BufferSink{})
	o.Run(context.Background(), Submission{Query: "q", Mode: ModeFinance}, &BufferSink{})
	o.Run(context.Background(), Submission{Query: "q", Mode: ModeNone}, &BufferSink{})
	assert.Equal(t, 1, web.calls)
	assert.Equal(t, 1, fin.calls)
}

func TestRun_PDFReport(t *testing.T) {
	o, _ := newTestOrchestrator(t, &collector.MockFetcher{Price: 75})
	o.Renderer.PDF = true

	sink := &BufferSink{}
	o.Run(context.Background(), Submission{Query: "KO", Mode: ModeNone}, sink)

	assert.Equal(t, []string{"PDF report saved as " + o.Renderer.ReportPath("KO")}, texts(sink.Blocks(), model.BlockText))
	assert.FileExists(t, o.Renderer.ReportPath("KO"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBoth, m)

	m, err = ParseMode("Finance")
	require.NoError(t, err)
	assert.Equal(t, ModeFinance, m)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestRun_AgentsSeeSelectedPeriod(t *testing.T) {
	o, _ := newTestOrchestrator(t, &collector.MockFetcher{})
	web := &fakeAgent{name: "Web Search Agent", reply: "ok"}
	fin := &fakeAgent{name: "Finance AI Agent", reply: "ok"}
	o.WebAgent, o.FinanceAgent = web, fin

	o.Run(context.Background(), Submission{Query: "news", Mode: ModeBoth, Period: model.Period1y}, &BufferSink{})

	assert.Equal(t, model.Period1y, web.period)
	assert.Equal(t, model.Period1y, fin.period)
}

func TestRun_RecordsDefaultedPeriod(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 10}
	o, rec := newTestOrchestrator(t, fetcher)
	fin := &fakeAgent{name: "Finance AI Agent", reply: "ok"}
	o.FinanceAgent = fin

	res := o.Run(context.Background(), Submission{Query: "How is NVDA doing?", Mode: ModeFinance}, &BufferSink{})

	assert.Equal(t, model.DefaultPeriod, res.Period)
	assert.Equal(t, model.DefaultPeriod, fin.period)
	assert.Equal(t, []model.Period{model.DefaultPeriod}, fetcher.Periods)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, model.DefaultPeriod, rec.runs[0].Period)
}
