package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/recorder"
)

type fakeRunner struct {
	subs []pipeline.Submission
}

func (f *fakeRunner) Run(_ context.Context, sub pipeline.Submission, sink pipeline.Sink) *pipeline.RunResult {
	f.subs = append(f.subs, sub)
	sink.Emit(model.Block{Kind: model.BlockSubheader, Text: "Report for NVDA"})
	sink.Emit(model.Block{Kind: model.BlockImage, Text: "Plot saved as static/NVDA_plot.png", Path: "static/NVDA_plot.png"})
	return &pipeline.RunResult{ID: "run-1"}
}

type fakeMessenger struct {
	texts  []string
	photos []string
	err    error
}

func (f *fakeMessenger) SendWithRetry(_ context.Context, text string, _ int) error {
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeMessenger) SendPhoto(_ context.Context, path, _ string) error {
	f.photos = append(f.photos, path)
	return f.err
}

type historyRecorder struct {
	recorder.NoopRecorder
	runs []recorder.RunRecord
	err  error
}

func (h *historyRecorder) RecentRuns(int) ([]recorder.RunRecord, error) { return h.runs, h.err }

func newTestScheduler() (*Scheduler, *fakeRunner, *fakeMessenger) {
	runner := &fakeRunner{}
	msg := &fakeMessenger{}
	return NewScheduler(context.Background(), runner, msg, nil), runner, msg
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler()
	require.NoError(t, s.Register("", "Compare NVDA and AAPL"))
	assert.Empty(t, s.Cron.Entries())

	require.NoError(t, s.Register("0 0 22 * * 1-5", "Compare NVDA and AAPL"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("not a cron", "NVDA"))
	assert.Error(t, s.Register("0 0 22 * * 1-5", "  "))
}

func TestRunNow(t *testing.T) {
	s, runner, msg := newTestScheduler()
	require.NoError(t, s.Register("", "Compare NVDA and AAPL"))

	res := s.RunNow()
	assert.Equal(t, "run-1", res.ID)
	require.Len(t, runner.subs, 1)
	assert.Equal(t, "Compare NVDA and AAPL", runner.subs[0].Query)
	assert.Equal(t, model.DefaultPeriod, runner.subs[0].Period)

	require.Len(t, msg.texts, 1)
	assert.Contains(t, msg.texts[0], "Watchlist report")
	assert.Contains(t, msg.texts[0], "Report for NVDA")
	assert.Equal(t, []string{"static/NVDA_plot.png"}, msg.photos)
}

func TestRunNow_SendFailureIsLogged(t *testing.T) {
	s, _, msg := newTestScheduler()
	msg.err = errors.New("telegram down")
	s.Query = "NVDA"
	assert.NotPanics(t, func() { s.RunNow() })
}

func TestRunNow_WithoutChat(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(context.Background(), runner, nil, nil)
	s.Query = "NVDA"
	s.RunNow()
	assert.Len(t, runner.subs, 1)
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()
	s, runner, msg := newTestScheduler()
	s.Query = "Compare NVDA and AAPL"

	assert.Contains(t, s.HandleCommand(ctx, "/help"), "/report")
	assert.Contains(t, s.HandleCommand(ctx, "/bogus"), "Unknown command")
	assert.Empty(t, s.HandleCommand(ctx, "   "))

	assert.Equal(t, "Period set to 3mo", s.HandleCommand(ctx, "/period 3mo"))
	assert.Equal(t, "Current period: 3mo", s.HandleCommand(ctx, "/period"))
	assert.Contains(t, s.HandleCommand(ctx, "/period 2w"), "unsupported period")

	assert.Empty(t, s.HandleCommand(ctx, "How is TSLA doing"))
	require.Len(t, runner.subs, 1)
	assert.Equal(t, "How is TSLA doing", runner.subs[0].Query)
	assert.Equal(t, model.Period3mo, runner.subs[0].Period)
	assert.Len(t, msg.texts, 1)

	assert.Empty(t, s.HandleCommand(ctx, "/report"))
	assert.Equal(t, "Compare NVDA and AAPL", runner.subs[1].Query)
}

func TestHandleCommand_History(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestScheduler()

	assert.Equal(t, "No runs recorded yet.", s.HandleCommand(ctx, "/history"))

	s.Recorder = &historyRecorder{runs: []recorder.RunRecord{{
		Query:     "Compare NVDA and AAPL",
		Symbols:   []string{"NVDA", "AAPL"},
		StartedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.Local),
	}}}
	out := s.HandleCommand(ctx, "/history")
	assert.Contains(t, out, "06-02 09:30  Compare NVDA and AAPL  [NVDA AAPL]")

	s.Recorder = &historyRecorder{err: errors.New("db locked")}
	assert.Contains(t, s.HandleCommand(ctx, "/history"), "could not load history")
}
