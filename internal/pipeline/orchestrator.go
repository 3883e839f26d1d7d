// Package pipeline sequences agent calls and per-symbol reports for one
// submitted query.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"FinAgent/internal/agent"
	"FinAgent/internal/collector"
	"FinAgent/internal/interpreter"
	"FinAgent/internal/model"
	"FinAgent/internal/recorder"
	"FinAgent/internal/render"
)

// State is a step of a submission.
type State string

const (
	StateIdle        State = "IDLE"
	StateDispatching State = "DISPATCHING"
	StateExtracting  State = "EXTRACTING"
	StateComparing   State = "COMPARING"
	StateReporting   State = "REPORTING"
	StateDone        State = "DONE"
)

// Mode selects which agents answer a submission.
type Mode string

const (
	ModeWeb     Mode = "web"
	ModeFinance Mode = "finance"
	ModeBoth    Mode = "both"
	ModeNone    Mode = "none"
)

// Modes lists the agent modes in display order.
var Modes = []Mode{ModeBoth, ModeWeb, ModeFinance, ModeNone}

// ParseMode validates s. An empty string selects both agents.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeBoth, nil
	}
	for _, m := range Modes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported agent mode %q", s)
}

// Submission is one form submission.
type Submission struct {
	Query  string
	Mode   Mode
	Period model.Period
}

// RunResult summarizes a finished submission.
type RunResult struct {
	ID          string
	States      []State
	Period      model.Period
	Intent      model.Intent
	Reports     []model.SymbolReport
	AgentErrors int
	StartedAt   time.Time
	Duration    time.Duration
}

// Orchestrator runs submissions one at a time.
type Orchestrator struct {
	WebAgent     agent.Agent
	FinanceAgent agent.Agent
	Collector    *collector.Collector
	Renderer     *render.Renderer
	Recorder     recorder.Recorder

	mu sync.Mutex
}

// NewOrchestrator wires the data pipeline. Agents are optional.
func NewOrchestrator(c *collector.Collector, r *render.Renderer, rec recorder.Recorder) *Orchestrator {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Orchestrator{Collector: c, Renderer: r, Recorder: rec}
}

// Run processes sub start to finish, emitting blocks as soon as they are
// ready. It always reaches StateDone; failures become warning or error blocks.
func (o *Orchestrator) Run(ctx context.Context, sub Submission, sink Sink) *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	res := &RunResult{ID: uuid.NewString(), StartedAt: time.Now()}
	res.States = append(res.States, StateIdle)
	defer func() {
		res.States = append(res.States, StateDone)
		res.Duration = time.Since(res.StartedAt)
		o.record(sub, res)
	}()

	period := sub.Period
	if period == "" {
		period = model.DefaultPeriod
	}
	res.Period = period

	query := strings.TrimSpace(sub.Query)
	if query == "" {
		sink.Emit(model.Block{Kind: model.BlockWarning, Text: "Please enter a query."})
		return res
	}

	log.Info().Str("run_id", res.ID).Str("query", query).Str("mode", string(sub.Mode)).Str("period", string(period)).Msg("submission started")

	res.States = append(res.States, StateDispatching)
	agentCtx := agent.WithPeriod(ctx, period)
	for _, a := range o.agentsFor(sub.Mode) {
		if err := o.dispatch(agentCtx, a, query, sink); err != nil {
			res.AgentErrors++
		}
	}

	res.States = append(res.States, StateExtracting)
	intent := interpreter.Interpret(query)
	res.Intent = intent
	if intent.Warning != "" {
		sink.Emit(model.Block{Kind: model.BlockWarning, Text: intent.Warning})
	}
	if !interpreter.Actionable(intent) {
		return res
	}

	if intent.Comparison {
		res.States = append(res.States, StateComparing)
		a, b := intent.Symbols[0], intent.Symbols[1]
		sink.Emit(model.Block{Kind: model.BlockSubheader, Text: fmt.Sprintf("Comparing %s and %s", a, b)})
		ra := o.report(ctx, a, period, sink)
		rb := o.report(ctx, b, period, sink)
		res.Reports = append(res.Reports, ra, rb)
		if ra.Summary != nil && rb.Summary != nil {
			sink.Emit(model.Block{Kind: model.BlockTable, Table: render.ComparisonTable(a, b, *ra.Summary, *rb.Summary)})
		}
		return res
	}

	res.States = append(res.States, StateReporting)
	for _, sym := range intent.Symbols {
		res.Reports = append(res.Reports, o.report(ctx, sym, period, sink))
	}
	return res
}

func (o *Orchestrator) agentsFor(mode Mode) []agent.Agent {
	var agents []agent.Agent
	if (mode == ModeWeb || mode == ModeBoth || mode == "") && o.WebAgent != nil {
		agents = append(agents, o.WebAgent)
	}
	if (mode == ModeFinance || mode == ModeBoth || mode == "") && o.FinanceAgent != nil {
		agents = append(agents, o.FinanceAgent)
	}
	return agents
}

// dispatch runs one agent and renders its answer, or an inline error.
func (o *Orchestrator) dispatch(ctx context.Context, a agent.Agent, query string, sink Sink) error {
	out, err := agent.Invoke(ctx, a, query)
	if err != nil {
		cause := err
		var failure *agent.Failure
		if errors.As(err, &failure) {
			cause = failure.Err
		}
		log.Error().Str("agent", a.Name()).Err(err).Msg("agent failed")
		sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("An error occurred with %s: %v", a.Name(), cause)})
		return err
	}

	table, rest, err := render.ExtractTable(out)
	if err != nil {
		log.Warn().Str("agent", a.Name()).Err(err).Msg("falling back to raw markdown")
	}
	if table != nil {
		sink.Emit(model.Block{Kind: model.BlockSubheader, Text: a.Name() + " Response (Table)"})
		sink.Emit(model.Block{Kind: model.BlockTable, Table: table})
		if rest != "" {
			sink.Emit(model.Block{Kind: model.BlockMarkdown, Text: rest})
		}
		return nil
	}
	sink.Emit(model.Block{Kind: model.BlockSubheader, Text: a.Name() + " Response"})
	sink.Emit(model.Block{Kind: model.BlockMarkdown, Text: out})
	return nil
}

// report runs fetch, summarize and render for one symbol. A panic is
// contained to the symbol it happened in.
func (o *Orchestrator) report(ctx context.Context, symbol string, period model.Period, sink Sink) (rep model.SymbolReport) {
	rep = model.SymbolReport{Symbol: symbol, Status: model.StatusOK}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("symbol", symbol).Interface("panic", r).Msg("report panicked")
			rep.Status = model.StatusFailed
			rep.Summary = nil
			rep.Err = fmt.Sprint(r)
			sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("Failed to build report for %s: %v", symbol, r)})
		}
	}()

	sink.Emit(model.Block{Kind: model.BlockSubheader, Text: "Report for " + symbol})

	snap, err := o.Collector.Collect(ctx, symbol, period)
	var noData *model.NoDataError
	switch {
	case errors.As(err, &noData):
		rep.Status = model.StatusNoData
		sink.Emit(model.Block{Kind: model.BlockWarning, Text: "No data for " + symbol})
		return rep
	case err != nil:
		rep.Status = model.StatusFailed
		rep.Err = err.Error()
		sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("Failed to fetch data for %s: %v", symbol, err)})
		return rep
	}

	rep.Bars = len(snap.Series.Bars)
	summary := snap.Summary
	rep.Summary = &summary
	sink.Emit(model.Block{Kind: model.BlockMarkdown, Text: render.FormatSummary(symbol, summary)})

	if html, err := o.Renderer.RenderInteractive(snap.Series); err != nil {
		sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("Failed to draw chart for %s: %v", symbol, err)})
	} else {
		sink.Emit(model.Block{Kind: model.BlockChart, Text: symbol, HTML: html})
	}

	path := o.Renderer.PlotPath(symbol)
	if err := o.Renderer.RenderStatic(snap.Series, path); err != nil {
		sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("Failed to save plot for %s: %v", symbol, err)})
		return rep
	}
	rep.PlotPath = path
	sink.Emit(model.Block{Kind: model.BlockImage, Text: "Plot saved as " + path, Path: path})

	if o.Renderer.PDF {
		pdfPath := o.Renderer.ReportPath(symbol)
		if err := o.Renderer.RenderPDF(snap.Series, summary, path, pdfPath); err != nil {
			sink.Emit(model.Block{Kind: model.BlockError, Text: fmt.Sprintf("Failed to write PDF for %s: %v", symbol, err)})
		} else {
			sink.Emit(model.Block{Kind: model.BlockText, Text: "PDF report saved as " + pdfPath})
		}
	}
	return rep
}

func (o *Orchestrator) record(sub Submission, res *RunResult) {
	states := make([]string, len(res.States))
	for i, s := range res.States {
		states[i] = string(s)
	}
	run := &recorder.RunRecord{
		ID:          res.ID,
		Query:       sub.Query,
		Mode:        string(sub.Mode),
		Period:      res.Period,
		Symbols:     res.Intent.Symbols,
		Comparison:  res.Intent.Comparison,
		Warning:     res.Intent.Warning,
		AgentErrors: res.AgentErrors,
		States:      states,
		StartedAt:   res.StartedAt,
		Duration:    res.Duration,
		Reports:     res.Reports,
	}
	if err := o.Recorder.RecordRun(run); err != nil {
		log.Warn().Str("run_id", res.ID).Err(err).Msg("failed to record run")
	}
	log.Info().Str("run_id", res.ID).Int("symbols", len(res.Reports)).Dur("duration", res.Duration).Msg("submission done")
}
