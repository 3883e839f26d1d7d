package scheduler

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"FinAgent/internal/model"
	"FinAgent/internal/notifier"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/recorder"
)

// Runner executes one submission.
type Runner interface {
	Run(ctx context.Context, sub pipeline.Submission, sink pipeline.Sink) *pipeline.RunResult
}

// Messenger delivers reports to a chat.
type Messenger interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
	SendPhoto(ctx context.Context, path, caption string) error
}

// Scheduler runs the watchlist query on a cron schedule and answers chat
// commands.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier Messenger
	Recorder recorder.Recorder
	Ctx      context.Context

	// Query is the watchlist query run by the cron job and /report.
	Query string
	Mode  pipeline.Mode

	mu     sync.Mutex
	period model.Period
}

// NewScheduler creates a new Scheduler. n may be nil when no chat is configured.
func NewScheduler(ctx context.Context, runner Runner, n Messenger, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		Mode:     pipeline.ModeBoth,
		period:   model.DefaultPeriod,
	}
}

// Register schedules the watchlist report. An empty spec disables it.
func (s *Scheduler) Register(spec, query string) error {
	s.Query = query
	if spec == "" {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("register report task: empty query")
	}
	if _, err := s.Cron.AddFunc(spec, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	log.Info().Str("cron", spec).Str("query", query).Msg("watchlist report scheduled")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	ctx := s.Cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// SetPeriod changes the history period used for chat and scheduled runs.
func (s *Scheduler) SetPeriod(p model.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
}

// Period returns the current history period.
func (s *Scheduler) Period() model.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// RunNow executes the watchlist report immediately.
func (s *Scheduler) RunNow() *pipeline.RunResult {
	return s.deliver(s.Ctx, "Watchlist report", s.Query)
}

func (s *Scheduler) reportTask() {
	log.Info().Msg("running scheduled watchlist report")
	s.RunNow()
}

// deliver runs query and sends the text and chart images to the chat.
func (s *Scheduler) deliver(ctx context.Context, title, query string) *pipeline.RunResult {
	sink := &pipeline.BufferSink{}
	res := s.Runner.Run(ctx, pipeline.Submission{Query: query, Mode: s.Mode, Period: s.Period()}, sink)
	blocks := sink.Blocks()

	if s.Notifier == nil {
		log.Info().Str("run_id", res.ID).Int("blocks", len(blocks)).Msg("report finished, no chat configured")
		return res
	}
	s.trySend(ctx, notifier.FormatReport(title, blocks))
	for _, path := range notifier.Photos(blocks) {
		if err := s.Notifier.SendPhoto(ctx, path, ""); err != nil {
			log.Error().Str("path", path).Err(err).Msg("send chart")
		}
	}
	return res
}

// HandleCommand processes a chat message and returns a reply. Messages that
// are not commands are run as queries; their report is sent directly.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "/start", "/help":
		return notifier.FormatHelp(model.Periods)
	case "/report":
		s.deliver(ctx, "Watchlist report", s.Query)
		return ""
	case "/history":
		return s.formatHistory()
	case "/period":
		if len(fields) < 2 {
			return fmt.Sprintf("Current period: %s", s.Period())
		}
		p, err := model.ParsePeriod(fields[1])
		if err != nil {
			return "❌ " + err.Error()
		}
		s.SetPeriod(p)
		return fmt.Sprintf("Period set to %s", p)
	}
	if strings.HasPrefix(fields[0], "/") {
		return "Unknown command.\n\n" + notifier.FormatHelp(model.Periods)
	}
	s.deliver(ctx, command, command)
	return ""
}

func (s *Scheduler) formatHistory() string {
	runs, err := s.Recorder.RecentRuns(5)
	if err != nil {
		log.Error().Err(err).Msg("load run history")
		return "❌ could not load history"
	}
	if len(runs) == 0 {
		return "No runs recorded yet."
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s  %s  [%s]\n", r.StartedAt.Format("01-02 15:04"), html.EscapeString(r.Query), strings.Join(r.Symbols, " ")))
	}
	return b.String()
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
