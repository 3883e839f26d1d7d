package dashboard

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/render"
)

// RunRequest is the form submission posted by the page.
type RunRequest struct {
	Query  string `json:"query"`
	Mode   string `json:"mode"`
	Period string `json:"period"`
}

// RunResponse carries every block of a finished submission.
type RunResponse struct {
	RunID    string        `json:"run_id"`
	States   []string      `json:"states"`
	Duration string        `json:"duration"`
	Blocks   []model.Block `json:"blocks"`
}

// streamMessage is one websocket frame: a block or the end of a run.
type streamMessage struct {
	Type  string       `json:"type"`
	Block *model.Block `json:"block,omitempty"`
	RunID string       `json:"run_id,omitempty"`
	Error string       `json:"error,omitempty"`
}

type modeOption struct {
	Value string
	Label string
}

var modeLabels = map[pipeline.Mode]string{
	pipeline.ModeWeb:     "Web Search Agent",
	pipeline.ModeFinance: "Finance AI Agent",
	pipeline.ModeBoth:    "Both Agents",
	pipeline.ModeNone:    "Market data only",
}

// Index renders the dashboard page.
func (s *Server) Index(c *gin.Context) {
	modes := make([]modeOption, 0, len(pipeline.Modes))
	for _, m := range pipeline.Modes {
		modes = append(modes, modeOption{Value: string(m), Label: modeLabels[m]})
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := s.page.Execute(c.Writer, gin.H{
		"Modes":         modes,
		"Periods":       model.Periods,
		"DefaultMode":   string(s.defaultMode),
		"DefaultPeriod": string(s.defaultPeriod),
	})
	if err != nil {
		log.Error().Err(err).Msg("render index page")
	}
}

// HealthCheck handles GET /health requests
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RunQuery handles POST /api/run and answers once the submission is done.
func (s *Server) RunQuery(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sub, err := s.submission(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), RunTimeout)
	defer cancel()

	var blocks []model.Block
	res := s.runner.Run(ctx, sub, pipeline.SinkFunc(func(b model.Block) {
		blocks = append(blocks, s.present(b))
	}))

	states := make([]string, 0, len(res.States))
	for _, st := range res.States {
		states = append(states, string(st))
	}
	c.JSON(http.StatusOK, RunResponse{
		RunID:    res.ID,
		States:   states,
		Duration: res.Duration.String(),
		Blocks:   blocks,
	})
}

// Stream handles GET /ws. Each text frame from the client is a RunRequest;
// blocks are pushed back as they are emitted.
func (s *Server) Stream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		var req RunRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
		sub, err := s.submission(req)
		if err != nil {
			if err := conn.WriteJSON(streamMessage{Type: "done", Error: err.Error()}); err != nil {
				return
			}
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), RunTimeout)
		res := s.runner.Run(ctx, sub, pipeline.SinkFunc(func(b model.Block) {
			b = s.present(b)
			if err := conn.WriteJSON(streamMessage{Type: "block", Block: &b}); err != nil {
				log.Warn().Err(err).Msg("websocket write")
			}
		}))
		cancel()
		if err := conn.WriteJSON(streamMessage{Type: "done", RunID: res.ID}); err != nil {
			return
		}
	}
}

// ListRuns handles GET /api/runs.
func (s *Server) ListRuns(c *gin.Context) {
	limit := DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.recorder.RecentRuns(limit)
	if err != nil {
		log.Error().Str("request_id", c.GetString(RequestIDContextKey)).Err(err).Msg("load run history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load run history"})
		return
	}
	if runs == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) submission(req RunRequest) (pipeline.Submission, error) {
	mode := s.defaultMode
	if req.Mode != "" {
		m, err := pipeline.ParseMode(req.Mode)
		if err != nil {
			return pipeline.Submission{}, err
		}
		mode = m
	}
	period := s.defaultPeriod
	if req.Period != "" {
		p, err := model.ParsePeriod(req.Period)
		if err != nil {
			return pipeline.Submission{}, err
		}
		period = p
	}
	return pipeline.Submission{Query: req.Query, Mode: mode, Period: period}, nil
}

// present prepares a block for the browser: markdown becomes HTML and
// artifact paths become URLs under /static.
func (s *Server) present(b model.Block) model.Block {
	switch b.Kind {
	case model.BlockMarkdown:
		html, err := render.MarkdownToHTML(b.Text)
		if err != nil {
			log.Warn().Err(err).Msg("markdown to html")
			return b
		}
		b.HTML = html
	case model.BlockImage:
		if b.Path != "" {
			b.Path = "/static/" + filepath.ToSlash(filepath.Base(b.Path))
		}
	}
	return b
}
