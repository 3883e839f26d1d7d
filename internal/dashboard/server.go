// Package dashboard serves the query form and streams report blocks to the
// browser.
package dashboard

import (
	"context"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/recorder"
)

const (
	ServiceName         = "finagent-dashboard"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
	DefaultHistoryLimit = 20
	// RunTimeout bounds one submission started from the dashboard.
	RunTimeout = 5 * time.Minute
)

// Runner executes one submission.
type Runner interface {
	Run(ctx context.Context, sub pipeline.Submission, sink pipeline.Sink) *pipeline.RunResult
}

// Server is the HTTP shell around the pipeline.
type Server struct {
	// AllowedOrigins lists extra browser origins that may call the API and
	// open the websocket. The dashboard's own host is always allowed.
	AllowedOrigins []string

	runner        Runner
	recorder      recorder.Recorder
	outputDir     string
	defaultMode   pipeline.Mode
	defaultPeriod model.Period
	page          *template.Template
	upgrader      websocket.Upgrader
}

// NewServer creates a dashboard server. Artifacts under outputDir are served at /static.
func NewServer(runner Runner, rec recorder.Recorder, outputDir string, mode pipeline.Mode, period model.Period) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if mode == "" {
		mode = pipeline.ModeBoth
	}
	if period == "" {
		period = model.DefaultPeriod
	}
	s := &Server{
		runner:        runner,
		recorder:      rec,
		outputDir:     outputDir,
		defaultMode:   mode,
		defaultPeriod: period,
		page:          template.Must(template.New("index").Parse(indexHTML)),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	return s
}

// SetupRoutes configures all dashboard routes.
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(s.AllowedOrigins))

	router.GET("/", s.Index)
	router.GET("/health", s.HealthCheck)
	router.GET("/ws", s.originGuard(), s.Stream)
	router.Static("/static", s.outputDir)

	api := router.Group("/api", s.originGuard())
	api.POST("/run", s.RunQuery)
	api.GET("/runs", s.ListRuns)

	return router
}
