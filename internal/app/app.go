// Package app builds the pipeline and its collaborators from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"FinAgent/internal/agent"
	"FinAgent/internal/collector"
	"FinAgent/internal/config"
	"FinAgent/internal/llm"
	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/recorder"
	"FinAgent/internal/render"
	"FinAgent/internal/websearch"
)

// App holds the wired components shared by every shell.
type App struct {
	Config       *config.Config
	Fetcher      collector.Fetcher
	Orchestrator *pipeline.Orchestrator
	Recorder     recorder.Recorder
	Mode         pipeline.Mode
	Period       model.Period
}

// New wires fetcher, renderer, recorder, agents and orchestrator. cfg must
// already be validated.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	fetcher := NewFetcher(cfg)
	log.Info().Str("source", fetcher.Name()).Msg("market data source")

	rend := render.NewRenderer(cfg.Output.Dir)
	rend.Width = cfg.Chart.Width
	rend.Height = cfg.Chart.Height
	rend.SMAWindow = cfg.Chart.SMAWindow
	rend.PDF = cfg.Output.PDF

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	orch := pipeline.NewOrchestrator(collector.NewCollector(fetcher), rend, rec)
	if cfg.Agents.Disabled {
		log.Info().Msg("agents disabled, running market data pipeline only")
	} else {
		provider, err := llm.New(ctx, llm.Config{
			Provider:    llm.ProviderType(cfg.LLM.Provider),
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxRetries:  cfg.LLM.MaxRetries,
		})
		if err != nil {
			rec.Close()
			return nil, fmt.Errorf("init llm provider: %w", err)
		}
		orch.WebAgent = agent.NewWebSearchAgent(provider, websearch.NewClient(cfg.Proxy, cfg.Search.MaxResults))
		orch.FinanceAgent = agent.NewFinanceAgent(provider, fetcher)
		log.Info().Str("provider", cfg.LLM.Provider).Msg("agents enabled")
	}

	mode, err := pipeline.ParseMode(cfg.Agents.DefaultMode)
	if err != nil {
		rec.Close()
		return nil, err
	}
	period, err := model.ParsePeriod(cfg.Market.DefaultPeriod)
	if err != nil {
		rec.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		Fetcher:      fetcher,
		Orchestrator: orch,
		Recorder:     rec,
		Mode:         mode,
		Period:       period,
	}, nil
}

// NewFetcher selects the market data source.
func NewFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.Market.Source {
	case "eodhd":
		return collector.NewEODHDFetcher(cfg.Market.EODHDAPIKey, cfg.Proxy, cfg.Market.RateLimit)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy, collector.WithYahooRateLimit(cfg.Market.RateLimit))
	}
}

// Close releases the run history store.
func (a *App) Close() error {
	return a.Recorder.Close()
}
