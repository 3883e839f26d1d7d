package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAgent/internal/collector"
	"FinAgent/internal/config"
	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/recorder"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Agents.Disabled = true
	cfg.Market.Source = "mock"
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestNewFetcher(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, "mock", NewFetcher(cfg).Name())

	cfg.Market.Source = "eodhd"
	cfg.Market.EODHDAPIKey = "k"
	assert.Equal(t, "eodhd", NewFetcher(cfg).Name())

	cfg.Market.Source = "yahoo"
	assert.Equal(t, "yahoo", NewFetcher(cfg).Name())
}

func TestNew_DataOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agents.DefaultMode = "none"
	cfg.Market.DefaultPeriod = "3mo"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &collector.MockFetcher{}, a.Fetcher)
	assert.IsType(t, &recorder.NoopRecorder{}, a.Recorder)
	assert.Nil(t, a.Orchestrator.WebAgent)
	assert.Nil(t, a.Orchestrator.FinanceAgent)
	assert.Equal(t, pipeline.ModeNone, a.Mode)
	assert.Equal(t, model.Period3mo, a.Period)

	sink := &pipeline.BufferSink{}
	res := a.Orchestrator.Run(context.Background(), pipeline.Submission{Query: "NVDA", Mode: a.Mode, Period: a.Period}, sink)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, model.StatusOK, res.Reports[0].Status)
}

func TestNew_WithAgentsAndHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agents.Disabled = false
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = "test-key"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "runs.db")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Orchestrator.WebAgent)
	assert.NotNil(t, a.Orchestrator.FinanceAgent)
	assert.IsType(t, &recorder.SQLiteRecorder{}, a.Recorder)
}
