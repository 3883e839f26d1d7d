package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "LLM_PROVIDER", "LLM_MODEL", "GROQ_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "GEMINI_API_KEY", "AGENT_MODE", "MARKET_SOURCE", "EODHD_API_KEY",
		"OUTPUT_DIR", "PDF_REPORTS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"SCHEDULE_CRON", "SCHEDULE_QUERY", "SQLITE_PATH", "LOG_LEVEL", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Server.ListenAddr)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "both", cfg.Agents.DefaultMode)
	assert.Equal(t, "yahoo", cfg.Market.Source)
	assert.Equal(t, "1mo", cfg.Market.DefaultPeriod)
	assert.Equal(t, "static", cfg.Output.Dir)
	assert.Equal(t, 1024, cfg.Chart.Width)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.SQLitePath)

	// No API key and agents enabled.
	assert.Error(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  provider: claude
  api_key: from-file
market:
  source: eodhd
  eodhd_api_key: eod-key
  default_period: 3mo
chart:
  sma_window: 20
output:
  pdf: true
`)
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("GROQ_API_KEY", "ignored")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, "3mo", cfg.Market.DefaultPeriod)
	assert.Equal(t, 20, cfg.Chart.SMAWindow)
	assert.True(t, cfg.Output.PDF)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func(t *testing.T) *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.NoError(t, err)
		cfg.LLM.APIKey = "k"
		return cfg
	}

	require.NoError(t, base(t).Validate())

	cfg := base(t)
	cfg.Agents.Disabled = true
	cfg.LLM.APIKey = ""
	assert.NoError(t, cfg.Validate(), "no key needed without agents")

	tests := map[string]func(*Config){
		"provider":     func(c *Config) { c.LLM.Provider = "cohere" },
		"mode":         func(c *Config) { c.Agents.DefaultMode = "all" },
		"period":       func(c *Config) { c.Market.DefaultPeriod = "2y" },
		"source":       func(c *Config) { c.Market.Source = "bloomberg" },
		"eodhd key":    func(c *Config) { c.Market.Source = "eodhd" },
		"base url":     func(c *Config) { c.LLM.BaseURL = "not a url" },
		"chart width":  func(c *Config) { c.Chart.Width = 10 },
		"log level":    func(c *Config) { c.Log.Level = "loud" },
		"telegram":     func(c *Config) { c.Telegram.BotToken = "t" },
		"search limit": func(c *Config) { c.Search.MaxResults = 50 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTelegramEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.TelegramEnabled())
	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "t", "1"
	assert.True(t, cfg.TelegramEnabled())
}
