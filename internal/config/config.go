package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr" validate:"required"`
		// AllowedOrigins are extra browser origins allowed to call the dashboard API.
		AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,url"`
	} `yaml:"server"`
	LLM struct {
		Provider    string  `yaml:"provider" validate:"oneof=groq openai claude gemini"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
		Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
		MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
		MaxRetries  int     `yaml:"max_retries" validate:"gte=0,lte=10"`
	} `yaml:"llm"`
	Agents struct {
		Disabled    bool   `yaml:"disabled"`
		DefaultMode string `yaml:"default_mode" validate:"oneof=web finance both none"`
	} `yaml:"agents"`
	Market struct {
		Source        string  `yaml:"source" validate:"oneof=yahoo eodhd mock"`
		EODHDAPIKey   string  `yaml:"eodhd_api_key"`
		RateLimit     float64 `yaml:"rate_limit" validate:"gte=0"`
		DefaultPeriod string  `yaml:"default_period" validate:"oneof=1d 5d 1mo 3mo 6mo 1y"`
	} `yaml:"market"`
	Search struct {
		MaxResults int `yaml:"max_results" validate:"gte=1,lte=20"`
	} `yaml:"search"`
	Output struct {
		Dir string `yaml:"dir" validate:"required"`
		PDF bool   `yaml:"pdf"`
	} `yaml:"output"`
	Chart struct {
		Width     int `yaml:"width" validate:"gte=200"`
		Height    int `yaml:"height" validate:"gte=150"`
		SMAWindow int `yaml:"sma_window" validate:"gte=0"`
	} `yaml:"chart"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron  string `yaml:"cron"`
		Query string `yaml:"query"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// providerKeyEnv maps each LLM provider to the environment variable holding its key.
var providerKeyEnv = map[string]string{
	"groq":   "GROQ_API_KEY",
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = "groq"
	}
	if v := os.Getenv(providerKeyEnv[provider]); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AGENT_MODE"); v != "" {
		cfg.Agents.DefaultMode = v
	}
	if v := os.Getenv("MARKET_SOURCE"); v != "" {
		cfg.Market.Source = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		cfg.Market.EODHDAPIKey = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("PDF_REPORTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Output.PDF = b
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SCHEDULE_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SCHEDULE_QUERY"); v != "" {
		cfg.Schedule.Query = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8501"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "groq"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2048
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.Agents.DefaultMode == "" {
		cfg.Agents.DefaultMode = "both"
	}
	if cfg.Market.Source == "" {
		cfg.Market.Source = "yahoo"
	}
	if cfg.Market.RateLimit == 0 {
		cfg.Market.RateLimit = 2
	}
	if cfg.Market.DefaultPeriod == "" {
		cfg.Market.DefaultPeriod = "1mo"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "static"
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 1024
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 576
	}
	if cfg.Schedule.Query == "" {
		cfg.Schedule.Query = "Compare NVDA and AAPL"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks field constraints and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.Agents.Disabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %s (or set %s)", c.LLM.Provider, providerKeyEnv[c.LLM.Provider])
	}
	if c.Market.Source == "eodhd" && c.Market.EODHDAPIKey == "" {
		return fmt.Errorf("market.eodhd_api_key is required for the eodhd source")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// TelegramEnabled reports whether the Telegram shell should start.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
