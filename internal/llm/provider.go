// Package llm adapts hosted language models to a single completion call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// ProviderType names a hosted model API.
type ProviderType string

const (
	// ProviderOpenAI covers OpenAI and OpenAI-compatible endpoints such as Groq.
	ProviderOpenAI ProviderType = "openai"
	ProviderGroq   ProviderType = "groq"
	ProviderClaude ProviderType = "claude"
	ProviderGemini ProviderType = "gemini"
)

// Request is a provider-agnostic single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
	// Grounded asks providers with built-in search to ground the answer.
	Grounded bool
}

// Response is the text a provider produced.
type Response struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider generates a completion for a request.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
	Type() ProviderType
}

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response")

// Config selects and configures a provider.
type Config struct {
	Provider    ProviderType
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

const groqBaseURL = "https://api.groq.com/openai/v1"

// DefaultModel returns the model used when none is configured.
func DefaultModel(p ProviderType) string {
	switch p {
	case ProviderClaude:
		return "claude-sonnet-4-20250514"
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return "llama-3.1-8b-instant"
	}
}

// New builds the provider named by cfg.
func New(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("create %s provider: missing API key", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}

	var p Provider
	switch cfg.Provider {
	case ProviderGroq, "":
		if cfg.BaseURL == "" {
			cfg.BaseURL = groqBaseURL
		}
		p = NewOpenAIProvider(cfg, ProviderGroq)
	case ProviderOpenAI:
		p = NewOpenAIProvider(cfg, ProviderOpenAI)
	case ProviderClaude:
		p = NewClaudeProvider(cfg)
	case ProviderGemini:
		g, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p = g
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	log.Info().Str("provider", string(p.Type())).Str("model", cfg.Model).Msg("llm provider ready")
	if cfg.MaxRetries > 0 {
		return &retrying{Provider: p, maxRetries: cfg.MaxRetries}, nil
	}
	return p, nil
}

// retrying retries failed completions with linear backoff.
type retrying struct {
	Provider
	maxRetries int
	backoff    time.Duration
}

func (r *retrying) Complete(ctx context.Context, req *Request) (*Response, error) {
	backoff := r.backoff
	if backoff == 0 {
		backoff = 2 * time.Second
	}
	var lastErr error
	for i := 0; i <= r.maxRetries; i++ {
		resp, err := r.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, ErrEmptyResponse) || i == r.maxRetries {
			break
		}
		log.Warn().Int("attempt", i+1).Str("provider", string(r.Type())).Err(err).Msg("completion failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * backoff):
		}
	}
	return nil, fmt.Errorf("complete after %d attempts: %w", r.maxRetries+1, lastErr)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
