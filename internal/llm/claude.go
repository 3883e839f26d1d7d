package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider talks to the Anthropic Messages API.
type ClaudeProvider struct {
	client anthropic.Client
	cfg    Config
}

// NewClaudeProvider creates an Anthropic provider.
func NewClaudeProvider(cfg Config) *ClaudeProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ClaudeProvider{client: anthropic.NewClient(opts...), cfg: cfg}
}

func (p *ClaudeProvider) Type() ProviderType { return ProviderClaude }

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := orDefault(req.Model, p.cfg.Model)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens(req, p.cfg)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if t := temperature(req, p.cfg); t > 0 {
		params.Temperature = anthropic.Float(t)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude messages: %w", ErrEmptyResponse)
	}
	return &Response{Text: text.String(), Provider: ProviderClaude, Model: model}, nil
}
