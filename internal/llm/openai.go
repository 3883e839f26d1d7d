package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIProvider talks to the chat completions API of OpenAI or any
// compatible endpoint.
type OpenAIProvider struct {
	client openai.Client
	kind   ProviderType
	cfg    Config
}

// NewOpenAIProvider creates a chat completions provider.
func NewOpenAIProvider(cfg Config, kind ProviderType) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), kind: kind, cfg: cfg}
}

func (p *OpenAIProvider) Type() ProviderType { return p.kind }

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := orDefault(req.Model, p.cfg.Model)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if t := temperature(req, p.cfg); t > 0 {
		params.Temperature = openai.Float(t)
	}
	if n := maxTokens(req, p.cfg); n > 0 {
		params.MaxTokens = openai.Int(int64(n))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.kind, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s chat completion: %w", p.kind, ErrEmptyResponse)
	}
	return &Response{Text: resp.Choices[0].Message.Content, Provider: p.kind, Model: model}, nil
}

func temperature(req *Request, cfg Config) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return cfg.Temperature
}

func maxTokens(req *Request, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return cfg.MaxTokens
}
