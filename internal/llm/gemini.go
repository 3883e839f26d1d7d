package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider talks to the Gemini API. Grounded requests enable the
// built-in Google Search tool.
type GeminiProvider struct {
	client *genai.Client
	cfg    Config
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, cfg: cfg}, nil
}

func (p *GeminiProvider) Type() ProviderType { return ProviderGemini }

func (p *GeminiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := orDefault(req.Model, p.cfg.Model)

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens(req, p.cfg)),
	}
	if t := temperature(req, p.cfg); t > 0 {
		config.Temperature = genai.Ptr(float32(t))
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini generate content: %w", ErrEmptyResponse)
	}
	return &Response{Text: text, Provider: ProviderGemini, Model: model}, nil
}
