// Package agent runs natural-language queries against a language model
// backed by tools.
package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/phuslu/log"

	"FinAgent/internal/llm"
)

// Agent answers a query with text or markdown.
type Agent interface {
	Name() string
	Run(ctx context.Context, query string) (string, error)
}

// Tool supplies context for a query before the model is asked.
type Tool interface {
	Name() string
	Call(ctx context.Context, query string) (string, error)
}

// Failure wraps any error or panic raised while running an agent.
type Failure struct {
	Agent string
	Err   error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Agent, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Invoke runs a and converts errors and panics into *Failure.
func Invoke(ctx context.Context, a Agent, query string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("agent", a.Name()).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("agent panicked")
			out, err = "", &Failure{Agent: a.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = a.Run(ctx, query)
	if err != nil {
		return "", &Failure{Agent: a.Name(), Err: err}
	}
	return out, nil
}

// LLMAgent asks a provider, prefixing the prompt with tool output.
type LLMAgent struct {
	AgentName    string
	Role         string
	Instructions []string
	Tools        []Tool
	Provider     llm.Provider
	Model        string
	Markdown     bool
	// Grounded lets providers with built-in search use it.
	Grounded bool
}

func (a *LLMAgent) Name() string { return a.AgentName }

func (a *LLMAgent) Run(ctx context.Context, query string) (string, error) {
	if a.Provider == nil {
		return "", fmt.Errorf("no model provider configured")
	}
	resp, err := a.Provider.Complete(ctx, &llm.Request{
		System:   a.systemPrompt(),
		Prompt:   a.prompt(ctx, query),
		Model:    a.Model,
		Grounded: a.Grounded,
	})
	if err != nil {
		return "", fmt.Errorf("run %s: %w", a.AgentName, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (a *LLMAgent) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are " + a.AgentName + ".")
	if a.Role != "" {
		b.WriteString(" Your role: " + a.Role + ".")
	}
	b.WriteString("\n")
	for _, in := range a.Instructions {
		b.WriteString("- " + in + "\n")
	}
	if a.Markdown {
		b.WriteString("- Format your answer in markdown.\n")
	}
	return b.String()
}

func (a *LLMAgent) prompt(ctx context.Context, query string) string {
	if len(a.Tools) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString(query)
	b.WriteString("\n\nUse the following tool results to answer.\n")
	for _, t := range a.Tools {
		out, err := t.Call(ctx, query)
		if err != nil {
			log.Warn().Str("agent", a.AgentName).Str("tool", t.Name()).Err(err).Msg("tool call failed")
			out = "(unavailable: " + err.Error() + ")"
		}
		b.WriteString("\n### " + t.Name() + "\n")
		b.WriteString(out)
		b.WriteString("\n")
	}
	return b.String()
}
