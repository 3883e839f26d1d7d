package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"FinAgent/internal/agent"
	"FinAgent/internal/app"
	"FinAgent/internal/model"
	"FinAgent/internal/pipeline"
	"FinAgent/internal/render"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleStockReport implements the stock_report tool
func handleStockReport(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		period, err := requestPeriod(a, request)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		mode, err := pipeline.ParseMode(request.GetString("mode", string(pipeline.ModeNone)))
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		sink := &pipeline.BufferSink{}
		res := a.Orchestrator.Run(ctx, pipeline.Submission{Query: query, Mode: mode, Period: period}, sink)
		log.Info().Str("run_id", res.ID).Dur("duration", res.Duration).Msg("stock_report finished")
		return textResult(render.BlocksText(sink.Blocks())), nil
	}
}

// handleAskAgent implements the ask_agent tool
func handleAskAgent(a *app.App) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		target := a.Orchestrator.FinanceAgent
		if request.GetString("agent", "finance") == "web" {
			target = a.Orchestrator.WebAgent
		}
		if target == nil {
			return textResult("Error: agents are disabled in the configuration"), nil
		}

		period, err := requestPeriod(a, request)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		answer, err := agent.Invoke(agent.WithPeriod(ctx, period), target, query)
		if err != nil {
			log.Error().Err(err).Str("agent", target.Name()).Msg("ask_agent failed")
			return textResult(fmt.Sprintf("An error occurred with %s: %v", target.Name(), err)), nil
		}
		return textResult(answer), nil
	}
}

// requestPeriod reads the optional period argument, falling back to the
// configured period.
func requestPeriod(a *app.App, request mcp.CallToolRequest) (model.Period, error) {
	v := request.GetString("period", "")
	if v == "" {
		return a.Period, nil
	}
	return model.ParsePeriod(v)
}
