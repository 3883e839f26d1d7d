package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createStockReportTool returns the stock_report tool definition
func createStockReportTool() mcp.Tool {
	return mcp.NewTool("stock_report",
		mcp.WithDescription("Run the report pipeline for a free-text query: ticker extraction, trend summary and chart per symbol, or a comparison of two symbols"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query with uppercase tickers, e.g. \"Compare NVDA and AAPL\""),
		),
		mcp.WithString("period",
			mcp.Description("History period: 1d, 5d, 1mo, 3mo, 6mo or 1y (default: configured period)"),
			mcp.Enum("1d", "5d", "1mo", "3mo", "6mo", "1y"),
		),
		mcp.WithString("mode",
			mcp.Description("Agents to consult before the report: web, finance, both or none (default: none)"),
			mcp.Enum("web", "finance", "both", "none"),
		),
	)
}

// createAskAgentTool returns the ask_agent tool definition
func createAskAgentTool() mcp.Tool {
	return mcp.NewTool("ask_agent",
		mcp.WithDescription("Ask a single agent and return its markdown answer"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Question for the agent"),
		),
		mcp.WithString("agent",
			mcp.Description("Which agent to ask: web or finance (default: finance)"),
			mcp.Enum("web", "finance"),
		),
		mcp.WithString("period",
			mcp.Description("History period the finance agent reports on (default: configured period)"),
			mcp.Enum("1d", "5d", "1mo", "3mo", "6mo", "1y"),
		),
	)
}
