package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"FinAgent/internal/app"
	"FinAgent/internal/config"
	"FinAgent/internal/logging"
)

const version = "0.3.0"

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; keep logs quiet and on stderr
	logging.SetupWriter("warn", os.Stderr)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}
	defer a.Close()

	mcpServer := server.NewMCPServer(
		"finagent",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createStockReportTool(), handleStockReport(a))
	mcpServer.AddTool(createAskAgentTool(), handleAskAgent(a))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
