package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/findata-mcp/internal/common"
	"github.com/bobmcallan/findata-mcp/internal/sampling"
	"github.com/bobmcallan/findata-mcp/internal/upstream"
)

func main() {
	stdio := flag.Bool("stdio", false, "Use stdio transport (for Claude Desktop)")
	configFile := flag.String("config", "findata-mcp.toml", "Path to config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Load version
	common.LoadVersionFromFile()

	// Setup logging
	logger := common.NewLoggerFromConfig(cfg.Logging)

	client := upstream.New(cfg.Upstream, logger)

	// Create MCP server with tool, resource, prompt, and sampling capabilities
	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithInstructions("Financial Datasets MCP server: stock fundamentals, prices, filings, news, and crypto data, plus AI analysis tools that delegate generation to the connected client via sampling."),
	)
	mcpServer.EnableSampling()

	analyzer := newAnalyzer(client, logger, cfg.Sampling)

	registerTools(mcpServer, client, logger, analyzer)
	registerResources(mcpServer, client)
	registerPrompts(mcpServer)

	if *stdio {
		// Stdio transport — reads stdin, writes stdout
		if err := server.ServeStdio(mcpServer); err != nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	port := cfg.Server.Port

	// Streamable HTTP transport — listens on configured port
	httpServer := server.NewStreamableHTTPServer(mcpServer)

	logger.Info().Str("port", port).Msg("Starting MCP Streamable HTTP")
	fmt.Fprintf(os.Stderr, "Starting MCP Streamable HTTP on :%s\n", port)

	if err := httpServer.Start(":" + port); err != nil {
		fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
		os.Exit(1)
	}
}

// newAnalyzer builds the sampling-backed analyzer used by the AI tools.
func newAnalyzer(client *upstream.Client, logger *common.Logger, cfg common.SamplingConfig) *Analyzer {
	return &Analyzer{
		client:    client,
		logger:    logger,
		timeout:   cfg.GetTimeout(),
		maxTokens: cfg.MaxTokens,
		newCaller: sampling.NewServerCaller,
	}
}
