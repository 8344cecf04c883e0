package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"fundradar/internal/common"
	"fundradar/internal/eastmoney"
	"fundradar/internal/resources"
	"fundradar/internal/services/cache"
	"fundradar/internal/services/fundflow"
	"fundradar/internal/services/holding"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		common.PrintBanner(common.GetFullVersion())
		return
	}

	// Load configuration
	configPath := os.Getenv("FUNDRADAR_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("fundradar.toml"); err == nil {
			configPath = "fundradar.toml"
		}
	}
	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The MCP protocol runs over stdio, so the logger stays console-only and
	// quiet by default.
	logger := common.InitLogger(config)

	// Upstream market-data client with pacing
	client := eastmoney.NewClient(
		eastmoney.WithQuoteBaseURL(config.Eastmoney.QuoteBaseURL),
		eastmoney.WithDataBaseURL(config.Eastmoney.DataBaseURL),
		eastmoney.WithHTTPClient(&http.Client{
			Timeout: common.ParseDurationOr(config.Eastmoney.RequestTimeout, 15*time.Second),
		}),
		eastmoney.WithRequestGap(common.ParseDurationOr(config.Eastmoney.MinRequestGap, 200*time.Millisecond)),
		eastmoney.WithJitter(config.Eastmoney.JitterMaxMS),
		eastmoney.WithLogger(logger),
	)

	// Result caches: short-lived for screening, day-scale for holdings
	screeningCache := cache.NewStore(common.ParseDurationOr(config.Cache.ScreeningTTL, 5*time.Minute))
	holdingCache := cache.NewStore(common.ParseDurationOr(config.Cache.HoldingTTL, 24*time.Hour))

	janitor, err := cache.StartJanitor(config.Cache.CleanupSchedule, logger, screeningCache, holdingCache)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start cache janitor")
	}
	defer janitor.Stop()

	// Analysis services
	enricher := holding.NewService(client, holdingCache, logger,
		holding.WithWorkers(config.Holding.MaxWorkers))
	screener := fundflow.NewService(client, enricher, screeningCache, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"fundradar",
		common.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	// Register analysis tools
	mcpServer.AddTool(createAnalyzeLargeFundFlowTool(), handleAnalyzeLargeFundFlow(screener, logger))
	mcpServer.AddTool(createAnalyzeStockFundFlowDetailTool(), handleAnalyzeStockFundFlowDetail(logger))

	// Register static analysis resources
	resources.Register(mcpServer, common.GetVersion())

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
