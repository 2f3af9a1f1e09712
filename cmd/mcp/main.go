package main

import (
	"os"

	mcpadapter "github.com/kirillkom/nutrition-pipeline/internal/adapters/mcp"
	"github.com/kirillkom/nutrition-pipeline/internal/config"
	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
	"github.com/kirillkom/nutrition-pipeline/internal/core/usecase"
	"github.com/kirillkom/nutrition-pipeline/internal/observability/logging"
)

const serviceName = "mcp"

// Stdout carries the MCP protocol, so logs go to stderr.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLoggerWriter(os.Stderr, serviceName, cfg.LogLevel)
	if !cfg.MCPEnabled {
		logger.Info("mcp_disabled")
		return
	}

	labels := usecase.NewLabelAnalysisUseCase(nil, nil, logger)
	server := mcpadapter.NewServer(labels, portion.NewEstimator(nil), logger)

	logger.Info("mcp_serving_stdio", "version", mcpadapter.Version)
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
