// Package mcpadapter exposes the offline pipeline stages as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
	"github.com/kirillkom/nutrition-pipeline/internal/core/ports"
)

const (
	serverName = "nutrition-pipeline"
	Version    = "0.1.0"
)

type Server struct {
	labels    ports.LabelAnalyzer
	estimator *portion.Estimator
	logger    *slog.Logger
	server    *server.MCPServer
}

func NewServer(labels ports.LabelAnalyzer, estimator *portion.Estimator, logger *slog.Logger) *Server {
	if estimator == nil {
		estimator = portion.NewEstimator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		labels:    labels,
		estimator: estimator,
		logger:    logger,
		server:    server.NewMCPServer(serverName, Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks until stdin is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) toolFailed(ctx context.Context, tool string, err error) (*mcp.CallToolResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.Warn("mcp_tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(err.Error()), nil
}
