package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"topicfind-backend/internal/services"
	"topicfind-backend/internal/topicengine"
)

// SimpleMCPServer exposes topic discovery as an MCP tool.
type SimpleMCPServer struct {
	server  *server.MCPServer
	service *services.DiscoveryService
	logger  *slog.Logger
}

// NewSimpleMCPServer creates a simple MCP server
func NewSimpleMCPServer(service *services.DiscoveryService, logger *slog.Logger) *SimpleMCPServer {
	mcpServer := server.NewMCPServer(
		"Topicfind Backend",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &SimpleMCPServer{
		server:  mcpServer,
		service: service,
		logger:  logger,
	}

	s.registerSimpleTools()
	return s
}

// registerSimpleTools adds the discover_topics tool
func (s *SimpleMCPServer) registerSimpleTools() {
	discoverTool := mcp.NewTool("discover_topics",
		mcp.WithDescription("Discover topics in recent arXiv or Reddit content for a free-form query"),
		mcp.WithString("query", mcp.Required()),
	)
	s.server.AddTool(discoverTool, s.handleDiscoverTopics)

	s.logger.Info("registered 1 MCP tool: discover_topics")
}

// handleDiscoverTopics processes discover_topics requests
func (s *SimpleMCPServer) handleDiscoverTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	query, ok := argsMap["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("query parameter required"), nil
	}

	result, err := s.service.DiscoverTopics(ctx, query, nil, topicengine.Params{})
	if err != nil {
		s.logger.Error("mcp discover_topics failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError(fmt.Sprintf("discovery failed: %v", err)), nil
	}

	s.logger.Info("mcp discover_topics completed",
		slog.String("query", query),
		slog.Int("topics", len(result.Topics)))

	resultJSON, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// ServeStdio starts the MCP server via stdio
func (s *SimpleMCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server via stdio")
	return server.ServeStdio(s.server)
}

// GetServer returns the underlying server
func (s *SimpleMCPServer) GetServer() *server.MCPServer {
	return s.server
}
