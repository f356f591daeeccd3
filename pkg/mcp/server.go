// Package mcp exposes LaunchReady discovery to chat agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dennissolver/LaunchReady-sub000/pkg/mcp/tools"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "launchready"

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance. Extra options are appended
// to the defaults.
func NewServer(name, version string, logger *zap.Logger, opts ...server.ServerOption) *Server {
	options := append([]server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}, opts...)
	mcpServer := server.NewMCPServer(name, version, options...)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// NewDiscoveryServer creates a server with every LaunchReady tool registered
// and tool calls audited.
func NewDiscoveryServer(version string, deps *tools.DiscoveryToolDeps, logger *zap.Logger) *Server {
	audit := NewAuditLogger(logger)
	s := NewServer(ServerName, version, logger, server.WithHooks(audit.Hooks()))
	if deps.Logger == nil {
		deps.Logger = s.logger
	}
	tools.RegisterHealthTool(s, version)
	tools.RegisterDiscoveryTools(s, deps)
	return s
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp/{pid}, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// AddTool registers a tool on the underlying MCPServer.
func (s *Server) AddTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.logger.Debug("Registering MCP tool", zap.String("tool", tool.Name))
	s.mcp.AddTool(tool, handler)
}

var _ tools.ToolRegistrar = (*Server)(nil)
