// ABOUTME: MCP server setup for the lift training log.
// ABOUTME: Wraps the MCP server around the workouts service.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/workouts"
)

// Server wraps the MCP server with training-log access.
type Server struct {
	mcpServer *mcp.Server
	svc       *workouts.Service
}

// NewServer creates a new MCP server over svc.
func NewServer(svc *workouts.Service) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lift",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport. Outstanding propagation
// is flushed before returning.
func (s *Server) Serve(ctx context.Context) error {
	defer s.svc.Flush()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
