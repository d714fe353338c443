package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
)

const (
	serverName    = "agentflow"
	serverVersion = "1.0.0"
)

// Server exposes read-only roster and distribution tools to MCP clients over
// streamable HTTP. Tools are registered in tools.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
}

func New(agentSvc *agentsvc.Service, distSvc *distsvc.Service) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(true),
	)

	RegisterTools(mcpSrv, agentSvc, distSvc)

	return &Server{httpSrv: mcpserver.NewStreamableHTTPServer(mcpSrv)}
}

// Handler returns the http.Handler serving the MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}
