package mcp

import (
	"context"
	"io"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/purelymail-mcp/internal/common"
	"github.com/bobmcallan/purelymail-mcp/internal/config"
	"github.com/bobmcallan/purelymail-mcp/internal/tools"
)

// NewServer creates an MCP server named after cfg and registers every tool in
// the registry on it.
func NewServer(cfg *config.Config, registry *tools.Registry, observer Observer, logger *common.Logger) (*mcpserver.MCPServer, int) {
	s := mcpserver.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	count := RegisterTools(s, registry, observer, logger)
	return s, count
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates a stateless streamable HTTP handler for s.
func NewHandler(s *mcpserver.MCPServer, logger *common.Logger) *Handler {
	return &Handler{
		streamable: mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateLess(true)),
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}

// ServeStdio serves s over the given reader and writer until ctx is done.
func ServeStdio(ctx context.Context, s *mcpserver.MCPServer, in io.Reader, out io.Writer) error {
	return mcpserver.NewStdioServer(s).Listen(ctx, in, out)
}
