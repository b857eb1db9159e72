package mcp

import (
	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "gitdl"

// Server wraps the MCP server with gitdl-specific state.
type Server struct {
	mcp      *server.MCPServer
	pipeline *core.Pipeline
	log      *logging.Logger
}

// NewServer creates the MCP server with all gitdl tools registered.
func NewServer(pipeline *core.Pipeline, version string, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}

	s := &Server{
		pipeline: pipeline,
		log:      log.WithComponent("mcp"),
	}

	s.mcp = server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	// gitdl_fetch
	s.mcp.AddTool(mcp.NewTool("gitdl_fetch",
		mcp.WithDescription("Downloads a repository snapshot, renames its top-level folder to the project name and writes the zip to a local file"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Repository URL, e.g. https://github.com/owner/repo")),
		mcp.WithString("output",
			mcp.Description("Output file path (default: <project>.zip in the working directory)")),
	), s.handleFetch)

	// gitdl_resolve
	s.mcp.AddTool(mcp.NewTool("gitdl_resolve",
		mcp.WithDescription("Shows the project name, archive URL and work ID derived from a repository URL without fetching it"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Repository URL")),
	), s.handleResolve)
}
