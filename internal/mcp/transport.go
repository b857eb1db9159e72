package mcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

// Serve runs the MCP server on stdio until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO runs the MCP server over the given reader and writer, one
// JSON-RPC message per line.
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	stdioServer := server.NewStdioServer(s.mcp)
	s.log.Info().Msg("serving MCP on stdio")
	if err := stdioServer.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve MCP: %w", err)
	}
	return nil
}
