package cli

import (
	"github.com/Fuabioo/gitdl/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server on stdio",
	Long: `Starts the Model Context Protocol (MCP) server on stdio.

This command is used by MCP clients (Claude Desktop, etc.) to fetch and
resolve projects through gitdl. It should not be run directly by users.
Logs go to stderr; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, log, pipeline, err := setup(cmd)
	if err != nil {
		return err
	}
	return mcp.NewServer(pipeline, GetVersion(), log).Serve(cmd.Context())
}
