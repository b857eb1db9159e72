package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/Fuabioo/gitdl/internal/errors"
	"github.com/mark3labs/mcp-go/mcp"
)

// handleFetch implements gitdl_fetch: runs the pipeline and saves the archive.
func (s *Server) handleFetch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return errorResult(errors.CodeConfiguration, "url is required"), nil
	}

	id, err := s.pipeline.Resolve(url)
	if err != nil {
		return mcpErrorResult(err), nil
	}

	output := request.GetString("output", "")
	if output == "" {
		output = (&core.Artifact{ProjectName: id.ProjectName}).Filename()
	}
	output, err = filepath.Abs(output)
	if err != nil {
		return errorResult(errors.CodeConfiguration, "output path cannot be resolved"), nil
	}

	var written int64
	err = s.pipeline.Run(ctx, url, func(_ context.Context, a *core.Artifact) error {
		n, err := core.SaveArtifact(a, output)
		written = n
		return err
	}, core.RunOptions{})
	if err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("gitdl_fetch failed")
		return mcpErrorResult(err), nil
	}

	response := map[string]interface{}{
		"project":     id.ProjectName,
		"output_path": output,
		"size_bytes":  written,
	}

	return jsonResult(response), nil
}

// handleResolve implements gitdl_resolve: reports the derived identity.
func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return errorResult(errors.CodeConfiguration, "url is required"), nil
	}

	id, err := s.pipeline.Resolve(url)
	if err != nil {
		return mcpErrorResult(err), nil
	}

	response := map[string]interface{}{
		"reference":   id.Reference,
		"project":     id.ProjectName,
		"branch":      id.Branch,
		"archive_url": id.ArchiveURL,
		"work_id":     id.WorkID,
	}

	return jsonResult(response), nil
}

// mcpErrorResult converts a gitdl error into an MCP error result. Only the
// caller-facing message is exposed.
func mcpErrorResult(err error) *mcp.CallToolResult {
	code := errors.Code(err)
	if code == "" {
		code = errors.CodeInternal
	}

	return errorResult(code, errors.Message(err))
}

// errorResult creates an MCP error result.
func errorResult(code, message string) *mcp.CallToolResult {
	errorData := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}

	jsonBytes, err := json.Marshal(errorData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s - %s", code, message))
	}

	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// jsonResult creates an MCP success result from a JSON-serializable object.
func jsonResult(data interface{}) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return errorResult(errors.CodeInternal, fmt.Sprintf("failed to marshal response: %s", err))
	}

	return mcp.NewToolResultText(string(jsonBytes))
}
