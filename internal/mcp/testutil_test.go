package mcp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Fuabioo/gitdl/internal/core"
	"github.com/klauspost/compress/zip"
	"github.com/mark3labs/mcp-go/mcp"
)

// createTestZip returns zip bytes for files, a map of path -> content.
func createTestZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for path, content := range files {
		f, err := w.Create(path)
		if err != nil {
			t.Fatalf("failed to create file %s in zip: %v", path, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write content to %s: %v", path, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// setupTestUpstream serves a demo-master snapshot for /octo/demo and 404 for
// everything else.
func setupTestUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	archive := createTestZip(t, map[string]string{
		"demo-master/README.md":   "# demo",
		"demo-master/cmd/main.go": "package main",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/octo/demo/archive/master.zip" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupTestServer builds a Server over a pipeline rooted in a temp dir.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := core.DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.AllowedHosts = nil
	cfg.Lock.Wait = time.Second

	pipeline, err := core.NewPipeline(cfg, core.Options{})
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	return NewServer(pipeline, "test", nil)
}

// newTestRequest creates a CallToolRequest for testing
func newTestRequest(arguments map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: arguments,
		},
	}
}

// getResultText extracts the text from a CallToolResult for testing
func getResultText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := mcp.AsTextContent(result.Content[0]); ok {
		return textContent.Text
	}
	return ""
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(prev) })
}
