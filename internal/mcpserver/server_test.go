package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/embedding/hash"
	"github.com/starford/docfind/internal/models"
	"github.com/starford/docfind/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc := docservice.New(testutil.TestStore(t), hash.New(64),
		docservice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "index_directory":
		result, err = srv.indexDirectory(ctx, req)
	case "index_stats":
		result, err = srv.indexStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestIndexSearchAndStats(t *testing.T) {
	srv := testServer(t)
	root := testutil.WriteTree(t, map[string]string{
		"invoice.txt": "Invoice for consulting services",
		"recipe.md":   "Bake the bread for forty minutes",
		"memo.txt":    "Consulting memo",
	})

	r := callTool(t, srv, "index_directory", map[string]any{"path": root})
	if r.IsError {
		t.Fatalf("index_directory: %s", resultText(r))
	}
	var report docservice.Report
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatal(err)
	}
	if report.Processed != 3 {
		t.Errorf("processed = %d, want 3", report.Processed)
	}

	r = callTool(t, srv, "search_documents", map[string]any{"query": "consulting", "top_k": 2, "type": "txt"})
	if r.IsError {
		t.Fatalf("search_documents: %s", resultText(r))
	}
	var results []models.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || len(results) > 2 {
		t.Fatalf("results = %d", len(results))
	}
	for _, res := range results {
		if res.Metadata.Type != ".txt" {
			t.Errorf("type filter leaked %s", res.Metadata.Type)
		}
	}

	r = callTool(t, srv, "index_stats", map[string]any{})
	if !strings.Contains(resultText(r), `"documents": 3`) {
		t.Errorf("stats = %s", resultText(r))
	}
}

func TestSearchDocuments_RequiresQuery(t *testing.T) {
	srv := testServer(t)
	if r := callTool(t, srv, "search_documents", map[string]any{}); !r.IsError {
		t.Error("expected error for missing query")
	}
	if r := callTool(t, srv, "search_documents", map[string]any{"query": "  "}); !r.IsError {
		t.Error("expected error for blank query")
	}
}

func TestIndexDirectory_MissingPath(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "index_directory", map[string]any{"path": "/no/such/dir"})
	if !r.IsError {
		t.Error("expected error for missing directory")
	}
}

func TestFormatsResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readFormatsResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	for _, ext := range []string{".pdf", ".docx", ".xlsx", ".txt"} {
		if !strings.Contains(text, ext) {
			t.Errorf("formats resource missing %s", ext)
		}
	}
}
