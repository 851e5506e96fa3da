// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes docfind search and indexing tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docfind/internal/apperr"
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/extract"
)

// formatsURI is the resource listing the file types docfind can index.
const formatsURI = "docfind://formats"

// Server wraps the MCP server with docfind tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all docfind tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docfind",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over indexed local documents. "+
			"Returns ranked chunks with their source file, score and text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query")),
		mcp.WithNumber("top_k", mcp.Description("Maximum number of results (default 10)")),
		mcp.WithString("type", mcp.Description("Restrict to one file type, e.g. pdf or .docx")),
		mcp.WithBoolean("distinct", mcp.Description("Return only the best chunk per file")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("index_directory",
		mcp.WithDescription("Index or refresh a directory. Unchanged files are skipped; "+
			"new and modified files are extracted, chunked and embedded."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute or relative directory path")),
	), s.indexDirectory)

	s.mcp.AddTool(mcp.NewTool("index_stats",
		mcp.WithDescription("Report chunk and document counts and the data directory."),
	), s.indexStats)

	s.mcp.AddResource(
		mcp.NewResource(formatsURI, "Supported file types",
			mcp.WithResourceDescription("File extensions docfind extracts text from."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}
	results := s.svc.Search(ctx, query, docservice.SearchOptions{
		TopK:     req.GetInt("top_k", 0),
		Type:     req.GetString("type", ""),
		Distinct: req.GetBool("distinct", false),
	})
	return jsonResult(results)
}

func (s *Server) indexDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.IndexDirectory(ctx, path, nil)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return mcp.NewToolResultError("another index run is in progress"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("index %s: %v", path, err)), nil
	}
	return jsonResult(report)
}

func (s *Server) indexStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) readFormatsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var b strings.Builder
	b.WriteString("# Supported file types\n\n")
	for _, ext := range extract.SupportedExtensions() {
		fmt.Fprintf(&b, "- `%s`\n", ext)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatsURI,
			MIMEType: "text/markdown",
			Text:     b.String(),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
