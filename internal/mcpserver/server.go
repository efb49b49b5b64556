// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Munin capture tools for LLM chat integration via stdio
// transport. It stands at the same boundary a chat bot transport would:
// deliver one raw item, receive one write confirmation.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/munin/internal/extract"
	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/pipeline"
)

// Server wraps the MCP server with Munin tools.
type Server struct {
	mcp  *server.MCPServer
	pipe *pipeline.Pipeline
	jrnl *journal.DB
}

// New creates a new MCP server with the capture tools registered.
func New(pipe *pipeline.Pipeline, jrnl *journal.DB) *Server {
	s := &Server{pipe: pipe, jrnl: jrnl}

	s.mcp = server.NewMCPServer(
		"Munin",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("capture_item",
		mcp.WithDescription("File one item into the knowledge vault. The payload may be free text, "+
			"a URL, or an absolute path to a local file; it is extracted, classified, and stored "+
			"as a Markdown note (plus the original file as an attachment when applicable)."),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Text, URL, or absolute file path to capture")),
		mcp.WithString("kind", mcp.Description("Optional explicit kind: text, url, or file (auto-detected when omitted)")),
	), s.captureItem)

	s.mcp.AddTool(mcp.NewTool("recent_captures",
		mcp.WithDescription("List the most recently captured items with their stored note paths."),
		mcp.WithString("limit", mcp.Description("Optional maximum number of entries (default 20)")),
	), s.recentCaptures)

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

func (s *Server) captureItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kind := extract.DetectKind(payload)
	if k, kerr := req.RequireString("kind"); kerr == nil && k != "" {
		switch models.Kind(k) {
		case models.KindText, models.KindURL, models.KindFile:
			kind = models.Kind(k)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", k)), nil
		}
	}

	item := models.RawItem{Kind: kind, Payload: payload, ReceivedAt: time.Now()}
	res, err := s.pipe.Handle(ctx, item)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}

	if res.AttachmentPath != "" {
		return mcp.NewToolResultText(fmt.Sprintf("saved: %s (attachment: %s)", res.NotePath, res.AttachmentPath)), nil
	}
	return mcp.NewToolResultText("saved: " + res.NotePath), nil
}

func (s *Server) recentCaptures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.jrnl == nil {
		return mcp.NewToolResultText("journal is disabled"), nil
	}
	limit := 20
	if raw, err := req.RequireString("limit"); err == nil {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			limit = n
		}
	}
	records, err := s.jrnl.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
