// Package mcp exposes pipeview over the Model Context Protocol so agents can
// lay out, render and inspect pipeline DAGs through stdio tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/strevlab/pipeview/internal/filter"
	"github.com/strevlab/pipeview/internal/store"
	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
)

// Fetcher retrieves the live graph for a pipeline.
// Satisfied by *client.Client.
type Fetcher interface {
	FetchGraph(ctx context.Context, pipelineID string) (*dag.Graph, []validation.Finding, error)
}

// PipeviewServerDeps holds the dependencies for creating a PipeviewServer.
// Fetcher and Store are each optional; tools that need a missing dependency
// report an error instead.
type PipeviewServerDeps struct {
	Fetcher Fetcher
	Store   store.Store
	Logger  *slog.Logger
}

// PipeviewServer wraps an MCP server with pipeview-specific tool handlers.
type PipeviewServer struct {
	fetcher   Fetcher
	store     store.Store
	validator *validation.GraphValidator
	filters   *filter.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewPipeviewServer creates a new PipeviewServer with all 3 tools registered.
func NewPipeviewServer(deps PipeviewServerDeps) (*PipeviewServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	validator, err := validation.NewGraphValidator()
	if err != nil {
		return nil, fmt.Errorf("initialize graph validator: %w", err)
	}

	s := &PipeviewServer{
		fetcher:   deps.Fetcher,
		store:     deps.Store,
		validator: validator,
		filters:   filter.NewEngine(),
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"pipeview",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Pipeview lays out and renders pipeline DAGs. Use pipeview.layout to get node coordinates and edge states, pipeview.render to produce an SVG/Mermaid/DOT/ASCII diagram, and pipeview.history to list recorded snapshots of a pipeline."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *PipeviewServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *PipeviewServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 3 registered MCP tools as ServerTool entries.
func (s *PipeviewServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: layoutTool(), Handler: s.handleLayout},
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: historyTool(), Handler: s.handleHistory},
	}
}

// --- Tool definitions ---

func layoutTool() mcp.Tool {
	return mcp.NewTool("pipeview.layout",
		mcp.WithDescription("Compute the layered layout of a pipeline DAG: node coordinates, level assignment, edge activity and status styling"),
		mcp.WithString("pipeline_id", mcp.Description("Pipeline to fetch live (requires an API endpoint)")),
		mcp.WithString("snapshot_id", mcp.Description("Stored snapshot to lay out instead of fetching live")),
	)
}

func renderTool() mcp.Tool {
	return mcp.NewTool("pipeview.render",
		mcp.WithDescription("Render a pipeline DAG as a diagram"),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("svg", "mermaid", "dot", "ascii"),
			mcp.Description("Output format"),
		),
		mcp.WithString("pipeline_id", mcp.Description("Pipeline to fetch live")),
		mcp.WithString("snapshot_id", mcp.Description("Stored snapshot to render instead of fetching live")),
		mcp.WithString("highlight", mcp.Description("Expression selecting nodes to highlight, e.g. status == \"FAILED\" (SVG only)")),
		mcp.WithString("job_base_url", mcp.Description("Base URL for node job links (SVG only)")),
	)
}

func historyTool() mcp.Tool {
	return mcp.NewTool("pipeview.history",
		mcp.WithDescription("List recorded snapshots of a pipeline, newest first"),
		mcp.WithString("pipeline_id", mcp.Required(), mcp.Description("Pipeline whose snapshots to list")),
		mcp.WithObject("options", mcp.Description("Listing options (limit, offset)")),
	)
}
