package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/internal/render"
	"github.com/strevlab/pipeview/internal/store"
	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
)

// handleLayout computes the layered layout for a graph and returns it as JSON.
func (s *PipeviewServer) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, findings, source, resolveErr := s.resolveGraph(ctx, req)
	if resolveErr != nil {
		return mcp.NewToolResultError(resolveErr.Error()), nil
	}

	l := layout.Compute(g, layout.DefaultConfig())

	nodes := make([]map[string]any, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		desc := layout.Project(n.Status)
		entry := map[string]any{
			"id":       n.ID,
			"label":    n.Label,
			"status":   n.Status,
			"position": l.Positions[n.ID],
			"icon":     desc.Icon,
			"color":    desc.Color,
			"animate":  desc.Animate,
		}
		if n.JobID != "" {
			entry["job_id"] = n.JobID
		}
		nodes = append(nodes, entry)
	}

	return marshalResult(map[string]any{
		"source":   source,
		"nodes":    nodes,
		"levels":   l.Levels,
		"edges":    l.Edges,
		"width":    l.Width,
		"height":   l.Height,
		"findings": findings,
	})
}

// handleRender produces a diagram in the requested format.
func (s *PipeviewServer) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}

	g, _, _, resolveErr := s.resolveGraph(ctx, req)
	if resolveErr != nil {
		return mcp.NewToolResultError(resolveErr.Error()), nil
	}

	l := layout.Compute(g, layout.DefaultConfig())

	var out string
	switch format {
	case "svg":
		opts := render.SVGOptions{JobBaseURL: req.GetString("job_base_url", "")}
		if expr := req.GetString("highlight", ""); expr != "" {
			matched, matchErr := s.filters.Match(ctx, expr, g, levelIndex(l))
			if matchErr != nil {
				return mcp.NewToolResultError(matchErr.Error()), nil
			}
			opts.Highlight = matched
		}
		out = render.SVG(g, l, opts)
	case "mermaid":
		out = render.Mermaid(g, l)
	case "dot":
		out = render.DOT(g, l)
	case "ascii":
		out = render.ASCII(g, l)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format: %s", format)), nil
	}

	return mcp.NewToolResultText(out), nil
}

// handleHistory lists stored snapshots for a pipeline.
func (s *PipeviewServer) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipelineID, err := req.RequireString("pipeline_id")
	if err != nil {
		return mcp.NewToolResultError("pipeline_id is required"), nil
	}
	if s.store == nil {
		return mcp.NewToolResultError("no snapshot store configured"), nil
	}

	options := mcp.ParseStringMap(req, "options", nil)
	snaps, listErr := s.store.ListSnapshots(ctx, store.SnapshotFilter{
		PipelineID: pipelineID,
		Limit:      extractInt(options, "limit", 20),
		Offset:     extractInt(options, "offset", 0),
	})
	if listErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list snapshots: %v", listErr)), nil
	}

	// Payloads are omitted; agents fetch one via pipeview.layout with snapshot_id.
	entries := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		entries = append(entries, map[string]any{
			"id":          snap.ID,
			"pipeline_id": snap.PipelineID,
			"node_count":  snap.NodeCount,
			"edge_count":  snap.EdgeCount,
			"fingerprint": snap.Fingerprint,
			"created_at":  snap.CreatedAt,
		})
	}

	return marshalResult(map[string]any{
		"pipeline_id": pipelineID,
		"snapshots":   entries,
	})
}

// resolveGraph loads the graph named by the request, either a stored snapshot
// (snapshot_id) or a live fetch (pipeline_id). snapshot_id wins when both are
// given. The returned source string identifies what was loaded.
func (s *PipeviewServer) resolveGraph(ctx context.Context, req mcp.CallToolRequest) (*dag.Graph, []validation.Finding, string, error) {
	if snapshotID := req.GetString("snapshot_id", ""); snapshotID != "" {
		if s.store == nil {
			return nil, nil, "", fmt.Errorf("no snapshot store configured")
		}
		snap, err := s.store.GetSnapshot(ctx, snapshotID)
		if err != nil {
			return nil, nil, "", err
		}
		g, findings, err := s.validator.ValidatePayload(snap.Payload)
		if err != nil {
			return nil, nil, "", fmt.Errorf("snapshot %s holds an invalid payload: %w", snapshotID, err)
		}
		return g, findings, "snapshot:" + snapshotID, nil
	}

	pipelineID := req.GetString("pipeline_id", "")
	if pipelineID == "" {
		return nil, nil, "", fmt.Errorf("either pipeline_id or snapshot_id is required")
	}
	if s.fetcher == nil {
		return nil, nil, "", fmt.Errorf("no API endpoint configured for live fetch")
	}

	g, findings, err := s.fetcher.FetchGraph(ctx, pipelineID)
	if err != nil {
		return nil, nil, "", err
	}
	return g, findings, "pipeline:" + pipelineID, nil
}

// levelIndex flattens layout levels into a node-to-level map for filtering.
func levelIndex(l *layout.Layout) map[string]int {
	levels := make(map[string]int)
	for i, ids := range l.Levels {
		for _, id := range ids {
			levels[id] = i
		}
	}
	return levels
}

// extractInt safely extracts an integer from an options map.
func extractInt(options map[string]any, key string, defaultVal int) int {
	if options == nil {
		return defaultVal
	}
	v, ok := options[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
