package layout

import "github.com/strevlab/pipeview/pkg/dag"

// Config holds the fixed geometry constants for one layout pass.
// All values are pixel-ish floats consumed by the rendering surface.
type Config struct {
	HSpacing   float64 // horizontal distance between level columns
	VSpacing   float64 // vertical distance between slots within a level
	MarginX    float64 // left margin before the first level
	MarginY    float64 // top margin above the tallest level
	NodeWidth  float64 // rendered node box width
	NodeHeight float64 // rendered node box height
}

// DefaultConfig returns the geometry used by the dashboard's pipeline view.
func DefaultConfig() Config {
	return Config{
		HSpacing:   220,
		VSpacing:   110,
		MarginX:    40,
		MarginY:    40,
		NodeWidth:  160,
		NodeHeight: 64,
	}
}

// Position is the top-left corner of a node's box on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is the full derived geometry for one graph snapshot. It is freshly
// allocated per pass and owned by the caller; nothing here aliases the input.
type Layout struct {
	// Positions maps node ID to its canvas position. One entry per node.
	Positions map[string]Position `json:"positions"`
	// Levels groups node IDs by depth, slot order within each level.
	Levels [][]string `json:"levels"`
	// Edges is the classified, render-ready edge list. Edges with a
	// dangling endpoint are absent.
	Edges []ClassifiedEdge `json:"edges"`
	// Width and Height are the canvas extent for viewport sizing.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Config echoes the geometry constants the pass was computed with,
	// so renderers can size node boxes consistently.
	Config Config `json:"-"`
}

// Compute runs one full layout pass over the snapshot: level assignment,
// slot allocation, coordinate conversion and edge classification.
//
// An empty graph yields empty maps and a zero extent, never an error — there
// is no failure mode here beyond malformed input, all of which degrades
// gracefully (dangling edges dropped, cycles leveled deterministically).
func Compute(g *dag.Graph, cfg Config) *Layout {
	if len(g.Nodes) == 0 {
		return &Layout{
			Positions: map[string]Position{},
			Levels:    [][]string{},
			Edges:     []ClassifiedEdge{},
			Config:    cfg,
		}
	}

	levelOf := AssignLevels(g)

	// Group nodes by level, preserving original node order within a level.
	// Original order is the slot order: stable, never re-sorted.
	maxLevel := 0
	for _, lvl := range levelOf {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	levels := make([][]string, maxLevel+1)
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		lvl := levelOf[id]
		levels[lvl] = append(levels[lvl], id)
	}

	// Tallest level drives the common vertical midline.
	maxCount := 0
	for _, ids := range levels {
		if len(ids) > maxCount {
			maxCount = len(ids)
		}
	}

	positions := make(map[string]Position, len(g.Nodes))
	for lvl, ids := range levels {
		// Center this level's block against the tallest level.
		offset := float64(maxCount-len(ids)) * cfg.VSpacing / 2
		for slot, id := range ids {
			positions[id] = Position{
				X: cfg.MarginX + float64(lvl)*cfg.HSpacing,
				Y: cfg.MarginY + offset + float64(slot)*cfg.VSpacing,
			}
		}
	}

	return &Layout{
		Positions: positions,
		Levels:    levels,
		Edges:     ClassifyEdges(g, positions),
		Width:     cfg.MarginX*2 + float64(maxLevel)*cfg.HSpacing + cfg.NodeWidth,
		Height:    cfg.MarginY*2 + float64(maxCount-1)*cfg.VSpacing + cfg.NodeHeight,
		Config:    cfg,
	}
}
