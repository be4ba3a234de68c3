package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strevlab/pipeview/pkg/dag"
)

func TestComputeLinearChain(t *testing.T) {
	g := graphOf([]string{"A", "B", "C"}, edge("A", "B"), edge("B", "C"))
	cfg := DefaultConfig()

	l := Compute(g, cfg)

	require.Len(t, l.Positions, 3)
	require.Len(t, l.Levels, 3)
	assert.Equal(t, []string{"A"}, l.Levels[0])
	assert.Equal(t, []string{"B"}, l.Levels[1])
	assert.Equal(t, []string{"C"}, l.Levels[2])

	// One node per level: all share the same midline, x advances by HSpacing.
	assert.Equal(t, cfg.MarginX, l.Positions["A"].X)
	assert.Equal(t, cfg.MarginX+cfg.HSpacing, l.Positions["B"].X)
	assert.Equal(t, cfg.MarginX+2*cfg.HSpacing, l.Positions["C"].X)
	assert.Equal(t, l.Positions["A"].Y, l.Positions["B"].Y)
	assert.Equal(t, l.Positions["B"].Y, l.Positions["C"].Y)
}

func TestComputeDiamondCentering(t *testing.T) {
	g := graphOf([]string{"A", "B", "C", "D"},
		edge("A", "B"), edge("A", "C"), edge("B", "D"), edge("C", "D"))
	cfg := DefaultConfig()

	l := Compute(g, cfg)

	// Level 1 holds the two-node block stacked with VSpacing.
	require.Equal(t, []string{"B", "C"}, l.Levels[1])
	assert.Equal(t, cfg.VSpacing, l.Positions["C"].Y-l.Positions["B"].Y)

	// Single-node levels are centered against the two-node block: their
	// midpoint equals the block's midpoint.
	blockMid := (l.Positions["B"].Y + l.Positions["C"].Y) / 2
	assert.InDelta(t, blockMid, l.Positions["A"].Y, 1e-9)
	assert.InDelta(t, blockMid, l.Positions["D"].Y, 1e-9)
}

func TestComputeCenteringAgainstTallestLevel(t *testing.T) {
	// Level 1 has four nodes, level 0 and 2 have one each.
	g := graphOf([]string{"root", "a", "b", "c", "d", "sink"},
		edge("root", "a"), edge("root", "b"), edge("root", "c"), edge("root", "d"),
		edge("a", "sink"), edge("b", "sink"), edge("c", "sink"), edge("d", "sink"))
	cfg := DefaultConfig()

	l := Compute(g, cfg)

	require.Len(t, l.Levels[1], 4)
	top := l.Positions[l.Levels[1][0]].Y
	bottom := l.Positions[l.Levels[1][3]].Y
	tallestMid := (top + bottom) / 2

	for _, level := range l.Levels {
		first := l.Positions[level[0]].Y
		last := l.Positions[level[len(level)-1]].Y
		assert.InDelta(t, tallestMid, (first+last)/2, 1e-9,
			"every level block shares the tallest level's midline")
	}
}

func TestComputeSlotOrderFollowsNodeOrder(t *testing.T) {
	// z precedes a in the node list, so z takes the first slot even
	// though a sorts first lexically.
	g := graphOf([]string{"root", "z", "a"}, edge("root", "z"), edge("root", "a"))

	l := Compute(g, DefaultConfig())

	require.Equal(t, []string{"z", "a"}, l.Levels[1])
	assert.Less(t, l.Positions["z"].Y, l.Positions["a"].Y)
}

func TestComputeCanvasExtent(t *testing.T) {
	g := graphOf([]string{"A", "B", "C", "D"},
		edge("A", "B"), edge("A", "C"), edge("B", "D"), edge("C", "D"))
	cfg := DefaultConfig()

	l := Compute(g, cfg)

	// 3 levels → 2 column gaps; tallest level has 2 nodes → 1 row gap.
	assert.Equal(t, cfg.MarginX*2+2*cfg.HSpacing+cfg.NodeWidth, l.Width)
	assert.Equal(t, cfg.MarginY*2+cfg.VSpacing+cfg.NodeHeight, l.Height)
}

func TestComputeEmptyGraph(t *testing.T) {
	l := Compute(&dag.Graph{}, DefaultConfig())

	assert.Empty(t, l.Positions)
	assert.Empty(t, l.Levels)
	assert.Empty(t, l.Edges)
	assert.Zero(t, l.Width)
	assert.Zero(t, l.Height)
}

func TestComputeDanglingEdgeExcluded(t *testing.T) {
	g := graphOf([]string{"A"}, edge("A", "Z"))

	l := Compute(g, DefaultConfig())

	require.Len(t, l.Positions, 1)
	assert.Empty(t, l.Edges, "edge to missing node must be absent from output")
}

func TestComputeSelfLoopKept(t *testing.T) {
	g := graphOf([]string{"A"}, edge("A", "A"))

	l := Compute(g, DefaultConfig())

	require.Len(t, l.Edges, 1)
	assert.Equal(t, "A", l.Edges[0].From)
	assert.Equal(t, "A", l.Edges[0].To)
}

func TestComputeDeterministic(t *testing.T) {
	g := graphOf([]string{"A", "B", "C", "D", "E"},
		edge("A", "B"), edge("A", "C"), edge("B", "D"), edge("C", "D"), edge("D", "E"))

	first := Compute(g, DefaultConfig())
	for i := 0; i < 20; i++ {
		next := Compute(g, DefaultConfig())
		require.Equal(t, first.Positions, next.Positions)
		require.Equal(t, first.Levels, next.Levels)
		require.Equal(t, first.Edges, next.Edges)
	}
}

func TestComputeTwoNodeCycle(t *testing.T) {
	g := graphOf([]string{"A", "B"}, edge("A", "B"), edge("B", "A"))

	l := Compute(g, DefaultConfig())

	// Both land on level 0, stacked as slots 0 and 1.
	require.Len(t, l.Levels, 1)
	assert.Equal(t, []string{"A", "B"}, l.Levels[0])
	assert.Len(t, l.Edges, 2, "cycle edges still render, both endpoints placed")
}
