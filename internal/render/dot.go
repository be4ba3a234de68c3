package render

import (
	"fmt"
	"strings"

	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/pkg/dag"
)

// DOT renders the layout as Graphviz DOT text with pinned node positions
// (pos="x,y!"), so external tooling draws exactly the computed geometry
// instead of running its own placement.
func DOT(g *dag.Graph, l *layout.Layout) string {
	var b strings.Builder
	cfg := l.Config

	b.WriteString("digraph pipeline {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontcolor=white];\n")

	for i := range g.Nodes {
		n := &g.Nodes[i]
		pos, ok := l.Positions[n.ID]
		if !ok {
			continue
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		desc := layout.Project(n.Status)
		// Graphviz point coordinates grow upward; flip Y so the layout's
		// top-down slots keep their order.
		fmt.Fprintf(&b, "  %q [label=%q, fillcolor=%q, pos=\"%.0f,%.0f!\"];\n",
			n.ID, label, desc.Color,
			pos.X+cfg.NodeWidth/2, l.Height-(pos.Y+cfg.NodeHeight/2))
	}

	for _, e := range l.Edges {
		attrs := "color=\"#4a4a4a\", style=dashed"
		if e.Active {
			attrs = "color=\"#1a5276\", penwidth=2"
		}
		fmt.Fprintf(&b, "  %q -> %q [%s];\n", e.From, e.To, attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
