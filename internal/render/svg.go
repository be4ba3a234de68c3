// Package render turns a computed layout into presentation artifacts. All
// geometry comes from the layout pass; nothing here re-layouts the graph.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/pkg/dag"
)

// SVGOptions controls the SVG rendering surface.
type SVGOptions struct {
	// JobBaseURL prefixes job-detail links. Nodes carrying a job_id are
	// wrapped in an anchor pointing at JobBaseURL/{job_id}; nodes without
	// one are inert. Empty disables linking entirely.
	JobBaseURL string
	// Highlight dims every node whose ID is absent from the set. A nil
	// map means no filter is applied.
	Highlight map[string]bool
}

// SVG renders the layout as a standalone SVG document. Active edges carry an
// animated dash stroke; the PROCESSING node icon pulses.
func SVG(g *dag.Graph, l *layout.Layout, opts SVGOptions) string {
	var b strings.Builder
	cfg := l.Config

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	b.WriteString(svgStyle)

	// Edges first so node boxes draw over them.
	for _, e := range l.Edges {
		from := l.Positions[e.From]
		to := l.Positions[e.To]
		cls := "edge dormant"
		if e.Active {
			cls = "edge active"
		}
		fmt.Fprintf(&b, `  <line class="%s" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			cls,
			from.X+cfg.NodeWidth, from.Y+cfg.NodeHeight/2,
			to.X, to.Y+cfg.NodeHeight/2)
	}

	for i := range g.Nodes {
		writeSVGNode(&b, &g.Nodes[i], l, opts)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// svgStyle holds the status-independent presentation classes. Status colors
// are inlined per node from the projection table.
const svgStyle = `  <style>
    .edge { stroke-width: 2; fill: none; }
    .edge.dormant { stroke: #4a4a4a; stroke-opacity: 0.35; }
    .edge.active { stroke: #1a5276; stroke-dasharray: 6 4; animation: flow 0.8s linear infinite; }
    .node rect { rx: 8; stroke: #222; }
    .node.dimmed { opacity: 0.3; }
    .node text { font: 13px sans-serif; fill: #fff; }
    .node .status-label { font-size: 11px; fill: #ddd; }
    .node.animated rect { animation: pulse 1.2s ease-in-out infinite; }
    @keyframes flow { to { stroke-dashoffset: -10; } }
    @keyframes pulse { 50% { fill-opacity: 0.65; } }
  </style>
`

func writeSVGNode(b *strings.Builder, n *dag.Node, l *layout.Layout, opts SVGOptions) {
	pos, ok := l.Positions[n.ID]
	if !ok {
		return
	}
	cfg := l.Config
	desc := layout.Project(n.Status)

	classes := "node"
	if desc.Animate {
		classes += " animated"
	}
	if opts.Highlight != nil && !opts.Highlight[n.ID] {
		classes += " dimmed"
	}

	linked := opts.JobBaseURL != "" && n.Navigable()
	if linked {
		fmt.Fprintf(b, `  <a href="%s/%s">`+"\n",
			html.EscapeString(strings.TrimRight(opts.JobBaseURL, "/")),
			html.EscapeString(n.JobID))
	}

	fmt.Fprintf(b, `  <g class="%s" data-node-id="%s" data-icon="%s">`+"\n",
		classes, html.EscapeString(n.ID), desc.Icon)
	fmt.Fprintf(b, `    <rect x="%.1f" y="%.1f" width="%.0f" height="%.0f" fill="%s"/>`+"\n",
		pos.X, pos.Y, cfg.NodeWidth, cfg.NodeHeight, desc.Color)

	label := n.Label
	if label == "" {
		label = n.ID
	}
	fmt.Fprintf(b, `    <text x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n",
		pos.X+cfg.NodeWidth/2, pos.Y+cfg.NodeHeight/2-4, html.EscapeString(label))
	fmt.Fprintf(b, `    <text class="status-label" x="%.1f" y="%.1f" text-anchor="middle" data-label-key="%s">%s</text>`+"\n",
		pos.X+cfg.NodeWidth/2, pos.Y+cfg.NodeHeight/2+14, n.Status.LabelKey(), n.Status)
	b.WriteString("  </g>\n")

	if linked {
		b.WriteString("  </a>\n")
	}
}
