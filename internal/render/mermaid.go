package render

import (
	"fmt"
	"strings"

	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/pkg/dag"
)

// Mermaid renders the classified graph as a Mermaid flowchart string.
// Mermaid does its own placement, so this export uses the classified edge
// list (dangling edges already dropped) but not the computed coordinates.
func Mermaid(g *dag.Graph, l *layout.Layout) string {
	var b strings.Builder

	b.WriteString("graph LR\n")

	for i := range g.Nodes {
		n := &g.Nodes[i]
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(&b, "    %s[%q]\n", mermaidSafeID(n.ID), label)
	}

	for _, e := range l.Edges {
		arrow := "-.->"
		if e.Active {
			arrow = "==>"
		}
		fmt.Fprintf(&b, "    %s %s %s\n", mermaidSafeID(e.From), arrow, mermaidSafeID(e.To))
	}

	// Status class definitions.
	b.WriteString("\n")
	b.WriteString("    classDef blocked fill:#4a4a4a,stroke:#333,color:#fff\n")
	b.WriteString("    classDef pending fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")
	b.WriteString("    classDef processing fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef completed fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef failed fill:#8b1a1a,stroke:#5c0e0e,color:#fff\n")
	b.WriteString("    classDef cancelled fill:#b7791a,stroke:#8a5c14,color:#fff\n")

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if cls := mermaidStatusClass(n.Status); cls != "" {
			fmt.Fprintf(&b, "    class %s %s\n", mermaidSafeID(n.ID), cls)
		}
	}

	return b.String()
}

// mermaidSafeID converts a node ID to a Mermaid-safe identifier.
// Replaces dots, dashes and spaces with underscores.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

// mermaidStatusClass maps a node status to a Mermaid class name.
func mermaidStatusClass(st dag.NodeStatus) string {
	switch st {
	case dag.StatusBlocked:
		return "blocked"
	case dag.StatusPending:
		return "pending"
	case dag.StatusProcessing:
		return "processing"
	case dag.StatusCompleted:
		return "completed"
	case dag.StatusFailed:
		return "failed"
	case dag.StatusCancelled:
		return "cancelled"
	}
	return ""
}
