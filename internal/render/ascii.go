package render

import (
	"fmt"
	"strings"

	"github.com/strevlab/pipeview/internal/layout"
	"github.com/strevlab/pipeview/pkg/dag"
)

// statusTag returns a short ASCII indicator for a node status.
func statusTag(st dag.NodeStatus) string {
	switch st {
	case dag.StatusBlocked:
		return "[BLK]"
	case dag.StatusPending:
		return "[PEND]"
	case dag.StatusProcessing:
		return "[RUN]"
	case dag.StatusCompleted:
		return "[OK]"
	case dag.StatusFailed:
		return "[FAIL]"
	case dag.StatusCancelled:
		return "[CNCL]"
	}
	return ""
}

// ASCII renders the layout as a text diagram: one column of boxes per level,
// printed level by level with box-drawing characters. Useful for terminals
// and log output.
func ASCII(g *dag.Graph, l *layout.Layout) string {
	var b strings.Builder

	for levelIdx, level := range l.Levels {
		var boxes []asciiBox
		for _, id := range level {
			n := g.NodeByID(id)
			if n == nil {
				continue
			}
			boxes = append(boxes, makeBox(n))
		}

		renderBoxRow(&b, boxes)

		if levelIdx < len(l.Levels)-1 {
			b.WriteString("       │\n")
			b.WriteString("       ▼\n")
		}
	}

	if len(l.Edges) > 0 {
		b.WriteString("\n")
		for _, e := range l.Edges {
			marker := "─→"
			if e.Active {
				marker = "═▶"
			}
			fmt.Fprintf(&b, "  %s %s %s\n", e.From, marker, e.To)
		}
	}

	return b.String()
}

// asciiBox holds the rendered lines of a single box.
type asciiBox struct {
	lines []string
	width int
}

// makeBox creates an ASCII box for a node.
func makeBox(n *dag.Node) asciiBox {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	contentLines := []string{label}
	if tag := statusTag(n.Status); tag != "" {
		contentLines = append(contentLines, tag)
	}

	maxLen := 0
	for _, line := range contentLines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}
	width := maxLen + 4 // 2 border + 2 padding

	var lines []string
	lines = append(lines, "┌"+strings.Repeat("─", width-2)+"┐")
	for _, content := range contentLines {
		padded := content + strings.Repeat(" ", maxLen-len(content))
		lines = append(lines, "│ "+padded+" │")
	}
	lines = append(lines, "└"+strings.Repeat("─", width-2)+"┘")

	return asciiBox{lines: lines, width: width}
}

// renderBoxRow writes boxes side by side.
func renderBoxRow(b *strings.Builder, boxes []asciiBox) {
	if len(boxes) == 0 {
		return
	}

	maxHeight := 0
	for _, box := range boxes {
		if len(box.lines) > maxHeight {
			maxHeight = len(box.lines)
		}
	}

	for row := 0; row < maxHeight; row++ {
		for i, box := range boxes {
			if i > 0 {
				b.WriteString("  ")
			}
			if row < len(box.lines) {
				b.WriteString(box.lines[row])
			} else {
				b.WriteString(strings.Repeat(" ", box.width))
			}
		}
		b.WriteByte('\n')
	}
}
