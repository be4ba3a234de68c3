// Package layout computes a deterministic layered 2-D layout for a pipeline
// graph snapshot: integer depth per node (longest path from the roots, cycle
// tolerant), a vertical slot per node within its depth, Cartesian coordinates
// centered against the tallest level, and per-edge activity classification.
//
// Every pass is a pure function of the Graph snapshot. Nothing is cached
// across passes and nothing in the input is mutated, so identical snapshots
// always produce identical output.
package layout

import "github.com/strevlab/pipeview/pkg/dag"

// cellState tags a node's leveling progress. The in-progress state is what
// makes cyclic input terminate: a back edge into a node that is still being
// resolved contributes nothing instead of recursing forever.
type cellState uint8

const (
	cellUnresolved cellState = iota
	cellInProgress
	cellResolved
)

// cell is one entry in the leveling arena, pre-sized to the node count.
type cell struct {
	state cellState
	level int
}

// leveler carries the working set for one leveling pass.
type leveler struct {
	ids   []string
	index map[string]int // node ID → arena index
	preds map[string][]string
	cells []cell
}

// AssignLevels computes the depth of every node in the graph: 0 for nodes with
// no incoming edges, otherwise 1 + the maximum level among predecessors.
//
// Cycles never raise and never recurse unboundedly. An edge that closes a
// cycle is suppressed from the max on both sides of the back edge, so every
// member of a cycle still receives some finite, deterministic level — not
// necessarily the depth a human would assign, which is acceptable because
// well-formed pipelines are acyclic upstream.
//
// Edges referencing IDs absent from the node list are ignored; such phantom
// endpoints are never leveled. Duplicate node IDs resolve last-write-wins.
func AssignLevels(g *dag.Graph) map[string]int {
	l := &leveler{
		ids:   make([]string, len(g.Nodes)),
		index: make(map[string]int, len(g.Nodes)),
		preds: g.Predecessors(),
		cells: make([]cell, len(g.Nodes)),
	}
	for i := range g.Nodes {
		l.ids[i] = g.Nodes[i].ID
		l.index[g.Nodes[i].ID] = i
	}

	for i := range l.cells {
		l.resolve(i)
	}

	levels := make(map[string]int, len(g.Nodes))
	for i, id := range l.ids {
		levels[id] = l.cells[i].level
	}
	return levels
}

// resolve computes the level of the node at arena index i. It returns the
// resolved level together with the set of still-in-progress ancestors reached
// through i's subtree (the anchors of any cycles found). A caller that appears
// in that set knows the value it just received came back around a cycle
// through itself and must suppress it.
func (l *leveler) resolve(i int) (int, map[int]struct{}) {
	switch l.cells[i].state {
	case cellResolved:
		return l.cells[i].level, nil
	case cellInProgress:
		// Cycle: this node is an ancestor of itself. Contribute the
		// suppressed sentinel and report ourselves as the cycle anchor.
		return -1, map[int]struct{}{i: {}}
	}

	l.cells[i].state = cellInProgress

	maxPred := -1
	var anchors map[int]struct{}
	for _, predID := range l.preds[l.ids[i]] {
		p, ok := l.index[predID]
		if !ok {
			continue
		}
		lvl, predAnchors := l.resolve(p)
		if _, cyclic := predAnchors[i]; cyclic {
			// The predecessor's resolution closed a cycle through this
			// node, so its edge back to us is the cyclic edge: suppress.
			lvl = -1
		}
		if lvl > maxPred {
			maxPred = lvl
		}
		for a := range predAnchors {
			if a == i {
				continue // cycle closed here, do not propagate further up
			}
			if anchors == nil {
				anchors = make(map[int]struct{})
			}
			anchors[a] = struct{}{}
		}
	}

	l.cells[i] = cell{state: cellResolved, level: maxPred + 1}
	return maxPred + 1, anchors
}
