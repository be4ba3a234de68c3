package layout

import "github.com/strevlab/pipeview/pkg/dag"

// ClassifiedEdge is a render-ready edge: both endpoints are guaranteed to
// have positions, and Active carries the flow treatment decision.
type ClassifiedEdge struct {
	dag.Edge
	// Active marks edges whose source has started or finished executing.
	// Active edges get the animated "data flowing downstream" treatment;
	// inactive ones render as static low-opacity connectors.
	Active bool `json:"active"`
}

// ClassifyEdges filters and classifies the snapshot's edges against the
// computed positions. Edges with an endpoint missing from the position map
// (dangling references from the upstream scheduler) are dropped silently —
// a rendering nicety, not a correctness violation worth failing for.
//
// Activity flows forward from the source regardless of the target's own
// status: a PROCESSING or COMPLETED source makes the edge active.
func ClassifyEdges(g *dag.Graph, positions map[string]Position) []ClassifiedEdge {
	statusOf := make(map[string]dag.NodeStatus, len(g.Nodes))
	for i := range g.Nodes {
		statusOf[g.Nodes[i].ID] = g.Nodes[i].Status
	}

	edges := make([]ClassifiedEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := positions[e.From]; !ok {
			continue
		}
		if _, ok := positions[e.To]; !ok {
			continue
		}
		edges = append(edges, ClassifiedEdge{
			Edge:   e,
			Active: statusOf[e.From].Started(),
		})
	}
	return edges
}
