package dag

// Graph is one immutable snapshot of a pipeline run: the set of steps and the
// dependency edges between them. The layout engine only ever reads a Graph;
// a new snapshot replaces the old one wholesale.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a single pipeline step. Identity is ID; uniqueness within a graph
// is an input invariant supplied by the upstream scheduler, not enforced here.
type Node struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Status    NodeStatus `json:"status"`
	JobID     string     `json:"job_id,omitempty"`
	Processor string     `json:"processor,omitempty"`
}

// Edge is a directed dependency: From must finish before To may start.
// Dangling endpoints are tolerated and skipped at render time.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Navigable reports whether the node links to a job-detail view.
// Nodes without a job ID are inert in the rendered output.
func (n Node) Navigable() bool {
	return n.JobID != ""
}

// NodeByID returns the first node with the given ID, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Predecessors returns, for every node ID present in the graph, the IDs of
// nodes with an edge pointing at it. Edges referencing unknown nodes on either
// end are ignored. Order follows the edge list, so the result is deterministic
// for a given snapshot.
func (g *Graph) Predecessors() map[string][]string {
	known := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		known[g.Nodes[i].ID] = struct{}{}
	}

	preds := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := known[e.From]; !ok {
			continue
		}
		if _, ok := known[e.To]; !ok {
			continue
		}
		preds[e.To] = append(preds[e.To], e.From)
	}
	return preds
}
