package model

// DependencyGraph is the file-level dependency graph produced by the
// analyzer and consumed by the topology pipeline. Nodes are unique
// project-relative file paths; Edges is an ordered list of directed
// "depends on" pairs. Edge endpoints are not required to appear in Nodes:
// orphaned endpoints are tolerated by every downstream computation.
//
// A graph is treated as immutable once built. Derivations (aggregation,
// isolation) always return fresh values and never mutate their input.
type DependencyGraph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Edge is a directed dependency from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NewDependencyGraph creates an empty graph with non-nil slices so it
// marshals as {"nodes":[],"edges":[]} rather than nulls.
func NewDependencyGraph() DependencyGraph {
	return DependencyGraph{
		Nodes: make([]string, 0),
		Edges: make([]Edge, 0),
	}
}

// NodeSet returns the node list as a membership map.
func (g DependencyGraph) NodeSet() map[string]bool {
	set := make(map[string]bool, len(g.Nodes))
	for _, id := range g.Nodes {
		set[id] = true
	}
	return set
}

// Clone returns a deep copy. Callers that hand a graph to a long-lived
// session use this to decouple it from the producer's slices.
func (g DependencyGraph) Clone() DependencyGraph {
	out := DependencyGraph{
		Nodes: make([]string, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}
