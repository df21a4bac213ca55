package topology

import "github.com/depscope/depscope/pkg/model"

// FilterIsolated removes nodes that appear in no edge. When hide is
// false the input is returned unchanged. Edges are never removed: an
// isolated node by definition has none, so the edge list is already
// consistent with the reduced node set.
func FilterIsolated(g model.DependencyGraph, hide bool) model.DependencyGraph {
	if !hide {
		return g
	}

	connected := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}

	nodes := make([]string, 0, len(g.Nodes))
	for _, id := range g.Nodes {
		if connected[id] {
			nodes = append(nodes, id)
		}
	}

	return model.DependencyGraph{Nodes: nodes, Edges: g.Edges}
}
