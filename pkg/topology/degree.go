package topology

import "github.com/depscope/depscope/pkg/model"

// Degrees computes the merged in+out degree per node: every listed node
// starts at 0 and each edge adds 1 to each of its endpoints. Direction
// is deliberately discarded; the result measures total activity and
// feeds visual sizing only (forest rooting uses pure in-degree instead).
// Endpoints missing from the node list are skipped silently.
func Degrees(g model.DependencyGraph) map[string]int {
	degrees := make(map[string]int, len(g.Nodes))
	for _, id := range g.Nodes {
		degrees[id] = 0
	}
	for _, e := range g.Edges {
		if _, ok := degrees[e.Source]; ok {
			degrees[e.Source]++
		}
		if _, ok := degrees[e.Target]; ok {
			degrees[e.Target]++
		}
	}
	return degrees
}

// MaxDegree returns the largest value in a degree map, or 0 when empty.
func MaxDegree(degrees map[string]int) int {
	max := 0
	for _, d := range degrees {
		if d > max {
			max = d
		}
	}
	return max
}
