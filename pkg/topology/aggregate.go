// Package topology derives displayable graph structures from a raw
// file-level dependency graph: directory aggregation, isolated-node
// filtering, degree computation, and forest construction for the
// hierarchical view.
package topology

import (
	"strings"

	"github.com/depscope/depscope/pkg/model"
)

// RootGroup is the directory assigned to node ids that contain no path
// separator (files at the project root).
const RootGroup = "."

// DirectoryOf returns the containing directory of a node id: everything
// before the last '/'. Ids without a separator, and ids whose directory
// part is empty, map to RootGroup.
func DirectoryOf(id string) string {
	if i := strings.LastIndex(id, "/"); i > 0 {
		return id[:i]
	}
	return RootGroup
}

// AggregateByDirectory collapses a file-level graph to directory level.
// Output nodes are the distinct directories of the input nodes in first
// appearance order. Each edge maps both endpoints through DirectoryOf;
// edges that land inside a single directory are dropped, and duplicate
// (sourceDir, targetDir) pairs collapse to the first occurrence. No
// weight or count is retained.
func AggregateByDirectory(g model.DependencyGraph) model.DependencyGraph {
	out := model.NewDependencyGraph()

	seenNodes := make(map[string]bool, len(g.Nodes))
	for _, id := range g.Nodes {
		dir := DirectoryOf(id)
		if !seenNodes[dir] {
			seenNodes[dir] = true
			out.Nodes = append(out.Nodes, dir)
		}
	}

	seenEdges := make(map[model.Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		agg := model.Edge{Source: DirectoryOf(e.Source), Target: DirectoryOf(e.Target)}
		if agg.Source == agg.Target {
			// A dependency within one directory carries no information
			// at this granularity.
			continue
		}
		if seenEdges[agg] {
			continue
		}
		seenEdges[agg] = true
		out.Edges = append(out.Edges, agg)
	}

	return out
}
