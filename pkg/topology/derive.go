package topology

import (
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
)

// DisplayGraph derives the graph the user actually sees from the raw
// analyzer output: directory aggregation when directory granularity is
// active, then isolated-node filtering when requested. Degrees, the
// forest, search matching and selection details are all computed from
// the result, never from the raw graph.
func DisplayGraph(raw model.DependencyGraph, byDirectory, hideIsolated bool) model.DependencyGraph {
	logging.Debug("deriving display graph",
		"rawNodes", len(raw.Nodes),
		"rawEdges", len(raw.Edges),
		"byDirectory", byDirectory,
		"hideIsolated", hideIsolated,
	)

	// 1. Granularity branch: collapse files to their directories.
	g := raw
	if byDirectory {
		g = AggregateByDirectory(g)
		logging.Debug("aggregated to directories", "nodes", len(g.Nodes), "edges", len(g.Edges))
	}

	// 2. Isolation branch: drop nodes no edge touches.
	g = FilterIsolated(g, hideIsolated)
	if hideIsolated {
		logging.Debug("filtered isolated nodes", "nodes", len(g.Nodes))
	}

	return g
}
