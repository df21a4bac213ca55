// Package graph bridges the wire-level dependency graph and gonum's
// graph types so layout code can work with dense integer ids.
package graph

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/depscope/depscope/pkg/model"
)

// Index maps node id strings to gonum node ids and back. Gonum ids are
// assigned in insertion order, so they double as positions in Keys().
//
// Edges are weighted by multiplicity: feeding the same dependency twice
// doubles its spring strength instead of being lost, which keeps layout
// behaviour faithful to inputs that repeat edges. Self dependencies and
// edges touching unknown ids are dropped; they contribute nothing to a
// layout.
type Index struct {
	g    *simple.WeightedDirectedGraph
	ids  map[string]int64
	keys []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		g:   simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		ids: make(map[string]int64),
	}
}

// BuildIndex indexes every listed node and every edge whose endpoints
// are both listed.
func BuildIndex(dg model.DependencyGraph) *Index {
	ix := NewIndex()
	for _, id := range dg.Nodes {
		ix.Add(id)
	}
	for _, e := range dg.Edges {
		ix.AddEdge(e.Source, e.Target)
	}
	return ix
}

// Add registers a node id and returns its gonum id. Adding an existing
// id is a no-op returning the original assignment.
func (ix *Index) Add(id string) int64 {
	if gid, ok := ix.ids[id]; ok {
		return gid
	}
	gid := int64(len(ix.keys))
	ix.ids[id] = gid
	ix.keys = append(ix.keys, id)
	ix.g.AddNode(simple.Node(gid))
	return gid
}

// AddEdge records a dependency between two known ids. It reports false
// when an endpoint is unknown or the edge is a self dependency.
func (ix *Index) AddEdge(source, target string) bool {
	sid, ok := ix.ids[source]
	if !ok {
		return false
	}
	tid, ok := ix.ids[target]
	if !ok {
		return false
	}
	if sid == tid {
		return false
	}

	weight := 1.0
	if existing := ix.g.WeightedEdge(sid, tid); existing != nil {
		weight = existing.Weight() + 1
	}
	ix.g.SetWeightedEdge(ix.g.NewWeightedEdge(ix.g.Node(sid), ix.g.Node(tid), weight))
	return true
}

// GonumID looks up the gonum id for a node id string.
func (ix *Index) GonumID(id string) (int64, bool) {
	gid, ok := ix.ids[id]
	return gid, ok
}

// Key returns the node id string for a gonum id.
func (ix *Index) Key(gid int64) (string, bool) {
	if gid < 0 || gid >= int64(len(ix.keys)) {
		return "", false
	}
	return ix.keys[gid], true
}

// Keys returns every node id in insertion order. The slice is shared;
// callers must not modify it.
func (ix *Index) Keys() []string {
	return ix.keys
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Graph exposes the underlying gonum graph for traversal and layout.
func (ix *Index) Graph() *simple.WeightedDirectedGraph {
	return ix.g
}
