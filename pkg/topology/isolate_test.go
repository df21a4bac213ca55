package topology

import (
	"reflect"
	"testing"

	"github.com/depscope/depscope/pkg/model"
)

func TestFilterIsolated_RemovesUnconnectedNodes(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"a", "b", "c"},
		Edges: []model.Edge{{Source: "a", Target: "b"}},
	}

	got := FilterIsolated(g, true)

	if !reflect.DeepEqual(got.Nodes, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want [a b]", got.Nodes)
	}
	if len(got.Edges) != 1 {
		t.Errorf("expected edges untouched, got %v", got.Edges)
	}
}

func TestFilterIsolated_OffIsIdentity(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"a", "b", "c"},
		Edges: []model.Edge{{Source: "a", Target: "b"}},
	}

	got := FilterIsolated(g, false)

	if !reflect.DeepEqual(got, g) {
		t.Errorf("hide=false should return the graph unchanged, got %v", got)
	}
}

func TestFilterIsolated_PreservesNodeOrder(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"d", "c", "b", "a"},
		Edges: []model.Edge{
			{Source: "a", Target: "d"},
			{Source: "b", Target: "a"},
		},
	}

	got := FilterIsolated(g, true)

	if !reflect.DeepEqual(got.Nodes, []string{"d", "b", "a"}) {
		t.Errorf("nodes = %v, want [d b a]", got.Nodes)
	}
}

func TestFilterIsolated_EdgesNeverRemoved(t *testing.T) {
	// An edge referencing ids outside the node list keeps its listed
	// endpoint visible and survives the filter itself.
	g := model.DependencyGraph{
		Nodes: []string{"a", "b"},
		Edges: []model.Edge{{Source: "a", Target: "ghost"}},
	}

	got := FilterIsolated(g, true)

	if !reflect.DeepEqual(got.Nodes, []string{"a"}) {
		t.Errorf("nodes = %v, want [a]", got.Nodes)
	}
	if len(got.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(got.Edges))
	}
}

func TestFilterIsolated_Empty(t *testing.T) {
	got := FilterIsolated(model.DependencyGraph{}, true)
	if len(got.Nodes) != 0 || len(got.Edges) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}
