package view

import (
	"reflect"
	"testing"

	"github.com/depscope/depscope/pkg/model"
)

func TestResolveSelection(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"a", "b", "c", "d"},
		Edges: []model.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "d", Target: "a"},
			{Source: "b", Target: "c"},
		},
	}

	detail := ResolveSelection(g, "a")
	if detail == nil {
		t.Fatal("expected a detail for a selected node")
	}
	if detail.ID != "a" {
		t.Errorf("id = %s, want a", detail.ID)
	}
	if !reflect.DeepEqual(detail.DependsOn, []string{"b", "c"}) {
		t.Errorf("dependsOn = %v, want [b c]", detail.DependsOn)
	}
	if !reflect.DeepEqual(detail.DependedBy, []string{"d"}) {
		t.Errorf("dependedBy = %v, want [d]", detail.DependedBy)
	}
}

func TestResolveSelection_EmptyIDMeansNoSelection(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"a"},
		Edges: []model.Edge{{Source: "a", Target: "a"}},
	}
	if detail := ResolveSelection(g, ""); detail != nil {
		t.Errorf("expected nil detail, got %+v", detail)
	}
}

func TestResolveSelection_NoNeighborsYieldsEmptySlices(t *testing.T) {
	g := model.DependencyGraph{Nodes: []string{"a", "b"}}

	detail := ResolveSelection(g, "a")
	if detail == nil {
		t.Fatal("expected a detail for a selected node")
	}
	if detail.DependsOn == nil || detail.DependedBy == nil {
		t.Errorf("neighbor slices must be non-nil: %+v", detail)
	}
	if len(detail.DependsOn) != 0 || len(detail.DependedBy) != 0 {
		t.Errorf("expected no neighbors, got %+v", detail)
	}
}

func TestResolveSelection_Symmetry(t *testing.T) {
	// If a depends on b, then b is depended on by a.
	g := model.DependencyGraph{
		Nodes: []string{"a", "b"},
		Edges: []model.Edge{{Source: "a", Target: "b"}},
	}

	from := ResolveSelection(g, "a")
	to := ResolveSelection(g, "b")

	if len(from.DependsOn) != 1 || from.DependsOn[0] != "b" {
		t.Errorf("a.dependsOn = %v, want [b]", from.DependsOn)
	}
	if len(to.DependedBy) != 1 || to.DependedBy[0] != "a" {
		t.Errorf("b.dependedBy = %v, want [a]", to.DependedBy)
	}
}

func TestResolveSelection_SelfDependency(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"a"},
		Edges: []model.Edge{{Source: "a", Target: "a"}},
	}

	detail := ResolveSelection(g, "a")

	if !reflect.DeepEqual(detail.DependsOn, []string{"a"}) {
		t.Errorf("dependsOn = %v, want [a]", detail.DependsOn)
	}
	if !reflect.DeepEqual(detail.DependedBy, []string{"a"}) {
		t.Errorf("dependedBy = %v, want [a]", detail.DependedBy)
	}
}
