package layout

import (
	"testing"

	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/topology"
)

func pointByID(t *testing.T, tr *Tree, id string) Point {
	t.Helper()
	for _, p := range tr.Points {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("no point for %q in layout", id)
	return Point{}
}

func TestTreeLayout_EmptyForest(t *testing.T) {
	tr := TreeLayout(&topology.Forest{}, 800, 600)

	if len(tr.Points) != 0 || len(tr.Links) != 0 {
		t.Errorf("empty forest produced %d points, %d links", len(tr.Points), len(tr.Links))
	}
	if tr.Height != 600 {
		t.Errorf("height = %v, want viewport height 600", tr.Height)
	}
}

func TestTreeLayout_LeafRowsNeverOverlap(t *testing.T) {
	// One root fanning out to 40 leaves on a short viewport: the canvas
	// must grow so every leaf keeps its own 22px row.
	g := model.DependencyGraph{Nodes: []string{"root"}}
	for i := 0; i < 40; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		g.Nodes = append(g.Nodes, id)
		g.Edges = append(g.Edges, model.Edge{Source: "root", Target: id})
	}

	tr := TreeLayout(topology.BuildForest(g), 800, 300)

	if want := 40*22 + 2*float64(treeMargin); tr.Height < want {
		t.Errorf("height = %v, want at least %v", tr.Height, want)
	}

	// Leaf rows are strictly increasing in placement order.
	prev := -1.0
	for _, p := range tr.Points {
		if p.ID == "root" {
			continue
		}
		if p.Y <= prev {
			t.Fatalf("leaf %s at y=%v does not clear previous row y=%v", p.ID, p.Y, prev)
		}
		if p.Y-prev < leafPitch && prev >= 0 {
			t.Fatalf("leaf %s row spacing %v, want >= %d", p.ID, p.Y-prev, leafPitch)
		}
		prev = p.Y
	}
}

func TestTreeLayout_ParentsCenteredAndDepthColumns(t *testing.T) {
	//      root
	//     /    \
	//    a      b
	//   / \
	//  c   d
	g := model.DependencyGraph{
		Nodes: []string{"root", "a", "b", "c", "d"},
		Edges: []model.Edge{
			{Source: "root", Target: "a"},
			{Source: "root", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "a", Target: "d"},
		},
	}

	tr := TreeLayout(topology.BuildForest(g), 800, 600)

	if len(tr.Points) != 5 {
		t.Fatalf("points = %d, want 5", len(tr.Points))
	}
	if len(tr.Links) != 4 {
		t.Fatalf("links = %d, want 4", len(tr.Links))
	}

	root := pointByID(t, tr, "root")
	a := pointByID(t, tr, "a")
	b := pointByID(t, tr, "b")
	c := pointByID(t, tr, "c")
	d := pointByID(t, tr, "d")

	if a.Y != (c.Y+d.Y)/2 {
		t.Errorf("a.Y = %v, want centered between c (%v) and d (%v)", a.Y, c.Y, d.Y)
	}
	if root.Y != (a.Y+b.Y)/2 {
		t.Errorf("root.Y = %v, want centered between a (%v) and b (%v)", root.Y, a.Y, b.Y)
	}

	// Depth columns: root < {a,b} < {c,d}, and equal depth shares an x.
	if !(root.X < a.X && a.X < c.X) {
		t.Errorf("x columns out of order: root=%v a=%v c=%v", root.X, a.X, c.X)
	}
	if a.X != b.X || c.X != d.X {
		t.Errorf("siblings at different x: a=%v b=%v c=%v d=%v", a.X, b.X, c.X, d.X)
	}
}

func TestTreeLayout_ForestRootsShareFirstColumn(t *testing.T) {
	g := model.DependencyGraph{
		Nodes: []string{"r1", "r2", "leaf"},
		Edges: []model.Edge{{Source: "r1", Target: "leaf"}},
	}

	tr := TreeLayout(topology.BuildForest(g), 800, 600)

	r1 := pointByID(t, tr, "r1")
	r2 := pointByID(t, tr, "r2")
	if r1.X != r2.X {
		t.Errorf("forest roots at x=%v and x=%v, want one column", r1.X, r2.X)
	}
}
