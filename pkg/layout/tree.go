package layout

import (
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/topology"
)

const (
	// leafPitch is the vertical allowance per leaf. Sibling labels
	// never overlap because every leaf owns a full row.
	leafPitch  = 22
	treeMargin = 24
	// maxColumnStep caps the horizontal spread of shallow forests so a
	// two-level tree does not stretch across the whole canvas.
	maxColumnStep = 180
)

// TreeLink connects a parent to one of its children in the tree view.
type TreeLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Tree is a finished hierarchical layout. Height may exceed the
// requested viewport height; the viewer scrolls instead of squeezing
// rows together.
type Tree struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Points []Point    `json:"points"`
	Links  []TreeLink `json:"links"`
}

// TreeLayout places a dependency forest on a canvas: leaves occupy
// successive rows in depth-first order, each internal node is centered
// on its children, and x grows with depth. The synthetic super-root is
// not drawn; the forest's roots appear as the leftmost column.
func TreeLayout(f *topology.Forest, width, height float64) *Tree {
	t := &Tree{
		Width:  width,
		Points: make([]Point, 0),
		Links:  make([]TreeLink, 0),
	}
	if f == nil || len(f.Roots) == 0 {
		t.Height = height
		return t
	}

	leaves := f.Leaves()
	t.Height = float64(leaves)*leafPitch + 2*treeMargin
	if t.Height < height {
		t.Height = height
	}

	maxDepth := 0
	f.Walk(func(_ *topology.TreeNode, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
	})
	step := float64(maxColumnStep)
	if maxDepth > 0 {
		if s := (width - 2*treeMargin) / float64(maxDepth); s < step {
			step = s
		}
	}

	// Pack all leaf rows first, then derive parent rows bottom-up so a
	// parent sits centered between its first and last descendant rows.
	nextRow := 0
	var place func(n *topology.TreeNode, depth int) float64
	place = func(n *topology.TreeNode, depth int) float64 {
		x := treeMargin + float64(depth)*step
		var y float64
		if len(n.Children) == 0 {
			y = treeMargin + (float64(nextRow)+0.5)*leafPitch
			nextRow++
		} else {
			first := place(n.Children[0], depth+1)
			last := first
			for _, c := range n.Children[1:] {
				last = place(c, depth+1)
			}
			y = (first + last) / 2
		}
		t.Points = append(t.Points, Point{ID: n.ID, X: x, Y: y})
		for _, c := range n.Children {
			t.Links = append(t.Links, TreeLink{Source: n.ID, Target: c.ID})
		}
		return y
	}
	for _, root := range f.Roots {
		place(root, 0)
	}

	logging.Debug("tree layout computed",
		"nodes", len(t.Points),
		"leaves", leaves,
		"maxDepth", maxDepth,
		"height", t.Height,
	)
	return t
}
