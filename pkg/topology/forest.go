package topology

import "github.com/depscope/depscope/pkg/model"

// TreeNode is one node of the hierarchical view.
type TreeNode struct {
	ID       string
	Children []*TreeNode
}

// Forest is the synthetic super-root of the hierarchical view. It owns
// one subtree per true root of the graph plus one singleton subtree per
// node the root traversals never reached. Every node of the source
// graph appears in a forest exactly once.
type Forest struct {
	Roots []*TreeNode
}

// Walk visits every node depth-first. depth is 0 for the visible roots.
func (f *Forest) Walk(fn func(n *TreeNode, depth int)) {
	var walk func(n *TreeNode, depth int)
	walk = func(n *TreeNode, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range f.Roots {
		walk(r, 0)
	}
}

// Count returns the total number of nodes across all subtrees.
func (f *Forest) Count() int {
	n := 0
	f.Walk(func(*TreeNode, int) { n++ })
	return n
}

// Leaves returns the number of childless nodes across all subtrees.
func (f *Forest) Leaves() int {
	n := 0
	f.Walk(func(t *TreeNode, _ int) {
		if len(t.Children) == 0 {
			n++
		}
	})
	return n
}

// BuildForest converts a possibly cyclic directed graph into a forest:
//
//  1. In-degree per listed node, from edges alone.
//  2. Children adjacency from the edges; only listed endpoints take
//     part (orphaned endpoints are never traversed).
//  3. Candidate roots are the listed nodes with in-degree 0, in list
//     order. A graph with edges but no such node (a pure cycle) falls
//     back to the first listed node, guaranteeing forward progress.
//  4. Depth-first construction per root with a shared visited set;
//     already-visited children are not re-attached, which both breaks
//     cycles and keeps diamond-shaped reachability from duplicating
//     nodes.
//  5. Nodes left unvisited become singleton subtrees under the
//     super-root, in list order.
func BuildForest(g model.DependencyGraph) *Forest {
	forest := &Forest{Roots: make([]*TreeNode, 0)}
	if len(g.Nodes) == 0 {
		return forest
	}

	listed := g.NodeSet()

	inDegree := make(map[string]int, len(g.Nodes))
	for _, id := range g.Nodes {
		inDegree[id] = 0
	}
	children := make(map[string][]string)
	for _, e := range g.Edges {
		if _, ok := inDegree[e.Target]; ok {
			inDegree[e.Target]++
		}
		if listed[e.Source] && listed[e.Target] {
			children[e.Source] = append(children[e.Source], e.Target)
		}
	}

	var roots []string
	for _, id := range g.Nodes {
		if inDegree[id] == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		roots = []string{g.Nodes[0]}
	}

	visited := make(map[string]bool, len(g.Nodes))
	var build func(id string) *TreeNode
	build = func(id string) *TreeNode {
		visited[id] = true
		node := &TreeNode{ID: id}
		for _, child := range children[id] {
			if !visited[child] {
				node.Children = append(node.Children, build(child))
			}
		}
		return node
	}

	for _, id := range roots {
		if !visited[id] {
			forest.Roots = append(forest.Roots, build(id))
		}
	}

	// Whatever the root traversals missed (disconnected cycles, nodes
	// consumed by another branch's ordering) surfaces as flat leftovers.
	for _, id := range g.Nodes {
		if !visited[id] {
			visited[id] = true
			forest.Roots = append(forest.Roots, &TreeNode{ID: id})
		}
	}

	return forest
}
