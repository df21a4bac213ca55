// Package session is the view controller of the topology explorer. It
// owns the raw dependency graph and the view state, re-derives the
// displayed graph on every structural change, drives the layout
// adapters, and publishes render frames to subscribers.
package session

import (
	"sync"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/layout"
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/topology"
	"github.com/depscope/depscope/pkg/view"
)

// FrameNode is one rendered node: identity, color group, sizing, and
// the current search annotation.
type FrameNode struct {
	ID      string  `json:"id"`
	Group   string  `json:"group"`
	Degree  int     `json:"degree"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Matched bool    `json:"matched"`
	Dimmed  bool    `json:"dimmed"`
}

// FrameEdge is one rendered connector. In force mode these are the
// displayed graph's edges; in tree mode they are parent-child links.
type FrameEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Dimmed bool   `json:"dimmed"`
}

// Frame is a complete picture for the viewer: canvas, positions,
// annotations, and the state that produced it.
type Frame struct {
	Seq       int          `json:"seq"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	State     view.State   `json:"state"`
	Nodes     []FrameNode  `json:"nodes"`
	Edges     []FrameEdge  `json:"edges"`
	Selection *view.Detail `json:"selection"`
	Settled   bool         `json:"settled"`
}

// Session coordinates one interactive topology view. All methods are
// safe for concurrent use; only one derivation is in flight at a time
// and a stale force simulation is always stopped before its
// replacement starts.
type Session struct {
	publisher pubsub.Publisher

	mu        sync.Mutex
	raw       model.DependencyGraph
	state     view.State
	width     float64
	height    float64
	displayed model.DependencyGraph
	degrees   map[string]int
	positions map[string]layout.Point
	tree      *layout.Tree // nil in force mode
	settled   bool
	seq       int
	gen       int // invalidates frames from superseded simulations
	sim       *layout.Simulation
	closed    bool
}

// New creates a session over a dependency graph and runs the first
// derivation immediately.
func New(g model.DependencyGraph, publisher pubsub.Publisher, width, height float64) *Session {
	s := &Session{
		publisher: publisher,
		raw:       g.Clone(),
		state:     view.DefaultState(),
		width:     width,
		height:    height,
		positions: make(map[string]layout.Point),
	}
	s.rebuild("mount")
	return s
}

// State returns the current view state.
func (s *Session) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DisplayedGraph returns the aggregated/filtered graph the viewer sees.
func (s *Session) DisplayedGraph() model.DependencyGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayed.Clone()
}

// Selection resolves the selected node's direct neighborhood against
// the displayed graph, or nil when nothing is selected.
func (s *Session) Selection() *view.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.ResolveSelection(s.displayed, s.state.SelectedNodeID)
}

// Frame builds the latest render frame on demand, for viewers that
// poll instead of subscribing. Polling does not advance the frame
// sequence; only published frames do.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// SetMode switches between the force and tree layouts.
func (s *Session) SetMode(m view.Mode) {
	s.transition(func(st view.State) view.State { return st.WithMode(m) })
}

// SetGranularity switches between file and directory nodes.
func (s *Session) SetGranularity(g view.Granularity) {
	s.transition(func(st view.State) view.State { return st.WithGranularity(g) })
}

// ToggleIsolated flips the isolated-node filter.
func (s *Session) ToggleIsolated() {
	s.transition(func(st view.State) view.State { return st.ToggleIsolated() })
}

// ToggleExpanded flips the fullscreen flag.
func (s *Session) ToggleExpanded() {
	s.transition(func(st view.State) view.State { return st.ToggleExpanded() })
}

// Escape collapses an expanded view. Outside fullscreen it is ignored.
func (s *Session) Escape() {
	s.mu.Lock()
	if !s.state.Expanded {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.transition(func(st view.State) view.State { return st.Collapse() })
}

// Search updates the highlight term. An overlay change: the current
// frame is re-annotated and republished without re-deriving layout.
func (s *Session) Search(term string) {
	s.transition(func(st view.State) view.State { return st.WithSearch(term) })
}

// Select toggles node selection. Selecting the already-selected node
// clears it. An overlay change, like Search.
func (s *Session) Select(id string) {
	s.transition(func(st view.State) view.State { return st.ToggleSelection(id) })
}

// Resize records new canvas dimensions and rebuilds the layout.
func (s *Session) Resize(width, height float64) {
	s.mu.Lock()
	if s.closed || (s.width == width && s.height == height) {
		s.mu.Unlock()
		return
	}
	s.width = width
	s.height = height
	s.mu.Unlock()
	s.rebuild("resize")
}

// ReplaceGraph swaps in a freshly analyzed dependency graph and
// rebuilds the full derivation chain.
func (s *Session) ReplaceGraph(g model.DependencyGraph) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = g.Clone()
	s.mu.Unlock()
	s.rebuild("graph replaced")
}

// Close stops the running simulation and marks the session dead.
// Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	stale := s.sim
	s.sim = nil
	s.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}
	logging.Debug("session closed")
}

// transition applies a state change. Structural changes rebuild the
// derivation chain; overlay changes (search, selection) only
// re-annotate and republish the current frame.
func (s *Session) transition(mutate func(view.State) view.State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	before := s.state.Structural()
	s.state = mutate(s.state)
	structural := s.state.Structural() != before
	if !structural {
		frame := s.nextFrameLocked()
		s.mu.Unlock()
		s.publish(frame)
		return
	}
	s.mu.Unlock()
	s.rebuild("state change")
}

// rebuild tears down the previous layout and re-runs the derivation
// chain: aggregation, isolation, then degree+force or forest+tree.
func (s *Session) rebuild(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	stale := s.sim
	s.sim = nil

	displayed := topology.DisplayGraph(s.raw,
		s.state.Granularity == view.GranularityDirectory,
		s.state.HideIsolated,
	)
	s.displayed = displayed
	s.degrees = topology.Degrees(displayed)
	s.positions = make(map[string]layout.Point, len(displayed.Nodes))
	s.tree = nil
	s.settled = false

	// A selection pointing at a node the new view no longer shows is
	// cleared rather than left dangling.
	if id := s.state.SelectedNodeID; id != "" {
		if _, ok := s.degrees[id]; !ok {
			s.state = s.state.ClearSelection()
		}
	}

	mode := s.state.Mode
	width, height := s.width, s.height
	degrees := s.degrees
	s.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}
	logging.Debug("rebuilding view",
		"reason", reason,
		"mode", string(mode),
		"nodes", len(displayed.Nodes),
		"edges", len(displayed.Edges),
	)

	switch mode {
	case view.ModeTree:
		forest := topology.BuildForest(displayed)
		tr := layout.TreeLayout(forest, width, height)

		s.mu.Lock()
		if gen != s.gen || s.closed {
			s.mu.Unlock()
			return
		}
		for _, p := range tr.Points {
			s.positions[p.ID] = p
		}
		s.tree = tr
		s.settled = true
		frame := s.nextFrameLocked()
		s.mu.Unlock()
		s.publish(frame)

	default: // view.ModeForce
		ix := graph.BuildIndex(displayed)
		sim := layout.NewForceSimulation(ix, degrees, layout.DefaultForceConfig(width, height),
			func(points []layout.Point, settled bool) {
				s.mu.Lock()
				if gen != s.gen || s.closed {
					s.mu.Unlock()
					return
				}
				for _, p := range points {
					s.positions[p.ID] = p
				}
				s.settled = settled
				frame := s.nextFrameLocked()
				s.mu.Unlock()
				s.publish(frame)
			})

		s.mu.Lock()
		if gen != s.gen || s.closed {
			s.mu.Unlock()
			sim.Stop()
			return
		}
		s.sim = sim
		s.mu.Unlock()
	}
}

// nextFrameLocked advances the frame sequence and assembles the frame
// to publish. Callers hold s.mu.
func (s *Session) nextFrameLocked() Frame {
	s.seq++
	return s.frameLocked()
}

// frameLocked assembles a frame from the current derivation without
// touching the sequence counter. Callers hold s.mu.
func (s *Session) frameLocked() Frame {
	term := s.state.SearchTerm
	searching := term != ""
	maxDegree := topology.MaxDegree(s.degrees)

	nodes := make([]FrameNode, 0, len(s.displayed.Nodes))
	for _, id := range s.displayed.Nodes {
		matched := view.Matches(id, term)
		p := s.positions[id]
		nodes = append(nodes, FrameNode{
			ID:      id,
			Group:   topology.DirectoryOf(id),
			Degree:  s.degrees[id],
			X:       p.X,
			Y:       p.Y,
			Radius:  layout.Radius(s.degrees[id], maxDegree),
			Matched: matched,
			Dimmed:  searching && !matched,
		})
	}

	// With an active search every edge is dimmed, regardless of its
	// endpoints, so matches stand out over structure.
	var edges []FrameEdge
	if s.tree != nil {
		edges = make([]FrameEdge, 0, len(s.tree.Links))
		for _, l := range s.tree.Links {
			edges = append(edges, FrameEdge{Source: l.Source, Target: l.Target, Dimmed: searching})
		}
	} else {
		listed := make(map[string]bool, len(s.displayed.Nodes))
		for _, id := range s.displayed.Nodes {
			listed[id] = true
		}
		edges = make([]FrameEdge, 0, len(s.displayed.Edges))
		for _, e := range s.displayed.Edges {
			if !listed[e.Source] || !listed[e.Target] {
				continue
			}
			edges = append(edges, FrameEdge{Source: e.Source, Target: e.Target, Dimmed: searching})
		}
	}

	height := s.height
	if s.tree != nil && s.tree.Height > height {
		height = s.tree.Height
	}

	return Frame{
		Seq:       s.seq,
		Width:     s.width,
		Height:    height,
		State:     s.state,
		Nodes:     nodes,
		Edges:     edges,
		Selection: view.ResolveSelection(s.displayed, s.state.SelectedNodeID),
		Settled:   s.settled,
	}
}

func (s *Session) publish(frame Frame) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(pubsub.TopicFrames, "frame", frame); err != nil {
		logging.Warn("failed to publish frame", "error", err)
	}
}
