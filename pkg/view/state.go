// Package view models the interactive state of the graph display and the
// pure helpers that interpret user intent against the displayed graph.
package view

import "fmt"

// Mode selects the layout family used to place nodes.
type Mode string

const (
	ModeForce Mode = "force"
	ModeTree  Mode = "tree"
)

// ParseMode validates a wire-level mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeForce, ModeTree:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Granularity selects whether nodes are files or their directories.
type Granularity string

const (
	GranularityFile      Granularity = "file"
	GranularityDirectory Granularity = "directory"
)

// ParseGranularity validates a wire-level granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityFile, GranularityDirectory:
		return Granularity(s), nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// State is the complete description of what the viewer is looking at.
// It is a plain value: transitions return a modified copy, so a State
// handed to another goroutine never changes underneath it.
type State struct {
	Mode           Mode        `json:"viewMode"`
	Granularity    Granularity `json:"granularity"`
	Expanded       bool        `json:"expanded"`
	HideIsolated   bool        `json:"hideIsolated"`
	SearchTerm     string      `json:"searchTerm"`
	SelectedNodeID string      `json:"selectedNodeId,omitempty"`
}

// DefaultState is the view shown before any interaction.
func DefaultState() State {
	return State{Mode: ModeForce, Granularity: GranularityFile}
}

// WithMode returns a copy displaying the given layout mode.
func (s State) WithMode(m Mode) State {
	s.Mode = m
	return s
}

// WithGranularity returns a copy displaying the given granularity.
func (s State) WithGranularity(g Granularity) State {
	s.Granularity = g
	return s
}

// ToggleIsolated returns a copy with the isolated-node filter flipped.
func (s State) ToggleIsolated() State {
	s.HideIsolated = !s.HideIsolated
	return s
}

// ToggleExpanded returns a copy with the expanded canvas flag flipped.
func (s State) ToggleExpanded() State {
	s.Expanded = !s.Expanded
	return s
}

// Collapse returns a copy with the expanded canvas flag cleared.
func (s State) Collapse() State {
	s.Expanded = false
	return s
}

// WithSearch returns a copy highlighting nodes that match term.
func (s State) WithSearch(term string) State {
	s.SearchTerm = term
	return s
}

// ToggleSelection returns a copy where clicking the same node twice
// clears the selection and clicking a different node moves it.
func (s State) ToggleSelection(id string) State {
	if s.SelectedNodeID == id {
		s.SelectedNodeID = ""
	} else {
		s.SelectedNodeID = id
	}
	return s
}

// ClearSelection returns a copy with no node selected.
func (s State) ClearSelection() State {
	s.SelectedNodeID = ""
	return s
}

// StructuralKey captures the fields whose change forces a layout
// rebuild. Search and selection are overlays and deliberately absent.
type StructuralKey struct {
	Mode         Mode
	Granularity  Granularity
	Expanded     bool
	HideIsolated bool
}

// Structural extracts the rebuild-relevant part of the state.
func (s State) Structural() StructuralKey {
	return StructuralKey{
		Mode:         s.Mode,
		Granularity:  s.Granularity,
		Expanded:     s.Expanded,
		HideIsolated: s.HideIsolated,
	}
}
