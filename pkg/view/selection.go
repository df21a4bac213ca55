package view

import "github.com/depscope/depscope/pkg/model"

// Detail describes the direct neighborhood of the selected node as it
// exists in the displayed graph, not the raw file graph.
type Detail struct {
	ID         string   `json:"id"`
	DependsOn  []string `json:"dependsOn"`
	DependedBy []string `json:"dependedBy"`
}

// ResolveSelection collects the outgoing and incoming neighbors of id.
// A nil result means nothing is selected. The slices are never nil so
// the JSON encoding stays an array.
func ResolveSelection(g model.DependencyGraph, id string) *Detail {
	if id == "" {
		return nil
	}
	detail := &Detail{
		ID:         id,
		DependsOn:  []string{},
		DependedBy: []string{},
	}
	for _, e := range g.Edges {
		if e.Source == id {
			detail.DependsOn = append(detail.DependsOn, e.Target)
		}
		if e.Target == id {
			detail.DependedBy = append(detail.DependedBy, e.Source)
		}
	}
	return detail
}
