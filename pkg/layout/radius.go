package layout

import "math"

const (
	minNodeRadius = 4
	maxNodeRadius = 16
)

// Radius maps a node degree onto its display and collision radius. The
// scale is square-root so node area, not diameter, tracks connectivity;
// a graph with no connected node renders everything at the minimum.
func Radius(degree, maxDegree int) float64 {
	if maxDegree <= 0 || degree <= 0 {
		return minNodeRadius
	}
	if degree > maxDegree {
		degree = maxDegree
	}
	return minNodeRadius + (maxNodeRadius-minNodeRadius)*math.Sqrt(float64(degree)/float64(maxDegree))
}
