package layout

import (
	"math"
	"testing"
)

func TestRadius_Endpoints(t *testing.T) {
	tests := []struct {
		name      string
		degree    int
		maxDegree int
		want      float64
	}{
		{"zero degree", 0, 10, 4},
		{"max degree", 10, 10, 16},
		{"no connected node", 5, 0, 4},
		{"degree above max clamps", 20, 10, 16},
		{"negative degree", -3, 10, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Radius(tt.degree, tt.maxDegree)
			if got != tt.want {
				t.Errorf("Radius(%d, %d) = %v, want %v", tt.degree, tt.maxDegree, got, tt.want)
			}
		})
	}
}

func TestRadius_SqrtScaleIsMonotonic(t *testing.T) {
	maxDegree := 16
	prev := Radius(0, maxDegree)
	for d := 1; d <= maxDegree; d++ {
		r := Radius(d, maxDegree)
		if r <= prev {
			t.Fatalf("Radius(%d) = %v, not greater than Radius(%d) = %v", d, r, d-1, prev)
		}
		if r < 4 || r > 16 {
			t.Fatalf("Radius(%d) = %v, outside [4,16]", d, r)
		}
		prev = r
	}

	// Square-root shape: a quarter of max degree lands at half the range.
	got := Radius(4, 16)
	want := 4 + 12*math.Sqrt(0.25)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Radius(4, 16) = %v, want %v", got, want)
	}
}
