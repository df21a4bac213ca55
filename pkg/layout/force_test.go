package layout

import (
	"sync"
	"testing"
	"time"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/model"
)

func testForceConfig() ForceConfig {
	cfg := DefaultForceConfig(800, 600)
	cfg.TickInterval = 200 * time.Microsecond
	cfg.EmitEvery = 1
	return cfg
}

func TestForceSimulation_ZeroNodesEmitsOneEmptyFrame(t *testing.T) {
	ix := graph.BuildIndex(model.DependencyGraph{})

	frames := make(chan []Point, 4)
	settledCh := make(chan bool, 4)
	sim := NewForceSimulation(ix, nil, testForceConfig(), func(points []Point, settled bool) {
		frames <- points
		settledCh <- settled
	})

	select {
	case points := <-frames:
		if len(points) != 0 {
			t.Errorf("empty graph frame has %d points, want 0", len(points))
		}
		if settled := <-settledCh; !settled {
			t.Error("empty graph frame not marked settled")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the empty frame")
	}

	// Stop after natural completion is a no-op.
	sim.Stop()
	sim.Stop()
}

func TestForceSimulation_SettlesWithinBounds(t *testing.T) {
	dg := model.DependencyGraph{
		Nodes: []string{"a", "b", "c"},
		Edges: []model.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
		},
	}
	ix := graph.BuildIndex(dg)
	degrees := map[string]int{"a": 2, "b": 1, "c": 1}

	var mu sync.Mutex
	var last []Point
	done := make(chan struct{})
	cfg := testForceConfig()
	sim := NewForceSimulation(ix, degrees, cfg, func(points []Point, settled bool) {
		mu.Lock()
		last = points
		mu.Unlock()
		if settled {
			close(done)
		}
	})
	defer sim.Stop()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("simulation did not settle")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(last) != 3 {
		t.Fatalf("settled frame has %d points, want 3", len(last))
	}
	for _, p := range last {
		if p.X < 0 || p.X > cfg.Width || p.Y < 0 || p.Y > cfg.Height {
			t.Errorf("node %s at (%v, %v), outside %vx%v canvas", p.ID, p.X, p.Y, cfg.Width, cfg.Height)
		}
	}
	// No two nodes share a coordinate once collision has acted.
	for i := range last {
		for j := i + 1; j < len(last); j++ {
			if last[i].X == last[j].X && last[i].Y == last[j].Y {
				t.Errorf("nodes %s and %s stacked at the same point", last[i].ID, last[j].ID)
			}
		}
	}
}

func TestForceSimulation_StopIsSynchronousAndIdempotent(t *testing.T) {
	dg := model.DependencyGraph{
		Nodes: []string{"a", "b"},
		Edges: []model.Edge{{Source: "a", Target: "b"}},
	}
	ix := graph.BuildIndex(dg)

	var mu sync.Mutex
	frames := 0
	cfg := DefaultForceConfig(800, 600)
	cfg.TickInterval = time.Millisecond
	sim := NewForceSimulation(ix, map[string]int{"a": 1, "b": 1}, cfg, func([]Point, bool) {
		mu.Lock()
		frames++
		mu.Unlock()
	})

	sim.Stop()
	mu.Lock()
	after := frames
	mu.Unlock()

	// Stop has waited for the loop to exit; the count must not move.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	if frames != after {
		t.Errorf("frames advanced from %d to %d after Stop returned", after, frames)
	}
	mu.Unlock()

	sim.Stop()
}
