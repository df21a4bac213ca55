// Package layout places graph nodes in canvas space. The force mode is
// an iterative simulation built on gonum's layout optimizer; the tree
// mode is a single-pass tidy arrangement of a dependency forest.
package layout

import (
	"math"
	"sort"
	"sync"
	"time"

	gograph "gonum.org/v1/gonum/graph"
	glayout "gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/depscope/depscope/pkg/graph"
	"github.com/depscope/depscope/pkg/logging"
)

// Point is a node position in canvas space.
type Point struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// ForceConfig tunes the force simulation for a given canvas.
type ForceConfig struct {
	Width        float64
	Height       float64
	LinkDistance float64       // rest length of dependency springs
	Charge       float64       // many-body strength, negative repels
	TickInterval time.Duration // wall-clock pacing of the tick loop
	EmitEvery    int           // publish a frame every n ticks
}

// DefaultForceConfig returns the standard tuning for a canvas size.
func DefaultForceConfig(width, height float64) ForceConfig {
	return ForceConfig{
		Width:        width,
		Height:       height,
		LinkDistance: 60,
		Charge:       -180,
		TickInterval: 16 * time.Millisecond,
		EmitEvery:    2,
	}
}

// Simulation runs a force layout on its own goroutine and reports
// positions through the frame callback until the layout settles or
// Stop is called. It starts ticking as soon as it is created.
type Simulation struct {
	opt     glayout.OptimizerR2
	ix      *graph.Index
	cfg     ForceConfig
	onFrame func(points []Point, settled bool)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewForceSimulation builds and starts a simulation over the indexed
// graph. Node radii for collision are derived from the degree map. The
// callback runs on the simulation goroutine; it must not block for
// long or frames will fall behind wall-clock pacing.
func NewForceSimulation(ix *graph.Index, degrees map[string]int, cfg ForceConfig, onFrame func([]Point, bool)) *Simulation {
	maxDegree := 0
	for _, d := range degrees {
		if d > maxDegree {
			maxDegree = d
		}
	}
	radius := make(map[int64]float64, ix.Len())
	for gid, key := range ix.Keys() {
		radius[int64(gid)] = Radius(degrees[key], maxDegree)
	}

	updater := &forceR2{
		cfg:    cfg,
		radius: radius,
		alpha:  1,
	}
	s := &Simulation{
		opt:     glayout.NewOptimizerR2(ix.Graph(), updater.Update),
		ix:      ix,
		cfg:     cfg,
		onFrame: onFrame,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Stop halts the tick loop and waits for it to exit. Safe to call more
// than once; a settled simulation stops immediately.
func (s *Simulation) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Simulation) run() {
	defer close(s.done)

	if s.ix.Len() == 0 {
		s.onFrame([]Point{}, true)
		return
	}
	logging.Debug("force simulation started",
		"nodes", s.ix.Len(),
		"edges", s.ix.Graph().Edges().Len())

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			more := s.opt.Update()
			ticks++
			if !more {
				logging.Debug("force simulation settled", "ticks", ticks)
				s.onFrame(s.snapshot(), true)
				return
			}
			if s.cfg.EmitEvery <= 1 || ticks%s.cfg.EmitEvery == 0 {
				s.onFrame(s.snapshot(), false)
			}
		}
	}
}

func (s *Simulation) snapshot() []Point {
	keys := s.ix.Keys()
	points := make([]Point, len(keys))
	for i, key := range keys {
		c := s.opt.Coord2(int64(i))
		points[i] = Point{ID: key, X: c.X, Y: c.Y}
	}
	return points
}

// Force schedule constants, matching the usual browser-side defaults:
// the cooling schedule reaches alphaMin after roughly 300 ticks and
// velocities lose 40% per tick.
const (
	alphaMin      = 0.001
	alphaDecay    = 0.0228
	velocityDecay = 0.6
	bhTheta       = 0.9
)

type weightedLink struct {
	from, to int64
	weight   float64
}

// forceR2 is an update function for gonum's OptimizerR2. Each call
// advances one tick of a spring / charge / centering / collision
// model and reports whether the layout is still cooling.
type forceR2 struct {
	cfg    ForceConfig
	radius map[int64]float64

	alpha float64

	nodes  []int64
	edges  []weightedLink
	counts map[int64]float64 // incident link weight per node
	vel    map[int64]r2.Vec
}

func (u *forceR2) Update(g gograph.Graph, l glayout.LayoutR2) bool {
	if u.alpha < alphaMin {
		return false
	}
	if !l.IsInitialized() {
		u.init(g)
		u.place(l)
	}
	if len(u.nodes) == 0 {
		return false
	}

	u.alpha += (0 - u.alpha) * alphaDecay

	u.applyLinks(l)
	u.applyCharge(l)
	u.applyCollide(l)
	u.integrate(l)

	return u.alpha >= alphaMin
}

// init caches the node and edge sets in a deterministic order so the
// same graph always produces the same layout.
func (u *forceR2) init(g gograph.Graph) {
	it := g.Nodes()
	u.nodes = make([]int64, 0, it.Len())
	for it.Next() {
		u.nodes = append(u.nodes, it.Node().ID())
	}
	sort.Slice(u.nodes, func(i, j int) bool { return u.nodes[i] < u.nodes[j] })

	weighted, _ := g.(gograph.Weighted)
	eit := g.(interface{ Edges() gograph.Edges }).Edges()
	for eit.Next() {
		e := eit.Edge()
		from, to := e.From().ID(), e.To().ID()
		weight := 1.0
		if weighted != nil {
			if w, ok := weighted.Weight(from, to); ok {
				weight = w
			}
		}
		u.edges = append(u.edges, weightedLink{from: from, to: to, weight: weight})
	}
	sort.Slice(u.edges, func(i, j int) bool {
		if u.edges[i].from != u.edges[j].from {
			return u.edges[i].from < u.edges[j].from
		}
		return u.edges[i].to < u.edges[j].to
	})

	u.counts = make(map[int64]float64, len(u.nodes))
	for _, e := range u.edges {
		u.counts[e.from] += e.weight
		u.counts[e.to] += e.weight
	}
	u.vel = make(map[int64]r2.Vec, len(u.nodes))
}

// place seeds initial positions on a phyllotaxis spiral around the
// canvas center. The arrangement is deterministic and overlap-free
// enough for the first ticks to untangle quickly.
func (u *forceR2) place(l glayout.LayoutR2) {
	center := r2.Vec{X: u.cfg.Width / 2, Y: u.cfg.Height / 2}
	golden := math.Pi * (3 - math.Sqrt(5))
	for i, id := range u.nodes {
		r := 10 * math.Sqrt(0.5+float64(i))
		a := float64(i) * golden
		l.SetCoord2(id, r2.Vec{
			X: center.X + r*math.Cos(a),
			Y: center.Y + r*math.Sin(a),
		})
		u.vel[id] = r2.Vec{}
	}
}

// applyLinks pulls connected nodes toward the configured rest length.
// Spring strength and bias follow incident link counts so hubs move
// less than their leaves.
func (u *forceR2) applyLinks(l glayout.LayoutR2) {
	for _, e := range u.edges {
		cf, ct := u.counts[e.from], u.counts[e.to]
		if cf == 0 || ct == 0 {
			continue
		}
		from := r2.Add(l.Coord2(e.from), u.vel[e.from])
		to := r2.Add(l.Coord2(e.to), u.vel[e.to])
		delta := r2.Sub(to, from)
		dist := math.Hypot(delta.X, delta.Y)
		if dist == 0 {
			continue
		}

		strength := e.weight / math.Min(cf, ct)
		k := (dist - u.cfg.LinkDistance) / dist * u.alpha * strength
		impulse := r2.Vec{X: delta.X * k, Y: delta.Y * k}

		bias := cf / (cf + ct)
		u.vel[e.to] = r2.Sub(u.vel[e.to], r2.Scale(bias, impulse))
		u.vel[e.from] = r2.Add(u.vel[e.from], r2.Scale(1-bias, impulse))
	}
}

type chargeParticle struct {
	pos r2.Vec
}

func (p chargeParticle) Coord2() r2.Vec { return p.pos }
func (p chargeParticle) Mass() float64  { return 1 }

// applyCharge repels every node pair, approximated through a
// Barnes-Hut plane so large graphs stay near n log n per tick.
func (u *forceR2) applyCharge(l glayout.LayoutR2) {
	particles := make([]barneshut.Particle2, len(u.nodes))
	for i, id := range u.nodes {
		particles[i] = chargeParticle{pos: l.Coord2(id)}
	}

	repel := func(p1, p2 barneshut.Particle2, m1, m2 float64, v r2.Vec) r2.Vec {
		d := math.Hypot(v.X, v.Y)
		if d == 0 {
			return r2.Vec{}
		}
		d2 := d * d
		if d2 < 1 {
			d2 = 1
		}
		return r2.Scale(u.cfg.Charge*u.alpha*m2/d2, v)
	}

	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		// Degenerate coordinates; fall back to exact pairwise forces.
		for i, id := range u.nodes {
			var force r2.Vec
			for j, other := range particles {
				if i == j {
					continue
				}
				v := r2.Sub(other.Coord2(), particles[i].Coord2())
				force = r2.Add(force, repel(particles[i], other, 1, 1, v))
			}
			u.vel[id] = r2.Add(u.vel[id], force)
		}
		return
	}
	for i, id := range u.nodes {
		u.vel[id] = r2.Add(u.vel[id], plane.ForceOn(particles[i], bhTheta, repel))
	}
}

// applyCollide separates overlapping nodes using their degree radii. A
// uniform grid keyed by the largest collision diameter keeps the pair
// scan local.
func (u *forceR2) applyCollide(l glayout.LayoutR2) {
	maxR := 0.0
	for _, r := range u.radius {
		if r > maxR {
			maxR = r
		}
	}
	if maxR == 0 {
		return
	}
	cell := 2 * maxR

	predicted := make(map[int64]r2.Vec, len(u.nodes))
	grid := make(map[[2]int][]int64)
	for _, id := range u.nodes {
		p := r2.Add(l.Coord2(id), u.vel[id])
		predicted[id] = p
		key := [2]int{int(math.Floor(p.X / cell)), int(math.Floor(p.Y / cell))}
		grid[key] = append(grid[key], id)
	}

	for _, id := range u.nodes {
		pi := predicted[id]
		ri := u.radius[id]
		home := [2]int{int(math.Floor(pi.X / cell)), int(math.Floor(pi.Y / cell))}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, other := range grid[[2]int{home[0] + dx, home[1] + dy}] {
					if other <= id {
						continue
					}
					pj := predicted[other]
					rj := u.radius[other]
					delta := r2.Sub(pi, pj)
					d := math.Hypot(delta.X, delta.Y)
					sum := ri + rj
					if d >= sum {
						continue
					}
					if d == 0 {
						delta = r2.Vec{X: 1e-6}
						d = 1e-6
					}
					push := r2.Scale((sum-d)/d, delta)
					share := rj * rj / (ri*ri + rj*rj)
					u.vel[id] = r2.Add(u.vel[id], r2.Scale(share, push))
					u.vel[other] = r2.Sub(u.vel[other], r2.Scale(1-share, push))
				}
			}
		}
	}
}

// integrate applies decayed velocities, recenters the cloud on the
// canvas, and clamps every node inside the visible area.
func (u *forceR2) integrate(l glayout.LayoutR2) {
	var centroid r2.Vec
	for _, id := range u.nodes {
		v := r2.Scale(velocityDecay, u.vel[id])
		u.vel[id] = v
		p := r2.Add(l.Coord2(id), v)
		l.SetCoord2(id, p)
		centroid = r2.Add(centroid, p)
	}
	centroid = r2.Scale(1/float64(len(u.nodes)), centroid)

	shift := r2.Vec{X: u.cfg.Width/2 - centroid.X, Y: u.cfg.Height/2 - centroid.Y}
	for _, id := range u.nodes {
		p := r2.Add(l.Coord2(id), shift)
		r := u.radius[id]
		p.X = math.Max(r, math.Min(u.cfg.Width-r, p.X))
		p.Y = math.Max(r, math.Min(u.cfg.Height-r, p.Y))
		l.SetCoord2(id, p)
	}
}
