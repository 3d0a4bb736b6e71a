package layout

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/livegraph/internal/graph"
)

// Solver steps node positions of a graph. It is not safe for concurrent use.
type Solver struct {
	g   *graph.Graph
	cfg Config
	rng *rand.Rand

	alpha    float64
	running  bool
	restarts int
	steps    int

	linkSet []*graph.Link
	springs []spring

	index  map[*graph.Node]int
	placed map[*graph.Node]struct{}
	pos    []float64
	next   []float64
	acc    []float64
	accN   []float64
}

func New(g *graph.Graph, cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := uint64(cfg.Seed)
	return &Solver{
		g:       g,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		alpha:   1,
		running: true,
		index:   make(map[*graph.Node]int),
		placed:  make(map[*graph.Node]struct{}),
	}, nil
}

func (s *Solver) Config() Config { return s.cfg }
func (s *Solver) Alpha() float64 { return s.alpha }
func (s *Solver) Running() bool  { return s.running }
func (s *Solver) Restarts() int  { return s.restarts }
func (s *Solver) Steps() int     { return s.steps }

// SetLinks replaces the link set used by the spring force. Links meeting the
// solver for the first time get their rest length drawn here and keep it.
func (s *Solver) SetLinks(links []*graph.Link) {
	s.linkSet = links
	for _, l := range links {
		if l.Distance == 0 {
			l.Distance = s.cfg.LinkDistance + s.cfg.LinkJitter*s.rng.Float64()
		}
	}
}

// Restart resets alpha to its maximum and resumes stepping.
func (s *Solver) Restart() {
	s.alpha = 1
	s.running = true
	s.restarts++
}

// Stop halts stepping until the next Restart.
func (s *Solver) Stop() {
	s.running = false
}

// Place puts nodes the solver has not seen yet on a phyllotaxis spiral,
// which keeps initial positions distinct without randomness. Nodes that
// already carry a position or a pin keep it.
func (s *Solver) Place() {
	const radius = 10.0
	angle := math.Pi * (3 - math.Sqrt(5))
	for i, n := range s.g.Nodes {
		if _, ok := s.placed[n]; ok {
			continue
		}
		s.placed[n] = struct{}{}
		if n.X != 0 || n.Y != 0 || pinned(n) {
			continue
		}
		r := radius * math.Sqrt(0.5+float64(i))
		a := float64(i) * angle
		n.X = r * math.Cos(a)
		n.Y = r * math.Sin(a)
	}
}

// Step advances the layout by one velocity-Verlet step. It reports whether
// a step was taken.
func (s *Solver) Step() bool {
	if !s.running {
		return false
	}
	s.alpha += (s.cfg.AlphaTarget - s.alpha) * s.cfg.AlphaDecay
	s.Place()

	nodes := s.g.Nodes
	n := len(nodes)
	s.ensureScratch(n)

	clear(s.index)
	for i, nd := range nodes {
		s.index[nd] = i
		if pinned(nd) {
			s.pos[i*2], s.pos[i*2+1] = *nd.Fx, *nd.Fy
		} else {
			s.pos[i*2], s.pos[i*2+1] = nd.X, nd.Y
		}
	}
	s.buildSprings(s.index)

	dt := s.cfg.Dt
	dt2 := dt * dt
	s.accelerate(s.pos, s.acc)

	for i, nd := range nodes {
		if pinned(nd) {
			s.next[i*2], s.next[i*2+1] = s.pos[i*2], s.pos[i*2+1]
			continue
		}
		s.next[i*2] = s.pos[i*2] + nd.VX*dt + 0.5*s.acc[i*2]*dt2
		s.next[i*2+1] = s.pos[i*2+1] + nd.VY*dt + 0.5*s.acc[i*2+1]*dt2
	}

	s.accelerate(s.next, s.accN)

	halfDt := 0.5 * dt
	keep := 1 - s.cfg.VelocityDecay
	for i, nd := range nodes {
		if pinned(nd) {
			nd.X, nd.Y = *nd.Fx, *nd.Fy
			nd.VX, nd.VY = 0, 0
			continue
		}
		vx := (nd.VX + (s.acc[i*2]+s.accN[i*2])*halfDt) * keep
		vy := (nd.VY + (s.acc[i*2+1]+s.accN[i*2+1])*halfDt) * keep
		x, y := s.next[i*2], s.next[i*2+1]
		if !finite(x, y, vx, vy) {
			nd.VX, nd.VY = 0, 0
			continue
		}
		nd.X, nd.Y = x, y
		nd.VX, nd.VY = vx, vy
	}

	s.steps++
	if s.alpha < s.cfg.AlphaMin {
		s.running = false
	}
	return true
}

func (s *Solver) accelerate(pos, acc []float64) {
	clear(acc)
	s.manyBody(pos, acc, s.alpha)
	s.links(pos, acc, s.alpha)
}

func (s *Solver) ensureScratch(n int) {
	if len(s.pos) != n*2 {
		s.pos = make([]float64, n*2)
		s.next = make([]float64, n*2)
		s.acc = make([]float64, n*2)
		s.accN = make([]float64, n*2)
	}
}

// Energy returns the kinetic energy of the layout, treating every node as
// unit mass.
func (s *Solver) Energy() float64 {
	e := 0.0
	for _, n := range s.g.Nodes {
		e += 0.5 * (n.VX*n.VX + n.VY*n.VY)
	}
	return e
}

// pinned reports whether nd holds a usable pin. A pin at a non-finite
// position is ignored and the node moves freely.
func pinned(nd *graph.Node) bool {
	return nd.Pinned() && finite(*nd.Fx, *nd.Fy)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
