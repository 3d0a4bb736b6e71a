package layout

import (
	"math"

	"github.com/san-kum/livegraph/internal/graph"
)

// spring is the resolved form of a link used by the link force.
type spring struct {
	from, to int
	distance float64
	strength float64
	bias     float64
}

// manyBody adds the pairwise repulsion between all nodes to acc. pos and acc
// hold interleaved (x, y) pairs.
func (s *Solver) manyBody(pos, acc []float64, alpha float64) {
	n := len(pos) / 2
	min2 := s.cfg.DistanceMin * s.cfg.DistanceMin
	max2 := s.cfg.DistanceMax * s.cfg.DistanceMax

	for i := 0; i < n; i++ {
		xi, yi := pos[i*2], pos[i*2+1]

		for j := i + 1; j < n; j++ {
			dx := pos[j*2] - xi
			dy := pos[j*2+1] - yi
			l := dx*dx + dy*dy
			if l == 0 {
				dx, dy = s.jiggle(), s.jiggle()
				l = dx*dx + dy*dy
			}
			if max2 > 0 && l >= max2 {
				continue
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}

			w := s.cfg.Charge * alpha / l
			acc[i*2] += dx * w
			acc[i*2+1] += dy * w
			acc[j*2] -= dx * w
			acc[j*2+1] -= dy * w
		}
	}
}

// links adds the spring force of every resolved link to acc.
func (s *Solver) links(pos, acc []float64, alpha float64) {
	for _, sp := range s.springs {
		dx := pos[sp.to*2] - pos[sp.from*2]
		dy := pos[sp.to*2+1] - pos[sp.from*2+1]
		if dx == 0 && dy == 0 {
			dx, dy = s.jiggle(), s.jiggle()
		}
		l := math.Sqrt(dx*dx + dy*dy)
		k := (l - sp.distance) / l * alpha * sp.strength
		dx *= k
		dy *= k

		acc[sp.to*2] -= dx * sp.bias
		acc[sp.to*2+1] -= dy * sp.bias
		acc[sp.from*2] += dx * (1 - sp.bias)
		acc[sp.from*2+1] += dy * (1 - sp.bias)
	}
}

// buildSprings resolves the link set against the node order of this step.
// Links whose endpoints are no longer present are ignored.
func (s *Solver) buildSprings(index map[*graph.Node]int) {
	s.springs = s.springs[:0]
	count := make(map[int]int, len(s.linkSet))

	for _, l := range s.linkSet {
		if !s.attracts(l) {
			continue
		}
		from, okFrom := index[l.From]
		to, okTo := index[l.To]
		if !okFrom || !okTo {
			continue
		}
		count[from]++
		count[to]++
		s.springs = append(s.springs, spring{from: from, to: to, distance: l.Distance})
	}

	for i := range s.springs {
		sp := &s.springs[i]
		cf, ct := float64(count[sp.from]), float64(count[sp.to])
		sp.bias = cf / (cf + ct)
		if s.cfg.LinkStrength > 0 {
			sp.strength = s.cfg.LinkStrength
		} else {
			sp.strength = 1 / math.Min(cf, ct)
		}
	}
}

func (s *Solver) attracts(l *graph.Link) bool {
	if !l.Resolved() {
		return false
	}
	return l.Active || !s.cfg.ActiveOnly
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Solver) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
