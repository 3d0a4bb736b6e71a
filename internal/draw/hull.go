package draw

import (
	"math"
	"sort"
)

// Hull returns the convex hull of pts in counter-clockwise order using the
// monotone chain algorithm. Duplicate and collinear points are dropped, so
// the result has one point for coincident input and two for collinear input.
func Hull(pts []Point) []Point {
	if len(pts) == 0 {
		return nil
	}
	p := make([]Point, len(pts))
	copy(p, pts)
	sort.Slice(p, func(i, j int) bool {
		if p[i].X == p[j].X {
			return p[i].Y < p[j].Y
		}
		return p[i].X < p[j].X
	})

	uniq := p[:1]
	for _, q := range p[1:] {
		if q != uniq[len(uniq)-1] {
			uniq = append(uniq, q)
		}
	}
	p = uniq
	if len(p) < 3 {
		return p
	}

	hull := make([]Point, 0, 2*len(p))
	for _, q := range p {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	lower := len(hull) + 1
	for i := len(p) - 2; i >= 0; i-- {
		q := p[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], q) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, q)
	}
	return hull[:len(hull)-1]
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Pad grows a hull outward by d so member circles sit inside the region.
// A single point becomes an octagon and a segment becomes a rectangle.
func Pad(hull []Point, d float64) []Point {
	switch len(hull) {
	case 0:
		return nil
	case 1:
		c := hull[0]
		out := make([]Point, 8)
		for i := range out {
			a := float64(i) * math.Pi / 4
			out[i] = Point{c.X + d*math.Cos(a), c.Y + d*math.Sin(a)}
		}
		return out
	case 2:
		a, b := hull[0], hull[1]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		ux, uy := (b.X-a.X)/l*d, (b.Y-a.Y)/l*d
		px, py := -uy, ux
		return []Point{
			{a.X - ux - px, a.Y - uy - py},
			{b.X + ux - px, b.Y + uy - py},
			{b.X + ux + px, b.Y + uy + py},
			{a.X - ux + px, a.Y - uy + py},
		}
	}

	var cx, cy float64
	for _, p := range hull {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(hull))
	cy /= float64(len(hull))

	out := make([]Point, len(hull))
	for i, p := range hull {
		dx, dy := p.X-cx, p.Y-cy
		l := math.Hypot(dx, dy)
		out[i] = Point{p.X + dx/l*d, p.Y + dy/l*d}
	}
	return out
}
