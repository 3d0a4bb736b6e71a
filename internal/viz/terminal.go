package viz

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/graph"
)

type shape struct {
	kind  graph.Kind
	id    string
	style draw.Style
	pts   []draw.Point
}

// Terminal is a draw.Substrate that keeps drawables in memory and
// rasterises them onto a Braille canvas on demand. Screen coordinates are
// those of the simulation viewport and are scaled to the canvas.
type Terminal struct {
	mu     sync.Mutex
	width  float64
	height float64
	shapes map[draw.Handle]*shape
	order  []draw.Handle
}

func NewTerminal(width, height float64) *Terminal {
	return &Terminal{
		width:  width,
		height: height,
		shapes: make(map[draw.Handle]*shape),
	}
}

func (t *Terminal) Bind(kind graph.Kind, id string) draw.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := draw.Handle(uuid.NewString())
	t.shapes[h] = &shape{kind: kind, id: id}
	t.order = append(t.order, h)
	return h
}

func (t *Terminal) Style(h draw.Handle, s draw.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sh, ok := t.shapes[h]; ok {
		sh.style = s
	}
}

func (t *Terminal) Place(h draw.Handle, pts ...draw.Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sh, ok := t.shapes[h]; ok {
		sh.pts = append(sh.pts[:0], pts...)
	}
}

func (t *Terminal) Remove(h draw.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.shapes[h]; !ok {
		return
	}
	delete(t.shapes, h)
	for i, o := range t.order {
		if o == h {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Terminal) Position(h draw.Handle) (draw.Point, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sh, ok := t.shapes[h]
	if !ok || len(sh.pts) == 0 {
		return draw.Point{}, false
	}
	return sh.pts[0], true
}

// Len returns the number of live drawables.
func (t *Terminal) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.shapes)
}

// Render draws groups, then links, then nodes onto c, so nodes stay on top.
// Inactive links and group outlines are dashed.
func (t *Terminal) Render(c *Canvas) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c.Clear()
	pw, ph := c.Pixels()
	sx, sy := float64(pw)/t.width, float64(ph)/t.height
	scale := math.Min(sx, sy)
	px := func(p draw.Point) (int, int) {
		return int(math.Round(p.X * sx)), int(math.Round(p.Y * sy))
	}

	for _, kind := range []graph.Kind{graph.KindGroup, graph.KindLink, graph.KindNode} {
		for _, h := range t.order {
			sh := t.shapes[h]
			if sh.kind != kind || len(sh.pts) == 0 {
				continue
			}
			switch kind {
			case graph.KindGroup:
				xs, ys := make([]int, len(sh.pts)), make([]int, len(sh.pts))
				for i, p := range sh.pts {
					xs[i], ys[i] = px(p)
				}
				c.DrawPolygon(xs, ys, 3)
			case graph.KindLink:
				if len(sh.pts) < 2 {
					continue
				}
				x0, y0 := px(sh.pts[0])
				x1, y1 := px(sh.pts[1])
				dash := 0
				if sh.style.Opacity < draw.ActiveOpacity {
					dash = 2
				}
				c.DrawLine(x0, y0, x1, y1, dash)
			case graph.KindNode:
				x, y := px(sh.pts[0])
				c.DrawCircle(x, y, int(math.Round(sh.style.Radius*scale)))
			}
		}
	}
}
