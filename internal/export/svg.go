// Package export renders a layout as an SVG document.
package export

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/graph"
)

const (
	Background = "#0a0a0a"
	NodeFill   = "#00ffff"
	LinkStroke = "#888899"
	GroupFill  = "#ff00ff"
)

type element struct {
	kind  graph.Kind
	id    string
	style draw.Style
	pts   []draw.Point
}

// SVG is a draw.Substrate that keeps one SVG element per drawable and
// serialises the scene on demand.
type SVG struct {
	mu     sync.Mutex
	width  float64
	height float64
	elems  map[draw.Handle]*element
	order  []draw.Handle
}

func NewSVG(width, height float64) *SVG {
	return &SVG{
		width:  width,
		height: height,
		elems:  make(map[draw.Handle]*element),
	}
}

func (s *SVG) Bind(kind graph.Kind, id string) draw.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := draw.Handle(uuid.NewString())
	s.elems[h] = &element{kind: kind, id: id}
	s.order = append(s.order, h)
	return h
}

func (s *SVG) Style(h draw.Handle, st draw.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.elems[h]; ok {
		e.style = st
	}
}

func (s *SVG) Place(h draw.Handle, pts ...draw.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.elems[h]; ok {
		e.pts = append(e.pts[:0], pts...)
	}
}

func (s *SVG) Remove(h draw.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elems[h]; !ok {
		return
	}
	delete(s.elems, h)
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *SVG) Position(h draw.Handle) (draw.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elems[h]
	if !ok || len(e.pts) == 0 {
		return draw.Point{}, false
	}
	return e.pts[0], true
}

func (s *SVG) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.elems)
}

// WriteTo writes the scene as a standalone SVG document. Groups are drawn
// first and nodes last so nodes stay on top. Drawables that have not been
// placed yet are left out.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cw := &countingWriter{w: bufio.NewWriter(w)}
	fmt.Fprintf(cw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, s.width, s.height, s.width, s.height, Background)

	layers := []struct {
		kind  graph.Kind
		class string
	}{
		{graph.KindGroup, "groups"},
		{graph.KindLink, "links"},
		{graph.KindNode, "nodes"},
	}
	for _, layer := range layers {
		fmt.Fprintf(cw, "<g class=%q>\n", layer.class)
		for _, h := range s.order {
			e := s.elems[h]
			if e.kind != layer.kind || len(e.pts) == 0 {
				continue
			}
			s.writeElement(cw, e)
		}
		io.WriteString(cw, "</g>\n")
	}
	io.WriteString(cw, "</svg>\n")

	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

func (s *SVG) writeElement(w io.Writer, e *element) {
	id := html.EscapeString(e.id)
	switch e.kind {
	case graph.KindNode:
		p := e.pts[0]
		fmt.Fprintf(w, `<circle data-id="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="%s" fill-opacity="%.2f" stroke="#ffffff" stroke-width="%.2f"/>
`, id, p.X, p.Y, e.style.Radius, NodeFill, e.style.Opacity, e.style.Width)
	case graph.KindLink:
		if len(e.pts) < 2 {
			return
		}
		a, b := e.pts[0], e.pts[1]
		fmt.Fprintf(w, `<line data-id="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-opacity="%.2f" stroke-width="%.2f"/>
`, id, a.X, a.Y, b.X, b.Y, LinkStroke, e.style.Opacity, e.style.Width)
	case graph.KindGroup:
		fmt.Fprintf(w, `<path data-id="%s" d="%s" fill="%s" fill-opacity="%.2f" stroke="%s" stroke-width="%.2f" stroke-linejoin="round"/>
`, id, pathData(e.pts), GroupFill, e.style.Opacity, GroupFill, e.style.Width)
	}
}

func pathData(pts []draw.Point) string {
	var sb strings.Builder
	for i, p := range pts {
		if i == 0 {
			sb.WriteString("M")
		} else {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.2f,%.2f", p.X, p.Y)
	}
	sb.WriteString(" Z")
	return sb.String()
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
