package draw

import (
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/layout"
)

// Handle identifies one drawable on a substrate.
type Handle string

type Point struct {
	X, Y float64
}

// Style is the fixed set of visual attributes a drawer sets on enter.
type Style struct {
	Opacity float64
	Width   float64
	Radius  float64
}

// Substrate is the rendering capability the drawers depend on.
type Substrate interface {
	// Bind creates a drawable for the entity of the given kind and id.
	Bind(kind graph.Kind, id string) Handle
	Style(h Handle, s Style)
	// Place sets the geometry in screen coordinates: one point for a node,
	// two for a link, a polygon for a group.
	Place(h Handle, pts ...Point)
	Remove(h Handle)
	// Position reads back where the drawable was last rendered.
	Position(h Handle) (Point, bool)
}

// Host is what the drawers need from the simulation context.
type Host interface {
	Graph() *graph.Graph
	Solver() *layout.Solver
	Restart()
	Warn(err error, keyvals ...interface{})
	Project(x, y float64) (float64, float64)
	Unproject(x, y float64) (float64, float64)
}

const (
	NodeRadius       = 5.0
	StrokeWidth      = 1.5
	ActiveOpacity    = 1.0
	InactiveOpacity  = 0.3
	GroupOpacity     = 0.2
	GroupPadding     = 15.0
	GroupStrokeWidth = 1.0
)

func nodeStyle(*graph.Node) Style {
	return Style{Opacity: 1, Width: StrokeWidth, Radius: NodeRadius}
}

func linkStyle(l *graph.Link) Style {
	if l.Active {
		return Style{Opacity: ActiveOpacity, Width: StrokeWidth}
	}
	return Style{Opacity: InactiveOpacity, Width: StrokeWidth}
}

func groupStyle(*graph.Group) Style {
	return Style{Opacity: GroupOpacity, Width: GroupStrokeWidth}
}
