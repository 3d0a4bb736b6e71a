package viz

import (
	"context"

	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/feed"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/metrics"
	"github.com/san-kum/livegraph/internal/sim"
)

// Stats is what the live view shows beside the canvas.
type Stats struct {
	Frames   int
	Alpha    float64
	Energy   float64
	Running  bool
	Counts   graph.Counts
	Feed     string
	Emitted  int
	Series   []float64
	Drawable int
}

// Frame is one rendered view of the layout.
type Frame struct {
	Canvas string
	Stats  Stats
}

// Session reads frames from a simulation running on a clock.Loop. All
// access to the simulation goes through the loop.
type Session struct {
	loop   *clock.Loop
	sim    *sim.Context
	term   *Terminal
	canvas *Canvas
	feed   *feed.Feed
	trace  *metrics.EnergyTrace
}

// NewSession renders onto a cols x rows character canvas. fd and trace may
// be nil.
func NewSession(loop *clock.Loop, ctx *sim.Context, term *Terminal, fd *feed.Feed, trace *metrics.EnergyTrace, cols, rows int) *Session {
	return &Session{
		loop:   loop,
		sim:    ctx,
		term:   term,
		canvas: NewCanvas(cols, rows),
		feed:   fd,
		trace:  trace,
	}
}

func (s *Session) Frame(ctx context.Context) (Frame, error) {
	var f Frame
	err := s.loop.Do(ctx, func() {
		s.term.Render(s.canvas)
		f.Canvas = s.canvas.String()
		f.Stats = s.stats()
	})
	return f, err
}

func (s *Session) stats() Stats {
	st := Stats{
		Frames:   s.sim.Frames(),
		Alpha:    s.sim.Solver().Alpha(),
		Energy:   s.sim.Solver().Energy(),
		Running:  s.sim.Running(),
		Counts:   s.sim.Graph().Counts(),
		Feed:     "none",
		Drawable: s.term.Len(),
	}
	if s.feed != nil {
		st.Feed = s.feed.State().String()
		st.Emitted = s.feed.Emitted()
	}
	if s.trace != nil {
		st.Series = s.trace.Series()
	}
	return st
}

// Toggle pauses or resumes the frame clock and reports whether it is now
// running. The feed keeps its own schedule.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	var running bool
	err := s.loop.Do(ctx, func() {
		if s.sim.Running() {
			s.sim.Stop()
		} else {
			s.sim.Start()
		}
		running = s.sim.Running()
	})
	return running, err
}
