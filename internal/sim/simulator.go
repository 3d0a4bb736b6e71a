package sim

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/layout"
)

// Context owns the layout solver, the frame clock and the ticker and
// starter registries. It also owns the shared graph every participant
// reads and mutates.
type Context struct {
	g      *graph.Graph
	solver *layout.Solver
	clock  clock.Clock
	cfg    Config
	log    *log.Logger
	hooks  Hooks

	tickers  []Ticker
	starters []Starter

	cancel   clock.Cancel
	started  bool
	frames   int
	batching int
	pending  bool
}

type Option func(*Context)

func WithLogger(l *log.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(c *Context) {
		if h != nil {
			c.hooks = h
		}
	}
}

func New(g *graph.Graph, clk clock.Clock, cfg Config, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g == nil || clk == nil {
		return nil, fmt.Errorf("sim: graph and clock are required")
	}
	solver, err := layout.New(g, cfg.Layout)
	if err != nil {
		return nil, err
	}
	c := &Context{
		g:      g,
		solver: solver,
		clock:  clk,
		cfg:    cfg,
		log:    log.Default(),
		hooks:  NoopHooks{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Context) AddTicker(t Ticker)   { c.tickers = append(c.tickers, t) }
func (c *Context) AddStarter(s Starter) { c.starters = append(c.starters, s) }

// Add registers p as both ticker and starter.
func (c *Context) Add(p Participant) {
	c.AddTicker(p)
	c.AddStarter(p)
}

func (c *Context) Graph() *graph.Graph    { return c.g }
func (c *Context) Solver() *layout.Solver { return c.solver }
func (c *Context) Logger() *log.Logger    { return c.log }
func (c *Context) Viewport() Viewport     { return c.cfg.Viewport }
func (c *Context) Frames() int            { return c.frames }
func (c *Context) Running() bool          { return c.cancel != nil }

// Start places the initial nodes, runs every starter in registration order
// and arms the frame clock. Calling it again only re-arms a stopped clock.
func (c *Context) Start() {
	if c.cancel != nil {
		return
	}
	if !c.started {
		c.started = true
		c.solver.Place()
		for _, s := range c.starters {
			s.Start()
		}
	}
	c.cancel = c.clock.Every(c.cfg.Frame, c.Frame)
	c.log.Debug("simulation started", "starters", len(c.starters), "tickers", len(c.tickers), "frame", c.cfg.Frame)
}

// Stop cancels the frame clock. Ticks already running complete.
func (c *Context) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.log.Debug("simulation stopped", "frames", c.frames)
}

// Frame steps the solver once and then calls every ticker in registration
// order. Nothing happens while the solver is at rest.
func (c *Context) Frame() {
	if !c.solver.Step() {
		return
	}
	for _, t := range c.tickers {
		c.tick(t)
	}
	c.frames++
	c.hooks.OnFrame(c.solver.Alpha(), c.solver.Energy())
}

func (c *Context) tick(t Ticker) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("sim: ticker %T panicked: %v", t, r)
			c.log.Error("tick failed", "ticker", fmt.Sprintf("%T", t), "err", r)
			c.hooks.OnWarning(err)
		}
	}()
	t.Tick()
}

// Restart resets the solver to full energy. Inside Batch the request is
// deferred and merged with any others made in the same batch.
func (c *Context) Restart() {
	if c.batching > 0 {
		c.pending = true
		return
	}
	c.solver.Restart()
	c.hooks.OnRestart()
}

// Batch runs fn and issues at most one solver restart when the outermost
// batch returns.
func (c *Context) Batch(fn func()) {
	c.batching++
	defer func() {
		c.batching--
		if c.batching == 0 && c.pending {
			c.pending = false
			c.Restart()
		}
	}()
	fn()
}

// Warn reports a non-fatal problem such as a data-consistency error.
func (c *Context) Warn(err error, keyvals ...interface{}) {
	c.log.Warn(err.Error(), keyvals...)
	c.hooks.OnWarning(err)
}

// Project maps layout coordinates to screen coordinates, with the layout
// origin at the centre of the viewport.
func (c *Context) Project(x, y float64) (float64, float64) {
	return x + c.cfg.Viewport.Width/2, y + c.cfg.Viewport.Height/2
}

func (c *Context) Unproject(x, y float64) (float64, float64) {
	return x - c.cfg.Viewport.Width/2, y - c.cfg.Viewport.Height/2
}
