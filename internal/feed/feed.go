package feed

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/graph"
)

var (
	ErrInvalidConfig = errors.New("feed: invalid config")
	ErrNotIdle       = errors.New("feed: not idle")
)

const (
	DefaultInterval  = time.Second
	DefaultBatchSize = 5
)

type Config struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, BatchSize: DefaultBatchSize}
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidConfig, c.Interval)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	return nil
}

type NodeSink interface{ AddNode(*graph.Node) }
type LinkSink interface{ AddLink(*graph.Link) }
type GroupSink interface{ AddGroup(*graph.Group) }

// Sinks are the mutation entry points elements are dispatched to.
type Sinks struct {
	Nodes  NodeSink
	Links  LinkSink
	Groups GroupSink
}

// Batcher runs fn as one unit of mutation. sim.Context implements it.
type Batcher interface {
	Batch(fn func())
}

type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Hooks receives feed events.
type Hooks interface {
	OnBatch(n int)
	OnExhausted()
}

type NoopHooks struct{}

func (NoopHooks) OnBatch(int)  {}
func (NoopHooks) OnExhausted() {}

type Option func(*Feed)

func WithLogger(l *log.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.log = l
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(f *Feed) {
		if h != nil {
			f.hooks = h
		}
	}
}

type Feed struct {
	src     Source
	sinks   Sinks
	batcher Batcher
	clock   clock.Clock
	cfg     Config
	log     *log.Logger
	hooks   Hooks

	state     State
	cancel    clock.Cancel
	intervals int
	batches   int
	emitted   int
	buf       []graph.Element
}

func New(src Source, sinks Sinks, batcher Batcher, clk clock.Clock, cfg Config, opts ...Option) (*Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || clk == nil || batcher == nil {
		return nil, fmt.Errorf("%w: source, batcher and clock are required", ErrInvalidConfig)
	}
	f := &Feed{
		src:     src,
		sinks:   sinks,
		batcher: batcher,
		clock:   clk,
		cfg:     cfg,
		log:     log.New(io.Discard),
		hooks:   NoopHooks{},
		buf:     make([]graph.Element, 0, cfg.BatchSize),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Feed) State() State   { return f.state }
func (f *Feed) Intervals() int { return f.intervals }
func (f *Feed) Batches() int   { return f.batches }
func (f *Feed) Emitted() int   { return f.emitted }
func (f *Feed) Config() Config { return f.cfg }

// Start arms the interval. It fails unless the feed is idle.
func (f *Feed) Start() error {
	if f.state != Idle {
		return fmt.Errorf("%w: feed is %s", ErrNotIdle, f.state)
	}
	f.state = Running
	f.cancel = f.clock.Every(f.cfg.Interval, f.interval)
	f.log.Debug("feed started", "interval", f.cfg.Interval, "batch", f.cfg.BatchSize)
	return nil
}

// Stop cancels the interval. The feed cannot be started again.
func (f *Feed) Stop() {
	if f.state == Stopped {
		return
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state = Stopped
	if c, ok := f.src.(interface{ Close() }); ok {
		c.Close()
	}
}

func (f *Feed) interval() {
	if f.state != Running {
		return
	}
	f.intervals++

	f.buf = f.buf[:0]
	exhausted := false
	for len(f.buf) < f.cfg.BatchSize {
		e, ok := f.src.Next()
		if !ok {
			exhausted = true
			break
		}
		f.buf = append(f.buf, e)
	}

	if len(f.buf) > 0 {
		f.batcher.Batch(func() {
			for _, e := range f.buf {
				f.dispatch(e)
			}
		})
		f.batches++
		f.emitted += len(f.buf)
		f.hooks.OnBatch(len(f.buf))
		f.log.Debug("feed batch", "elements", len(f.buf), "total", f.emitted)
	}

	if exhausted {
		f.exhaust()
	}
}

func (f *Feed) exhaust() {
	var err error
	if e, ok := f.src.(Errer); ok {
		err = e.Err()
	}
	f.Stop()
	f.hooks.OnExhausted()
	if err != nil {
		f.log.Error("feed source failed", "err", err, "emitted", f.emitted)
		return
	}
	f.log.Info("feed exhausted", "emitted", f.emitted, "batches", f.batches)
}

// Err reports why the source ended, if it ended because of a failure.
func (f *Feed) Err() error {
	if e, ok := f.src.(Errer); ok {
		return e.Err()
	}
	return nil
}

func (f *Feed) dispatch(e graph.Element) {
	switch {
	case e.Kind == graph.KindNode && e.Node != nil && f.sinks.Nodes != nil:
		f.sinks.Nodes.AddNode(e.Node)
	case e.Kind == graph.KindLink && e.Link != nil && f.sinks.Links != nil:
		f.sinks.Links.AddLink(e.Link)
	case e.Kind == graph.KindGroup && e.Group != nil && f.sinks.Groups != nil:
		f.sinks.Groups.AddGroup(e.Group)
	default:
		f.log.Warn("dropping feed element", "element", e.String())
	}
}
