package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/config"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/env"
	"github.com/san-kum/livegraph/internal/feed"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/metrics"
	"github.com/san-kum/livegraph/internal/sim"
)

const traceCapacity = 120

// app is one assembled layout: the shared graph, the simulation context,
// the drawers on a substrate and the feed, with metrics hooked into both.
type app struct {
	cfg       *config.Config
	log       *log.Logger
	sim       *sim.Context
	set       *draw.Set
	feed      *feed.Feed
	collector *metrics.Collector
	trace     *metrics.EnergyTrace

	closers []func() error
}

// loadSource resolves cfg.Source into an initial snapshot and the feed
// source that continues it.
func loadSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (graph.Snapshot, feed.Source, func() error, error) {
	switch src := cfg.Source; {
	case src == "" || src == "synthetic":
		s := env.Synthetic(cfg.Synthetic.Seed, cfg.Synthetic.Nodes, cfg.Synthetic.Feed)
		seq := feed.FromSeq(s.Feed)
		return s, seq, nil, nil

	case src == "redis":
		client := env.DialRedis(cfg.Redis.Addr)
		rs := env.NewRedisSource(ctx, client, cfg.Redis.Key,
			env.WithTimeout(cfg.RedisTimeout()), env.WithRedisLogger(logger))
		return graph.Snapshot{}, rs, client.Close, nil

	default:
		var (
			s   graph.Snapshot
			err error
		)
		if isSQLite(src) {
			s, err = env.LoadSQLite(ctx, src)
		} else {
			s, err = env.LoadFile(src)
		}
		if err != nil {
			return graph.Snapshot{}, nil, nil, fmt.Errorf("load %s: %w", src, err)
		}
		if s.Feed == nil {
			return s, feed.FromSlice(nil), nil, nil
		}
		return s, feed.FromSeq(s.Feed), nil, nil
	}
}

// newApp wires everything onto sub and clk without starting anything.
// reg may be nil to use the default Prometheus registry.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, sub draw.Substrate, clk clock.Clock, reg prometheus.Registerer) (*app, error) {
	snap, src, closer, err := loadSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	if a.collector, err = metrics.NewCollector(reg); err != nil {
		a.Close()
		return nil, err
	}
	a.trace = metrics.NewEnergyTrace(traceCapacity, 0)

	g, errs := graph.New(snap)
	for _, e := range errs {
		logger.Warn("skipping node", "err", e)
		a.collector.OnWarning(e)
	}

	a.sim, err = sim.New(g, clk, cfg.SimConfig(),
		sim.WithLogger(logger),
		sim.WithHooks(sim.MultiHooks{a.collector, a.trace}))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.set = draw.Attach(a.sim, sub)

	sinks := feed.Sinks{Nodes: a.set, Links: a.set.Links, Groups: a.set.Groups}
	a.feed, err = feed.New(src, sinks, a.sim, clk, cfg.FeedConfig(),
		feed.WithLogger(logger), feed.WithHooks(a))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OnBatch and OnExhausted forward feed events to the collector and keep
// the entity gauges current.
func (a *app) OnBatch(n int) {
	a.collector.OnBatch(n)
	a.collector.SetCounts(a.sim.Graph().Counts())
}

func (a *app) OnExhausted() {
	a.collector.OnExhausted()
	a.collector.SetCounts(a.sim.Graph().Counts())
}

// start arms the frame clock and the feed. It must run on the clock's
// goroutine.
func (a *app) start() error {
	a.sim.Start()
	a.collector.SetCounts(a.sim.Graph().Counts())
	return a.feed.Start()
}

func (a *app) stop() {
	a.feed.Stop()
	a.sim.Stop()
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
