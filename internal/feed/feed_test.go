package feed_test

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/feed"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/sim"
)

// recorder is a Batcher and all three sinks at once.
type recorder struct {
	batches  int
	inBatch  bool
	outside  int
	added    []string
	perBatch []int
	current  int
}

func (r *recorder) Batch(fn func()) {
	r.batches++
	r.inBatch = true
	r.current = 0
	fn()
	r.inBatch = false
	r.perBatch = append(r.perBatch, r.current)
}

func (r *recorder) add(s string) {
	if !r.inBatch {
		r.outside++
	}
	r.current++
	r.added = append(r.added, s)
}

func (r *recorder) AddNode(n *graph.Node)   { r.add("node " + n.ID) }
func (r *recorder) AddLink(l *graph.Link)   { r.add("link " + l.String()) }
func (r *recorder) AddGroup(g *graph.Group) { r.add("group " + g.ID) }

func (r *recorder) sinks() feed.Sinks {
	return feed.Sinks{Nodes: r, Links: r, Groups: r}
}

type hooks struct {
	batches   []int
	exhausted int
}

func (h *hooks) OnBatch(n int) { h.batches = append(h.batches, n) }
func (h *hooks) OnExhausted()  { h.exhausted++ }

type failing struct {
	feed.Source
	err error
}

func (f failing) Err() error { return f.err }

func nodeElements(n int) []graph.Element {
	out := make([]graph.Element, n)
	for i := range out {
		out[i] = graph.NodeElement(graph.NewNode(fmt.Sprintf("n%d", i)))
	}
	return out
}

var _ = Describe("Feed", func() {
	const interval = time.Second

	var (
		clk *clock.Manual
		rec *recorder
		hk  *hooks
	)

	BeforeEach(func() {
		clk = clock.NewManual()
		rec = &recorder{}
		hk = &hooks{}
	})

	newFeed := func(src feed.Source, batch int) *feed.Feed {
		f, err := feed.New(src, rec.sinks(), rec, clk,
			feed.Config{Interval: interval, BatchSize: batch},
			feed.WithHooks(hk), feed.WithLogger(log.New(io.Discard)))
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	Describe("configuration", func() {
		DescribeTable("rejects invalid settings",
			func(cfg feed.Config) {
				_, err := feed.New(feed.FromSlice(nil), rec.sinks(), rec, clk, cfg)
				Expect(err).To(MatchError(feed.ErrInvalidConfig))
			},
			Entry("zero interval", feed.Config{Interval: 0, BatchSize: 5}),
			Entry("negative interval", feed.Config{Interval: -time.Second, BatchSize: 5}),
			Entry("zero batch size", feed.Config{Interval: time.Second, BatchSize: 0}),
			Entry("negative batch size", feed.Config{Interval: time.Second, BatchSize: -1}),
		)

		It("requires a source and a clock", func() {
			_, err := feed.New(nil, rec.sinks(), rec, clk, feed.DefaultConfig())
			Expect(err).To(MatchError(feed.ErrInvalidConfig))
			_, err = feed.New(feed.FromSlice(nil), rec.sinks(), rec, nil, feed.DefaultConfig())
			Expect(err).To(MatchError(feed.ErrInvalidConfig))
		})

		It("defaults to one second and five elements", func() {
			cfg := feed.DefaultConfig()
			Expect(cfg.Interval).To(Equal(time.Second))
			Expect(cfg.BatchSize).To(Equal(5))
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	Describe("lifecycle", func() {
		It("starts only from idle", func() {
			f := newFeed(feed.FromSlice(nodeElements(3)), 5)
			Expect(f.State()).To(Equal(feed.Idle))
			Expect(f.Start()).To(Succeed())
			Expect(f.State()).To(Equal(feed.Running))
			Expect(f.Start()).To(MatchError(feed.ErrNotIdle))

			f.Stop()
			Expect(f.State()).To(Equal(feed.Stopped))
			Expect(f.Start()).To(MatchError(feed.ErrNotIdle))
		})

		It("does nothing before the first interval elapses", func() {
			f := newFeed(feed.FromSlice(nodeElements(3)), 5)
			Expect(f.Start()).To(Succeed())
			clk.Advance(interval / 2)
			Expect(rec.added).To(BeEmpty())
		})

		It("stops pulling once stopped", func() {
			f := newFeed(feed.FromSlice(nodeElements(20)), 5)
			Expect(f.Start()).To(Succeed())
			clk.Advance(interval)
			f.Stop()
			clk.Advance(10 * interval)
			Expect(rec.added).To(HaveLen(5))
			Expect(clk.Pending()).To(BeZero())
		})
	})

	DescribeTable("exhaustion",
		func(k, b, mutating int) {
			f := newFeed(feed.FromSlice(nodeElements(k)), b)
			Expect(f.Start()).To(Succeed())

			clk.Advance(time.Duration(k+5) * interval)

			Expect(rec.batches).To(Equal(mutating))
			Expect(f.Batches()).To(Equal(mutating))
			Expect(f.Emitted()).To(Equal(k))
			Expect(f.State()).To(Equal(feed.Stopped))
			Expect(hk.exhausted).To(Equal(1))
			Expect(rec.outside).To(BeZero())
			Expect(clk.Pending()).To(BeZero())
			for _, n := range rec.perBatch {
				Expect(n).To(BeNumerically("<=", b))
			}
		},
		Entry("empty source stops on the first interval", 0, 5, 0),
		Entry("exact multiple", 10, 5, 2),
		Entry("partial final batch", 7, 5, 2),
		Entry("single element", 1, 5, 1),
		Entry("batch of one", 3, 1, 3),
	)

	It("stops on the interval that finds the source empty", func() {
		f := newFeed(feed.FromSlice(nodeElements(10)), 5)
		Expect(f.Start()).To(Succeed())

		clk.Advance(2 * interval)
		Expect(f.State()).To(Equal(feed.Running))
		Expect(f.Emitted()).To(Equal(10))

		clk.Advance(interval)
		Expect(f.State()).To(Equal(feed.Stopped))
		Expect(f.Intervals()).To(Equal(3))
	})

	It("applies a partial batch and stops in the same interval", func() {
		f := newFeed(feed.FromSlice(nodeElements(7)), 5)
		Expect(f.Start()).To(Succeed())

		clk.Advance(2 * interval)
		Expect(f.State()).To(Equal(feed.Stopped))
		Expect(f.Intervals()).To(Equal(2))
		Expect(hk.batches).To(Equal([]int{5, 2}))
	})

	It("dispatches each element to the sink for its kind in order", func() {
		elems := []graph.Element{
			graph.NodeElement(graph.NewNode("a")),
			graph.NodeElement(graph.NewNode("b")),
			graph.LinkElement(graph.NewLink("a", "b", true)),
			graph.GroupElement(graph.NewGroup("g", "a", "b")),
			{Kind: graph.KindLink},
		}
		f := newFeed(feed.FromSlice(elems), 10)
		Expect(f.Start()).To(Succeed())
		clk.Advance(interval)

		Expect(rec.added).To(Equal([]string{"node a", "node b", "link a->b", "group g"}))
		Expect(f.Emitted()).To(Equal(5))
	})

	It("reads lazy sequences", func() {
		seq := func(yield func(graph.Element) bool) {
			for i := 0; i < 4; i++ {
				if !yield(graph.NodeElement(graph.NewNode(fmt.Sprintf("s%d", i)))) {
					return
				}
			}
		}
		f := newFeed(feed.FromSeq(seq), 3)
		Expect(f.Start()).To(Succeed())
		clk.Advance(5 * interval)

		Expect(rec.added).To(Equal([]string{"node s0", "node s1", "node s2", "node s3"}))
		Expect(f.State()).To(Equal(feed.Stopped))
	})

	It("reports a failing source", func() {
		boom := errors.New("broker gone")
		f := newFeed(failing{Source: feed.FromSlice(nodeElements(2)), err: boom}, 5)
		Expect(f.Start()).To(Succeed())
		clk.Advance(interval)

		Expect(f.State()).To(Equal(feed.Stopped))
		Expect(f.Err()).To(MatchError(boom))
		Expect(rec.added).To(HaveLen(2))
	})

	Describe("against a live simulation", func() {
		var (
			ctx *sim.Context
			set *draw.Set
		)

		BeforeEach(func() {
			g, errs := graph.New(graph.Snapshot{Nodes: []*graph.Node{graph.NewNode("root")}})
			Expect(errs).To(BeEmpty())
			var err error
			ctx, err = sim.New(g, clk, sim.DefaultConfig(), sim.WithLogger(log.New(io.Discard)))
			Expect(err).NotTo(HaveOccurred())
			set = draw.Attach(ctx, nopSubstrate{})
			ctx.Start()
		})

		It("restarts the solver once per batch", func() {
			var elems []graph.Element
			for i := 0; i < 12; i++ {
				id := fmt.Sprintf("p%d", i)
				elems = append(elems,
					graph.NodeElement(graph.NewNode(id)),
					graph.LinkElement(graph.NewLink("root", id, i%2 == 0)))
			}
			f, err := feed.New(feed.FromSlice(elems),
				feed.Sinks{Nodes: set, Links: set.Links, Groups: set.Groups},
				ctx, clk, feed.Config{Interval: interval, BatchSize: 5})
			Expect(err).NotTo(HaveOccurred())

			before := ctx.Solver().Restarts()
			Expect(f.Start()).To(Succeed())
			clk.Advance(10 * interval)

			Expect(f.State()).To(Equal(feed.Stopped))
			Expect(f.Batches()).To(Equal(5))
			Expect(ctx.Solver().Restarts() - before).To(Equal(5))
			Expect(set.Nodes.Nodes()).To(HaveLen(13))
			Expect(set.Links.Links()).To(HaveLen(12))
		})
	})
})

type nopSubstrate struct{}

func (nopSubstrate) Bind(kind graph.Kind, id string) draw.Handle {
	return draw.Handle(kind.String() + ":" + id)
}
func (nopSubstrate) Style(draw.Handle, draw.Style)           {}
func (nopSubstrate) Place(draw.Handle, ...draw.Point)        {}
func (nopSubstrate) Remove(draw.Handle)                      {}
func (nopSubstrate) Position(draw.Handle) (draw.Point, bool) { return draw.Point{}, false }
