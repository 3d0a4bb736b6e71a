package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/livegraph/internal/graph"
)

// Collector exposes layout and feed metrics. It implements sim.Hooks and
// feed.Hooks; a nil *Collector is a valid no-op.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames       prometheus.Counter
	Restarts     prometheus.Counter
	FeedBatches  prometheus.Counter
	FeedElements prometheus.Counter
	Warnings     *prometheus.CounterVec
	Exhausted    prometheus.Gauge
	Alpha        prometheus.Gauge
	Energy       prometheus.Gauge
	Entities     *prometheus.GaugeVec
}

// NewCollector registers the metrics against reg, or the default registerer
// when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Frames, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livegraph_frames_total",
		Help: "Frames in which the solver stepped and the drawers ticked.",
	})); err != nil {
		return nil, err
	}
	if c.Restarts, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livegraph_restarts_total",
		Help: "Solver restarts issued by the simulation context.",
	})); err != nil {
		return nil, err
	}
	if c.FeedBatches, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livegraph_feed_batches_total",
		Help: "Feed intervals that added at least one element.",
	})); err != nil {
		return nil, err
	}
	if c.FeedElements, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "livegraph_feed_elements_total",
		Help: "Elements dispatched by the feed.",
	})); err != nil {
		return nil, err
	}
	if c.Warnings, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "livegraph_consistency_warnings_total",
		Help: "Consistency warnings by entity kind. Each reconciliation pass reports every entity it skips, so an entity that stays inconsistent counts once per pass.",
	}, []string{"entity"})); err != nil {
		return nil, err
	}
	if c.Exhausted, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "livegraph_feed_exhausted",
		Help: "1 once the feed source has run out.",
	})); err != nil {
		return nil, err
	}
	if c.Alpha, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "livegraph_alpha",
		Help: "Current solver alpha.",
	})); err != nil {
		return nil, err
	}
	if c.Energy, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "livegraph_kinetic_energy",
		Help: "Kinetic energy of the layout after the last step.",
	})); err != nil {
		return nil, err
	}
	if c.Entities, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "livegraph_entities",
		Help: "Entities in the shared graph by kind.",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler serves the collector's gatherer in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) OnFrame(alpha, energy float64) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.Alpha.Set(alpha)
	c.Energy.Set(energy)
}

func (c *Collector) OnRestart() {
	if c == nil {
		return
	}
	c.Restarts.Inc()
}

// OnWarning counts a warning under the entity kind it concerns.
func (c *Collector) OnWarning(err error) {
	if c == nil {
		return
	}
	entity := "other"
	var ce *graph.ConsistencyError
	if errors.As(err, &ce) {
		entity = ce.Entity
	}
	c.Warnings.WithLabelValues(entity).Inc()
}

func (c *Collector) OnBatch(n int) {
	if c == nil {
		return
	}
	c.FeedBatches.Inc()
	c.FeedElements.Add(float64(n))
}

func (c *Collector) OnExhausted() {
	if c == nil {
		return
	}
	c.Exhausted.Set(1)
}

// SetCounts updates the entity gauges.
func (c *Collector) SetCounts(counts graph.Counts) {
	if c == nil {
		return
	}
	c.Entities.WithLabelValues("node").Set(float64(counts.Nodes))
	c.Entities.WithLabelValues("link").Set(float64(counts.Links))
	c.Entities.WithLabelValues("group").Set(float64(counts.Groups))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return vec, nil
}
