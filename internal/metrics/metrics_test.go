package metrics

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/livegraph/internal/graph"
)

func TestCollectorRecordsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.OnFrame(0.9, 12.5)
	c.OnFrame(0.8, 10)
	c.OnRestart()
	c.OnBatch(5)
	c.OnBatch(2)
	c.OnWarning(&graph.ConsistencyError{Entity: "link", ID: "a->z", Err: graph.ErrUnknownNode})
	c.OnWarning(&graph.ConsistencyError{Entity: "group", ID: "g", Err: graph.ErrUnknownNode})
	c.OnWarning(errors.New("ticker panicked"))
	c.OnExhausted()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"frames", testutil.ToFloat64(c.Frames), 2},
		{"restarts", testutil.ToFloat64(c.Restarts), 1},
		{"batches", testutil.ToFloat64(c.FeedBatches), 2},
		{"elements", testutil.ToFloat64(c.FeedElements), 7},
		{"link warnings", testutil.ToFloat64(c.Warnings.WithLabelValues("link")), 1},
		{"group warnings", testutil.ToFloat64(c.Warnings.WithLabelValues("group")), 1},
		{"other warnings", testutil.ToFloat64(c.Warnings.WithLabelValues("other")), 1},
		{"exhausted", testutil.ToFloat64(c.Exhausted), 1},
		{"alpha", testutil.ToFloat64(c.Alpha), 0.8},
		{"energy", testutil.ToFloat64(c.Energy), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestCollectorReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second collector: %v", err)
	}
	a.OnRestart()
	if got := testutil.ToFloat64(b.Restarts); got != 1 {
		t.Errorf("collectors should share counters, got %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.OnFrame(1, 1)
	c.OnRestart()
	c.OnWarning(errors.New("x"))
	c.OnBatch(1)
	c.OnExhausted()
	c.SetCounts(graph.Counts{})
}

func TestHandlerExposesEntityGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	c.SetCounts(graph.Counts{Nodes: 3, Links: 2, Groups: 1})

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`livegraph_entities{kind="node"} 3`,
		`livegraph_entities{kind="link"} 2`,
		`livegraph_entities{kind="group"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestEnergyTrace(t *testing.T) {
	e := NewEnergyTrace(3, 1)
	for _, v := range []float64{5, 4, math.NaN(), 3, 0.5} {
		e.Observe(v)
	}

	series := e.Series()
	want := []float64{4, 3, 0.5}
	if len(series) != len(want) {
		t.Fatalf("series %v, want %v", series, want)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("series %v, want %v", series, want)
		}
	}
	if e.Last() != 0.5 || e.Peak() != 5 {
		t.Errorf("last=%v peak=%v", e.Last(), e.Peak())
	}
	if math.Abs(e.Value()-3.125) > 1e-12 {
		t.Errorf("mean %v, want 3.125", e.Value())
	}
	if !e.Settled(1) || e.Settled(2) {
		t.Error("settled should count only trailing calm frames")
	}

	e.Reset()
	if len(e.Series()) != 0 || e.Value() != 0 || e.Settled(1) {
		t.Error("reset left state behind")
	}
}

func TestWarningsCountOncePerPass(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}

	// the same dangling link skipped by three reconciliation passes
	for i := 0; i < 3; i++ {
		c.OnWarning(&graph.ConsistencyError{Entity: "link", ID: "a->z", Err: graph.ErrUnknownNode})
	}
	if got := testutil.ToFloat64(c.Warnings.WithLabelValues("link")); got != 3 {
		t.Errorf("expected 3 warnings, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() == "livegraph_consistency_warnings_total" {
			if !strings.Contains(mf.GetHelp(), "once per pass") {
				t.Errorf("help does not state per-pass counting: %q", mf.GetHelp())
			}
			return
		}
	}
	t.Error("warnings metric not gathered")
}
