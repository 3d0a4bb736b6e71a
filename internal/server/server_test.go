package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/export"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/metrics"
	"github.com/san-kum/livegraph/internal/sim"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	g, _ := graph.New(graph.Snapshot{
		Nodes: []*graph.Node{graph.NewNode("a"), graph.NewNode("b"), graph.NewNode("c")},
		Links: []*graph.Link{graph.NewLink("a", "b", true), graph.NewLink("b", "c", false)},
	})
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	loop := clock.NewLoop()
	ctx, err := sim.New(g, loop, sim.DefaultConfig(),
		sim.WithLogger(log.New(io.Discard)), sim.WithHooks(collector))
	if err != nil {
		t.Fatal(err)
	}
	svg := export.NewSVG(ctx.Viewport().Width, ctx.Viewport().Height)
	set := draw.Attach(ctx, svg)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	if err := loop.Do(runCtx, ctx.Start); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(New(loop, ctx, set, svg, WithMetrics(collector)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func waitForFrames(t *testing.T, base string) Status {
	t.Helper()
	var st Status
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, body := request(t, http.MethodGet, base+"/graph")
		if err := json.Unmarshal(body, &st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if st.Frames > 0 {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no frames rendered: %+v", st)
	return st
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := request(t, http.MethodGet, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("healthz: %d %q", resp.StatusCode, body)
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)
	st := waitForFrames(t, srv.URL)

	if st.Counts.Nodes != 3 || st.Counts.Links != 2 {
		t.Errorf("counts %+v", st.Counts)
	}
	if st.Drawables != 5 {
		t.Errorf("expected 5 drawables, got %d", st.Drawables)
	}
	if len(st.Nodes) != 3 || !st.Running {
		t.Errorf("unexpected status %+v", st)
	}
	if st.Feed != nil {
		t.Error("feed status reported without a feed")
	}
}

func TestFrameSVG(t *testing.T) {
	srv := newTestServer(t)
	waitForFrames(t, srv.URL)

	resp, body := request(t, http.MethodGet, srv.URL+"/frame.svg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type %q", ct)
	}
	out := string(body)
	if got := strings.Count(out, "<circle"); got != 3 {
		t.Errorf("expected 3 circles, got %d", got)
	}
	if got := strings.Count(out, "<line"); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}
}

func TestPinLifecycle(t *testing.T) {
	srv := newTestServer(t)
	waitForFrames(t, srv.URL)
	url := srv.URL + "/nodes/a/pin"

	var ns NodeStatus
	resp, body := request(t, http.MethodPost, url)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pin: %d %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &ns)
	if !ns.Pinned || ns.ID != "a" {
		t.Errorf("pin: %+v", ns)
	}

	resp, body = request(t, http.MethodPut, url+"?x=100&y=120")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("drag: %d %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &ns)
	if math.Abs(ns.X-100) > 1e-9 || math.Abs(ns.Y-120) > 1e-9 {
		t.Errorf("drag landed at (%f, %f)", ns.X, ns.Y)
	}

	resp, body = request(t, http.MethodDelete, url)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unpin: %d %s", resp.StatusCode, body)
	}
	json.Unmarshal(body, &ns)
	if ns.Pinned {
		t.Error("node still pinned")
	}
}

func TestPinErrors(t *testing.T) {
	srv := newTestServer(t)
	waitForFrames(t, srv.URL)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"unknown node", http.MethodPost, "/nodes/zz/pin", http.StatusNotFound},
		{"unknown node drag", http.MethodPut, "/nodes/zz/pin?x=1&y=1", http.StatusNotFound},
		{"missing coordinates", http.MethodPut, "/nodes/a/pin", http.StatusBadRequest},
		{"bad coordinate", http.MethodPut, "/nodes/a/pin?x=left&y=1", http.StatusBadRequest},
		{"nan coordinate", http.MethodPut, "/nodes/a/pin?x=NaN&y=0", http.StatusBadRequest},
		{"infinite coordinate", http.MethodPut, "/nodes/a/pin?x=1&y=-Inf", http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/nodes/a/pin", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := request(t, tt.method, srv.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("got %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	waitForFrames(t, srv.URL)

	resp, body := request(t, http.MethodGet, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	out := string(body)
	for _, want := range []string{
		`livegraph_entities{kind="node"} 3`,
		`livegraph_entities{kind="link"} 2`,
		"livegraph_frames_total",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRemoveNode(t *testing.T) {
	srv := newTestServer(t)
	waitForFrames(t, srv.URL)

	resp, body := request(t, http.MethodDelete, srv.URL+"/nodes/c")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: %d %s", resp.StatusCode, body)
	}
	var counts graph.Counts
	if err := json.Unmarshal(body, &counts); err != nil {
		t.Fatal(err)
	}
	if counts.Nodes != 2 || counts.Links != 1 {
		t.Errorf("counts after delete %+v", counts)
	}

	_, body = request(t, http.MethodGet, srv.URL+"/graph")
	var st Status
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if st.Drawables != 3 || len(st.Nodes) != 2 {
		t.Errorf("status after delete %+v", st)
	}

	resp, _ = request(t, http.MethodDelete, srv.URL+"/nodes/c")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: %d", resp.StatusCode)
	}
}
