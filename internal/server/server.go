package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/export"
	"github.com/san-kum/livegraph/internal/feed"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/metrics"
	"github.com/san-kum/livegraph/internal/sim"
)

// DefaultRequestTimeout bounds how long a handler waits for the loop.
const DefaultRequestTimeout = 2 * time.Second

type Server struct {
	loop    *clock.Loop
	sim     *sim.Context
	set     *draw.Set
	svg     *export.SVG
	feed    *feed.Feed
	metrics *metrics.Collector
	log     *log.Logger
	timeout time.Duration

	router chi.Router
}

type Option func(*Server)

func WithFeed(f *feed.Feed) Option {
	return func(s *Server) { s.feed = f }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New serves the drawables of set, which must have been attached to ctx
// with svg as substrate.
func New(loop *clock.Loop, ctx *sim.Context, set *draw.Set, svg *export.SVG, opts ...Option) *Server {
	s := &Server{
		loop:    loop,
		sim:     ctx,
		set:     set,
		svg:     svg,
		log:     log.New(io.Discard),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	r.Get("/frame.svg", s.frame)
	r.Get("/graph", s.status)
	r.Post("/nodes/{id}/pin", s.pin)
	r.Put("/nodes/{id}/pin", s.drag)
	r.Delete("/nodes/{id}/pin", s.unpin)
	r.Delete("/nodes/{id}", s.removeNode)
	if s.metrics != nil {
		r.Get("/metrics", s.serveMetrics)
	}
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start))
	})
}

// do runs fn on the loop with the request's context bounded by the
// server timeout.
func (s *Server) do(r *http.Request, fn func()) error {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	return s.loop.Do(ctx, fn)
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.do(r, func() {
		_, _ = s.svg.WriteTo(&buf)
	})
	if err != nil {
		s.writeError(w, "loop unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

type FeedStatus struct {
	State     string `json:"state"`
	Intervals int    `json:"intervals"`
	Batches   int    `json:"batches"`
	Emitted   int    `json:"emitted"`
}

type NodeStatus struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned"`
}

type Status struct {
	Frames    int          `json:"frames"`
	Running   bool         `json:"running"`
	Alpha     float64      `json:"alpha"`
	Energy    float64      `json:"energy"`
	Restarts  int          `json:"restarts"`
	Counts    graph.Counts `json:"counts"`
	Drawables int          `json:"drawables"`
	Feed      *FeedStatus  `json:"feed,omitempty"`
	Nodes     []NodeStatus `json:"nodes"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	var st Status
	err := s.do(r, func() {
		solver := s.sim.Solver()
		st = Status{
			Frames:    s.sim.Frames(),
			Running:   s.sim.Running(),
			Alpha:     solver.Alpha(),
			Energy:    solver.Energy(),
			Restarts:  solver.Restarts(),
			Counts:    s.sim.Graph().Counts(),
			Drawables: s.svg.Len(),
		}
		if s.feed != nil {
			st.Feed = &FeedStatus{
				State:     s.feed.State().String(),
				Intervals: s.feed.Intervals(),
				Batches:   s.feed.Batches(),
				Emitted:   s.feed.Emitted(),
			}
		}
		for _, n := range s.set.Nodes.Nodes() {
			st.Nodes = append(st.Nodes, s.nodeStatus(n))
		}
	})
	if err != nil {
		s.writeError(w, "loop unavailable", err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, st, http.StatusOK)
}

func (s *Server) nodeStatus(n *graph.Node) NodeStatus {
	p := s.set.Nodes.Locate(n)
	return NodeStatus{ID: n.ID, X: p.X, Y: p.Y, Pinned: n.Pinned()}
}

func (s *Server) pin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutateNode(w, r, id, func() error { return s.set.Nodes.Pin(id) })
}

func (s *Server) drag(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if err := errors.Join(errX, errY); err != nil {
		s.writeError(w, "invalid position", err.Error(), http.StatusBadRequest)
		return
	}
	s.mutateNode(w, r, id, func() error { return s.set.Nodes.Drag(id, x, y) })
}

func (s *Server) unpin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutateNode(w, r, id, func() error { return s.set.Nodes.Unpin(id) })
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		opErr  error
		counts graph.Counts
	)
	err := s.do(r, func() {
		if opErr = s.set.RemoveNode(id); opErr == nil {
			counts = s.sim.Graph().Counts()
			s.metrics.SetCounts(counts)
		}
	})
	switch {
	case err != nil:
		s.writeError(w, "loop unavailable", err.Error(), http.StatusServiceUnavailable)
	case opErr != nil:
		s.writeError(w, "not found", opErr.Error(), http.StatusNotFound)
	default:
		s.log.Info("node removed", "id", id, "nodes", counts.Nodes, "links", counts.Links)
		writeJSON(w, counts, http.StatusOK)
	}
}

func (s *Server) mutateNode(w http.ResponseWriter, r *http.Request, id string, fn func() error) {
	var (
		opErr error
		ns    NodeStatus
	)
	err := s.do(r, func() {
		if opErr = fn(); opErr != nil {
			return
		}
		n, _ := s.sim.Graph().Node(id)
		ns = s.nodeStatus(n)
	})
	switch {
	case err != nil:
		s.writeError(w, "loop unavailable", err.Error(), http.StatusServiceUnavailable)
	case errors.Is(opErr, draw.ErrInvalidPosition):
		s.writeError(w, "invalid position", opErr.Error(), http.StatusBadRequest)
	case errors.Is(opErr, graph.ErrUnknownNode):
		s.writeError(w, "not found", opErr.Error(), http.StatusNotFound)
	case opErr != nil:
		s.writeError(w, "node not drawn", opErr.Error(), http.StatusConflict)
	default:
		s.log.Debug("node updated", "id", id, "method", r.Method, "pinned", ns.Pinned)
		writeJSON(w, ns, http.StatusOK)
	}
}

func (s *Server) serveMetrics(w http.ResponseWriter, r *http.Request) {
	if err := s.do(r, func() { s.metrics.SetCounts(s.sim.Graph().Counts()) }); err != nil {
		s.log.Warn("metrics counts stale", "err", err)
	}
	s.metrics.Handler().ServeHTTP(w, r)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, msg, details string, status int) {
	s.log.Warn(msg, "details", details, "status", status)
	writeJSON(w, ErrorResponse{Error: msg, Details: details}, status)
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
