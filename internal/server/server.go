// Package server exposes an engine over HTTP.
//
// The engine is single-threaded; every handler takes the server mutex for
// the duration of its engine access. Rendered artifacts go through the
// pipeline runner so repeated requests for the same tree, highlight set,
// viewport and format are served from the artifact cache.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/kintree/pkg/config"
	"github.com/matzehuels/kintree/pkg/engine"
	"github.com/matzehuels/kintree/pkg/observability"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/tree"
)

// maxBodyBytes bounds request bodies, tree documents included.
const maxBodyBytes = 32 << 20

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRunner sets the runner used for artifact rendering and caching.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// Server serves one engine.
type Server struct {
	mu       sync.Mutex
	engine   *engine.Engine
	treeHash string

	runner   *pipeline.Runner
	logger   *log.Logger
	gatherer prometheus.Gatherer
	router   chi.Router
}

// New creates a server around e.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   e,
		logger:   log.New(io.Discard),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, e.Config(), s.logger)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// LoadTree decodes a tree document and makes it the engine's graph.
func (s *Server) LoadTree(data []byte) error {
	g, hash, err := s.runner.Load(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setGraph(g, hash)
	return nil
}

func (s *Server) setGraph(g *tree.Graph, hash string) {
	s.engine.SetGraph(g)
	s.treeHash = hash
	s.logger.Info("tree loaded", "nodes", g.Len(), "hash", shortHash(hash))
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Put("/tree", s.handlePutTree)

	r.Route("/highlights", func(r chi.Router) {
		r.Get("/", s.handleListHighlights)
		r.Post("/", s.handleAddHighlight)
		r.Put("/", s.handleReplaceHighlights)
		r.Delete("/", s.handleClearHighlights)
		r.Delete("/{id}", s.handleRemoveHighlight)
		r.Get("/{id}/strokes", s.handleHighlightStrokes)
	})

	r.Get("/render", s.handleRender)
	r.Get("/paths/{id}", s.handlePath)
	r.Get("/paths/{a}/{b}", s.handleDualPaths)
	r.Get("/fit", s.handleFit)
	r.Get("/fit/{id}", s.handleFitNode)
	return r
}

// observe reports every response to the HTTP hooks and logs it.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d)
	})
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
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

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
