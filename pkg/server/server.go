// Package server exposes views over HTTP.
//
//	GET /healthz           liveness probe
//	GET /render/{name...}  renders name; ?private=true selects the private
//	                       template, every other query parameter becomes a
//	                       template variable
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-view/pkg/logging"
	"github.com/goliatone/go-view/pkg/template"
	"github.com/goliatone/go-view/pkg/view"
)

// ViewFactory returns a fresh view for a request. Views are not shared
// between requests.
type ViewFactory func(r *http.Request) (*view.EngineView, error)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithReadTimeout bounds how long reading a request may take.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = d
	}
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// Server routes HTTP requests to views.
type Server struct {
	views           ViewFactory
	logger          *slog.Logger
	metrics         http.Handler
	readTimeout     time.Duration
	shutdownTimeout time.Duration
}

// New creates a Server rendering through views.
func New(views ViewFactory, opts ...Option) *Server {
	s := &Server{
		views:           views,
		logger:          logging.Discard(),
		readTimeout:     10 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/render/*", s.render)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(chi.URLParam(r, "*"), "/")
	if name == "" {
		http.Error(w, "template name is required", http.StatusBadRequest)
		return
	}

	vars, private, err := requestVars(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v, err := s.views(r)
	if err != nil {
		s.logger.Error("view setup failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	v.SetVariables(vars)

	out, err := v.Render(r.Context(), name, private)
	switch {
	case errors.Is(err, template.ErrNotFound):
		s.logger.Warn("template not found", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("render failed", "template", name, "request_id", middleware.GetReqID(r.Context()), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.logger.Info("rendered", "template", name, "private", private, "bytes", len(out))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// requestVars turns query parameters into variables. Repeated parameters
// become string slices.
func requestVars(r *http.Request) (*template.Vars, bool, error) {
	query := r.URL.Query()
	private := false
	if raw := query.Get("private"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false, fmt.Errorf("invalid private flag %q", raw)
		}
		private = parsed
	}
	query.Del("private")

	vars := template.NewVars()
	for _, key := range slices.Sorted(maps.Keys(query)) {
		values := query[key]
		if len(values) == 1 {
			vars.Set(key, values[0])
			continue
		}
		vars.Set(key, values)
	}
	return vars, private, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readTimeout,
		ReadTimeout:       s.readTimeout,
		ErrorLog:          log.New(logging.NewWriter(s.logger, "http server"), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
