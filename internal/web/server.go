package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/cjeanneret/emecwheel/internal/debug"
	"github.com/cjeanneret/emecwheel/internal/obvy"
)

// Options configures the HTTP server (from config).
type Options struct {
	Addr       string
	RatePerSec float64 // per remote host, 0 = unlimited
	Burst      int
	Tracing    bool // wrap the router with otelhttp
	Scan       ScanLimits
}

// Server wraps the HTTP server and handlers.
type Server struct {
	opts     Options
	handlers *Handlers
	stats    *obvy.Stats
}

// NewServer creates a server for the given options and dependencies. A nil
// stats gets a fresh registry.
func NewServer(opts Options, broadcaster *StatusBroadcaster, calc CalculatorFunc, stats *obvy.Stats) (*Server, error) {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("web: sub static fs: %w", err)
	}
	if stats == nil {
		stats = obvy.NewStats()
	}
	return &Server{
		opts:     opts,
		handlers: NewHandlers(broadcaster, calc, opts.Scan, stats, subFS),
		stats:    stats,
	}, nil
}

// Router returns the gorilla router with all routes registered.
func (s *Server) Router() *mux.Router {
	h := s.handlers
	r := mux.NewRouter()
	r.Use(statsMiddleware(s.stats))

	r.Handle("/metrics", s.stats.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status/stream", h.HandleStatusStream).Methods(http.MethodGet)
	r.HandleFunc("/status/ws", h.HandleStatusWS).Methods(http.MethodGet)

	// Computation routes share the per-host limiter
	api := r.NewRoute().Subrouter()
	if s.opts.RatePerSec > 0 {
		api.Use(NewIPRateLimiter(rate.Limit(s.opts.RatePerSec), s.opts.Burst).Middleware)
	}
	api.HandleFunc("/api/variants", h.HandleVariants).Methods(http.MethodGet)
	api.HandleFunc("/api/wheels/{variant}", h.HandleWheel).Methods(http.MethodGet)
	api.HandleFunc("/api/wheels/{variant}/gap/{i}", h.HandleGap).Methods(http.MethodGet)
	api.HandleFunc("/api/wheels/{variant}/radius", h.HandleRadius).Methods(http.MethodGet)
	api.HandleFunc("/api/wheels/{variant}/locate", h.HandleLocate).Methods(http.MethodGet)
	api.HandleFunc("/scan", h.HandleScan).Methods(http.MethodPost)
	api.HandleFunc("/scan", h.HandleCancelScan).Methods(http.MethodDelete)

	r.HandleFunc("/static/index.html", h.ServeIndex).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	r.HandleFunc("/", h.ServeIndex).Methods(http.MethodGet)
	return r
}

// Handler returns the root handler, traced when enabled.
func (s *Server) Handler() http.Handler {
	if s.opts.Tracing {
		return otelhttp.NewHandler(s.Router(), "emecwheel")
	}
	return s.Router()
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		debug.Info("web server listening on %s", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
