// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the current course document over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dejvthedrummer/naucse.python.cz/internal/api/middleware"
	"github.com/dejvthedrummer/naucse.python.cz/internal/cache"
	"github.com/dejvthedrummer/naucse.python.cz/internal/health"
	"github.com/dejvthedrummer/naucse.python.cz/internal/lint"
	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

const (
	// DefaultReportTTL bounds how long a POST /validate report is cached.
	DefaultReportTTL = 10 * time.Minute
	// MaxDocumentBytes caps the size of a document sent for validation.
	MaxDocumentBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// DocumentSource provides the served document and reload notifications.
// It is implemented by *watch.Holder.
type DocumentSource interface {
	Path() string
	Get() watch.State
	Subscribe(ch chan<- watch.State)
	Unsubscribe(ch chan<- watch.State)
}

// Config configures the HTTP surface.
type Config struct {
	ListenAddr string
	// RateLimit is requests per minute per client IP; zero disables it.
	RateLimit int
	// BaseURL links calendar events to session pages.
	BaseURL  string
	Location *time.Location
	// Slug names the event in calendar UIDs. Derived from the document path when empty.
	Slug string
	// TracingService enables otelhttp spans when set.
	TracingService string
	// ReportTTL defaults to DefaultReportTTL.
	ReportTTL time.Duration
}

// Server is the naucse HTTP API.
type Server struct {
	cfg     Config
	source  DocumentSource
	cache   cache.Cache
	lint    lint.Options
	health  *health.Manager
	hub     *hub
	updates chan watch.State
	router  chi.Router
	logger  zerolog.Logger
}

// New wires the router. The server subscribes to source immediately; call
// Watch to start pushing reloads to websocket clients.
func New(cfg Config, source DocumentSource, reports cache.Cache, opts lint.Options, hm *health.Manager) *Server {
	if cfg.ReportTTL <= 0 {
		cfg.ReportTTL = DefaultReportTTL
	}
	if reports == nil {
		reports = cache.NewNoOpCache()
	}
	if hm == nil {
		hm = health.NewManager("")
	}
	opts.Source = "api"
	opts.Path = ""

	s := &Server{
		cfg:     cfg,
		source:  source,
		cache:   reports,
		lint:    opts,
		health:  hm,
		hub:     newHub(),
		updates: make(chan watch.State, 4),
		logger:  log.WithComponent("api"),
	}
	source.Subscribe(s.updates)
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
		RequestsPerMinute:     s.cfg.RateLimit,
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, problemNotFound, "Not Found", "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, problemNotAllowed, "Method Not Allowed", "", nil)
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/event", s.handleEvent)
		r.Get("/report", s.handleReport)
		r.Post("/validate", s.handleValidate)
		r.Get("/schema", s.handleSchema)
		r.Get("/calendar.ics", s.handleCalendar)
		r.Get("/ws", s.handleWebsocket)
	})
	return r
}

// Watch forwards document reloads to websocket clients until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	defer s.source.Unsubscribe(s.updates)
	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return
		case st := <-s.updates:
			msg, err := encodePush(st)
			if err != nil {
				s.logger.Error().Err(err).Str(log.FieldEvent, "ws.encode_error").Msg("failed to encode push message")
				continue
			}
			n := s.hub.broadcast(msg)
			s.logger.Debug().
				Str(log.FieldEvent, "ws.broadcast").
				Uint64("version", st.Version).
				Int("clients", n).
				Msg("pushed report to clients")
		}
	}
}

// Run serves HTTP on cfg.ListenAddr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Watch(gctx)
		return nil
	})
	g.Go(func() error {
		s.logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str(log.FieldListenAddr, ln.Addr().String()).
			Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info().Str(log.FieldEvent, "api.shutdown").Msg("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
