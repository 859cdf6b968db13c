// Package server provides the HTTP API for Vitrine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/search"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// Refresher schedules an out-of-band ingestion run.
type Refresher interface {
	Trigger()
}

// Server is the HTTP server for the Vitrine API.
type Server struct {
	engine    *search.Engine
	storage   storage.Storage
	store     *snapshot.Store
	config    *config.Config
	metrics   *observability.Metrics
	refresher Refresher
	logger    *zap.Logger
	server    *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithMetrics exposes m on the configured metrics path.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRefresher enables POST /api/refresh.
func WithRefresher(r Refresher) Option {
	return func(s *Server) { s.refresher = r }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	st storage.Storage,
	store *snapshot.Store,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		engine:  engine,
		storage: st,
		store:   store,
		config:  cfg,
		logger:  utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler serving every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/data", s.handleData)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/refresh", s.handleRefresh)
	if s.metrics != nil && s.config.Metrics.EnabledOrDefault() {
		r.Handle(s.config.Metrics.Path, s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
