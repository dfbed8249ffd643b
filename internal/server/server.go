// Package server provides the HTTP API for indexing and querying ticket attachments.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/metrics"
	"github.com/hyperjump/ticketrag/internal/search"
	"github.com/hyperjump/ticketrag/internal/vector"
	"go.uber.org/zap"
)

// serviceName is reported by /health.
const serviceName = "ticketrag"

// Server is the HTTP server for the RAG API.
type Server struct {
	engine  *search.Engine
	store   vector.Store
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, store vector.Store, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Post("/rag/index", s.handleIndex)
		r.Post("/rag/reindex", s.handleReindex)
		r.Post("/rag/query", s.handleQuery)
		r.Post("/tickets/me/rag/query", s.handleQuery)
		r.Post("/tickets/{ticketId}/rag/index", s.handleTicketIndex)
		r.Post("/tickets/{ticketId}/rag/reindex", s.handleTicketReindex)
		r.Get("/attachments-of/{ticketId}", s.handleAttachments)
	})
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
