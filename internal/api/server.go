package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/frequency"
	"github.com/opensource-finance/kestrel/internal/pipeline"
	"github.com/opensource-finance/kestrel/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *rules.Engine, p *pipeline.Pipeline, freq *frequency.Service, version string, async bool) *Server {
	handler := NewHandler(repo, cache, bus, engine, p, freq, version, async)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no workspace required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (workspace required)
	router.Route("/", func(r chi.Router) {
		r.Use(WorkspaceMiddleware)

		// Row matching
		r.Post("/match", handler.Match)
		r.Post("/import", handler.Import)

		// Match results
		r.Get("/suggestions/{id}", handler.GetSuggestion)
		r.Get("/imports/{id}/suggestions", handler.ListImportSuggestions)
		r.Get("/imports/{id}/stats", handler.GetImportStats)

		// Ledger management
		r.Get("/categories", handler.ListCategories)
		r.Post("/categories", handler.CreateCategory)
		r.Get("/categories/{id}", handler.GetCategory)

		r.Get("/payees", handler.ListPayees)
		r.Post("/payees", handler.CreatePayee)
		r.Post("/payees/normalize", handler.NormalizePayee)
		r.Get("/payees/{id}", handler.GetPayee)
		r.Get("/payees/{id}/frequency", handler.GetPayeeFrequency)

		r.Get("/schedules", handler.ListSchedules)
		r.Post("/schedules", handler.CreateSchedule)
		r.Get("/schedules/{id}", handler.GetSchedule)

		// Rule management
		r.Get("/rules", handler.ListRules)
		r.Get("/rules/{id}", handler.GetRule)
		r.Post("/rules", handler.CreateRule)
		r.Post("/rules/reload", handler.ReloadRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
