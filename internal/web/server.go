// Package web provides the HTTP API for statement conversion, history and
// format administration.
package web

import (
	"context"
	"net/http"
	"time"

	"fjacquet/ekstre-csv/internal/admin"
	"fjacquet/ekstre-csv/internal/history"
	"fjacquet/ekstre-csv/internal/logging"
	"fjacquet/ekstre-csv/internal/pipeline"
	"fjacquet/ekstre-csv/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the services the handlers work with.
type Deps struct {
	Converter   *pipeline.Converter
	Registry    *registry.Store
	History     history.Store
	Admin       *admin.Manager
	Output      pipeline.OutputOptions
	RecentLimit int
	Logger      logging.Logger
}

// Options tunes the HTTP server.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	HandlerTimeout time.Duration
}

// Server is the HTTP server for the conversion API.
type Server struct {
	deps   Deps
	logger logging.Logger
	opts   Options
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(deps Deps, opts Options) *Server {
	if deps.RecentLimit <= 0 {
		deps.RecentLimit = 10
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 60 * time.Second
	}
	s := &Server{
		deps:   deps,
		logger: logging.OrDiscard(deps.Logger),
		opts:   opts,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.opts.HandlerTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/formats", s.handleListFormats)
		r.Post("/classify", s.handleClassify)
		r.Post("/convert", s.handleConvert)

		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryEntry)
		r.Get("/history/{id}/download", s.handleHistoryDownload)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth(s.deps.Admin, s.logger))

			r.Get("/formats", s.handleAdminListFormats)
			r.Post("/formats", s.handleCreateFormat)
			r.Put("/formats/{id}", s.handleUpdateFormat)
			r.Delete("/formats/{id}", s.handleDeleteFormat)

			r.Get("/stats", s.handleStats)
			r.Post("/cleanup", s.handleCleanup)
			r.Post("/purge", s.handlePurge)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)
			r.Put("/password", s.handleChangePassword)
		})
	})
}

// Start begins listening for HTTP requests. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.logger.Info("Starting server", logging.F("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
