// Package web serves a data dictionary for a lookup table: variable specs
// resolve to their titles, offsets and column names over HTTP.
package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/acsextract/internal/config"
	"github.com/JonMunkholm/acsextract/internal/logging"
	"github.com/JonMunkholm/acsextract/internal/lookup"
	acsmw "github.com/JonMunkholm/acsextract/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the data-dictionary HTTP server. The lookup table is parsed once
// and only read afterwards, so handlers share it without locking.
type Server struct {
	table  *lookup.Table
	cfg    config.ServerConfig
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server over a parsed lookup table.
func NewServer(table *lookup.Table, cfg config.ServerConfig) *Server {
	s := &Server{
		table:  table,
		cfg:    cfg,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(acsmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/dictionary", s.handleDictionary)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/variables", s.handleVariables)
		r.Get("/readme", s.handleReadme)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	logging.FromContext(context.Background()).Info("starting server",
		"addr", s.cfg.Addr(),
		"tables", len(s.table.Tables()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The dictionary page is self-contained: no scripts, inline styles only
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")

		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
