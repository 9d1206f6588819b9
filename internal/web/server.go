// Package web provides the HTTP server and handlers for the grid UI and
// its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/gridview/internal/config"
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/web/middleware"
)

//go:embed static
var staticFiles embed.FS

// partialHeader marks requests from the grid script, which want the grid
// fragment back instead of JSON.
const partialHeader = "X-Grid-Partial"

// Server is the HTTP server for the grid application.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(requestMetadata)

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Pages, and the fragments the grid script swaps in
	s.router.Get("/", s.handleDashboard)
	s.router.Route("/grid/{gridKey}", func(r chi.Router) {
		r.Use(middleware.SameOrigin(&s.cfg.Security))
		r.Get("/", s.handleGridPage)
		s.gridRoutes(r)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/grids", s.handleListGrids)
		r.Get("/limiter", s.handleLimiterStatus)
		r.Route("/grid/{gridKey}", func(r chi.Router) {
			r.Get("/", s.handleGridView)
			s.gridRoutes(r)
		})
	})
}

// gridRoutes registers the grid operations under a /grid/{gridKey} prefix.
func (s *Server) gridRoutes(r chi.Router) {
	r.Get("/export.csv", s.handleExport)
	r.Post("/click", s.handleClick)
	r.Post("/edit/{row}", s.handleEdit)
	r.Post("/input/{row}/{field}", s.handleInput)
	r.Post("/save/{row}", s.handleSave)
	r.Post("/cancel/{row}", s.handleCancel)
	r.Post("/pin/{row}", s.handlePin(true))
	r.Post("/release/{row}", s.handlePin(false))
	r.Post("/create", s.handleCreate)
	r.Post("/order", s.handleOrder)
	r.Post("/reload", s.handleReload)

	deletes := r.With()
	if s.cfg.Rate.Enabled {
		deletes = r.With(s.newRateLimiter(s.cfg.Rate.DeleteLimit, time.Minute).middleware)
	}
	deletes.Post("/delete", s.handleDelete)
}

// Start listens until Shutdown, then returns http.ErrServerClosed.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the rate limiters and drains open connections.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
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

		// Scripts and styles only from this origin
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
