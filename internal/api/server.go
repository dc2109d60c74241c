// Package api provides the HTTP API server and handlers for BeachAtlas.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beachatlas/beachatlas-server/internal/media/images"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
	// Assets is served under /assets when set.
	Assets *images.Storage
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger

	chatLimiter       *RateLimiter
	newsletterLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:          services,
		opts:              opts,
		router:            chi.NewRouter(),
		logger:            logger,
		chatLimiter:       NewRateLimiter(10, time.Minute, 5),
		newsletterLimiter: NewRateLimiter(5, time.Minute, 3),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops the background rate limiter cleanup.
func (s *Server) Close() {
	s.chatLimiter.Stop()
	s.newsletterLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: len(s.opts.AllowedOrigins) > 0,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	humaConfig := huma.DefaultConfig("BeachAtlas API", "1.0.0")
	humaConfig.Info.Description = "Browse, filter and favorite beaches."
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerBeachRoutes()
	s.registerAssistantRoutes()
	s.registerNewsletterRoutes()

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/sitemap.xml", s.handleSitemap)
	if s.opts.Assets != nil {
		s.router.Handle("/assets/*", assetHandler(s.opts.Assets))
	}
}
