// Package api provides the HTTP API server and handlers for the club trophies service.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/ratelimit"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backlogger reports how full the change dispatch queue is.
type Backlogger interface {
	Backlog() (queued, capacity int)
}

// Options configures the HTTP surface.
type Options struct {
	// UIDHeader names the header carrying the verified viewer uid.
	UIDHeader      string
	AllowedOrigins []string
	// SearchLimiter throttles search creation per viewer. Nil disables throttling.
	SearchLimiter *ratelimit.KeyedRateLimiter
	Version       string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services      *Services
	store         Pinger
	dispatcher    Backlogger
	metrics       *metrics.Metrics
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
	uidHeader     string
	searchLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// st, queue and m may be nil; the health check then reports those components as degraded.
func NewServer(services *Services, st Pinger, queue Backlogger, m *metrics.Metrics, opts Options, log *slog.Logger) *Server {
	if opts.UIDHeader == "" {
		opts.UIDHeader = DefaultUIDHeader
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		services:      services,
		store:         st,
		dispatcher:    queue,
		metrics:       m,
		router:        chi.NewRouter(),
		logger:        logger.OrDiscard(log),
		uidHeader:     opts.UIDHeader,
		searchLimiter: opts.SearchLimiter,
	}

	s.setupMiddleware(opts.AllowedOrigins)

	cfg := huma.DefaultConfig("Club Trophies API", opts.Version)
	cfg.Info.Description = "Club records, boat reference data and federated winner search."
	s.api = humachi.New(s.router, cfg)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", s.uidHeader},
		MaxAge:         300,
	}))
	s.router.Use(viewerMiddleware(s.uidHeader))
}

func (s *Server) setupRoutes() {
	if reg := s.metrics.Registry(); reg != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	s.registerHealthRoutes()
	s.registerClubRoutes()
	s.registerBoatRoutes()
	s.registerTrophyRoutes()
	s.registerWinnerRoutes()
	s.registerSearchRoutes()
}
