// Package server exposes the analytics core over HTTP: a thin chi layer
// that calls straight into the repository, flow, scoring, freshness and
// jobs packages. No business logic lives here.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/idxscope/core/internal/adapters"
	"github.com/idxscope/core/internal/database"
	"github.com/idxscope/core/internal/freshness"
	"github.com/idxscope/core/internal/jobs"
	"github.com/idxscope/core/internal/repository"
	"github.com/idxscope/core/internal/scoring"
)

// Config bundles everything the HTTP layer needs to construct its handlers.
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger
	DB      *database.DB

	Stocks       *repository.StockRepository
	Prices       *repository.PriceBarRepository
	Scores       *repository.CompositeScoreRepository
	Jobs         *repository.SourceJobRepository
	Freshness    *freshness.Aggregator
	Engine       *scoring.Engine
	Adapters     *adapters.Registry
	Orchestrator *jobs.Orchestrator
}

// Server is the HTTP server wrapping the analytics core.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	db           *database.DB
	stocks       *repository.StockRepository
	prices       *repository.PriceBarRepository
	scores       *repository.CompositeScoreRepository
	jobRepo      *repository.SourceJobRepository
	freshness    *freshness.Aggregator
	engine       *scoring.Engine
	adapters     *adapters.Registry
	orchestrator *jobs.Orchestrator
	startedAt    time.Time
}

// New builds a Server with routes and middleware wired up.
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		db:           cfg.DB,
		stocks:       cfg.Stocks,
		prices:       cfg.Prices,
		scores:       cfg.Scores,
		jobRepo:      cfg.Jobs,
		freshness:    cfg.Freshness,
		engine:       cfg.Engine,
		adapters:     cfg.Adapters,
		orchestrator: cfg.Orchestrator,
		startedAt:    time.Now().UTC(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/system/status", s.handleSystemStatus)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/symbols", func(r chi.Router) {
			r.Get("/", s.handleListSymbols)
			r.Get("/{symbol}", s.handleGetSymbol)
			r.Get("/{symbol}/prices", s.handleGetPrices)
			r.Get("/{symbol}/score", s.handleGetScore)
			r.Get("/{symbol}/freshness", s.handleFreshness)
		})

		r.Get("/scores/top", s.handleTopScores)
		r.Post("/scores/recompute", s.handleRecomputeScores)
		r.Get("/freshness", s.handleFreshness)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", s.handleListSources)
			r.Get("/{source_id}", s.handleGetSource)
			r.Post("/{source_id}/trigger", s.handleTriggerSource)
			r.Post("/category/{category}/trigger", s.handleTriggerCategory)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{job_id}", s.handleGetJob)
		})
	})
}

// Start begins serving HTTP traffic; it blocks until Shutdown is called or
// the listener fails.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.portFromAddr()).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) portFromAddr() int {
	var port int
	_, _ = fmt.Sscanf(s.server.Addr, ":%d", &port)
	return port
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
