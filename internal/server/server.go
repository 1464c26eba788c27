// Package server provides the HTTP API for ryori.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/ryori/internal/config"
	"github.com/hyperjump/ryori/internal/metrics"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/storage"
)

// Server is the HTTP server for the recommendation API.
type Server struct {
	engine *recommend.Engine
	store  storage.RecipeStore
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server over engine. store is the recipe database when catalog.source
// is sqlite and may be nil. cfg supplies the listen address, request limits and the paths
// reported by /api/v1/status.
func NewServer(engine *recommend.Engine, store storage.RecipeStore, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// Router builds the route tree with its middleware stack.
func (s *Server) Router() http.Handler {
	timeout := s.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware())

	r.Get("/", s.handleRoot)
	r.Post("/predict", s.handlePredict)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", s.handleRecommend)
		r.Get("/recipes/search", s.handleSearchRecipes)
		r.Get("/recipes/{index}", s.handleGetRecipe)
		r.Get("/recipes/{index}/similar", s.handleSimilarRecipes)
		r.Get("/catalog", s.handleListStoredRecipes)
		r.Get("/catalog/{index}", s.handleGetStoredRecipe)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
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
