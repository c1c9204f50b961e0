// Package api serves the recommendation proxy, per-user libraries and the admin catalog over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/esl-game-lab/internal/auth"
	"github.com/terra-clan/esl-game-lab/internal/config"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/recommender"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backfiller fills missing catalog images on demand
type Backfiller interface {
	RunOnce(ctx context.Context) (int, error)
}

// Deps are the collaborators of the server
type Deps struct {
	Generator recommender.Generator
	Images    recommender.ImageGenerator
	Repo      storage.Repository
	Content   *content.Loader
	// Tokens verifies user tokens. Nil disables the /api/me routes.
	Tokens *auth.Manager
	// Backfill serves the admin trigger. Nil disables it.
	Backfill Backfiller
	// Ready lists the dependencies checked by /ready, by name
	Ready  map[string]Pinger
	Logger *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	deps           Deps
	log            *slog.Logger
	authMiddleware *AuthMiddleware
	limiter        *RateLimiter
}

// NewServer creates a new API server. limiter may be nil to disable rate limiting.
func NewServer(cfg config.ServerConfig, deps Deps, limiter *RateLimiter) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		config:         cfg,
		deps:           deps,
		log:            deps.Logger.With("component", "api"),
		authMiddleware: NewAuthMiddleware(deps.Repo, deps.Logger),
		limiter:        limiter,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	if s.config.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(s.config.MaxBodyBytes))
	}

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", s.handleContent)

		// model-backed routes
		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Middleware)
			}
			r.Post("/recommendations", s.handleRecommendations)
			r.Post("/game-detail", s.handleGameDetail)
			r.Post("/image-proxy/generate", s.handleGenerateImage)
		})

		if s.deps.Tokens != nil {
			r.Route("/me", func(r chi.Router) {
				r.Use(UserAuth(s.deps.Tokens, s.log))

				r.Get("/favorites", s.handleListFavorites)
				r.Put("/favorites/{id}", s.handleSaveFavorite)
				r.Delete("/favorites/{id}", s.handleDeleteFavorite)

				r.Get("/history", s.handleListHistory)
				r.Post("/history", s.handleAddHistory)
			})
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware.Authenticate)

			r.With(s.authMiddleware.RequirePermission(models.PermCatalogRead)).Get("/catalog", s.handleListCatalog)
			r.With(s.authMiddleware.RequirePermission(models.PermCatalogRead)).Get("/catalog/{id}", s.handleGetCatalogGame)
			r.With(s.authMiddleware.RequirePermission(models.PermCatalogWrite)).Post("/catalog/images", s.handleBackfillImages)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
