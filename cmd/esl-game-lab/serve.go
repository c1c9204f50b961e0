package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/api"
	"github.com/terra-clan/esl-game-lab/internal/auth"
	"github.com/terra-clan/esl-game-lab/internal/backfill"
	"github.com/terra-clan/esl-game-lab/internal/cache"
	"github.com/terra-clan/esl-game-lab/internal/config"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/recommender"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

// migrations returns the directory override or the embedded set
func migrations(cfg *config.Config) fs.FS {
	if cfg.Database.MigrationsDir != "" {
		return os.DirFS(cfg.Database.MigrationsDir)
	}
	return storage.EmbeddedMigrations()
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("starting esl-game-lab",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"model", cfg.Gemini.Model,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, migrations(cfg)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		MaxLifetime:  cfg.Database.MaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to create database repository: %w", err)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	ready := map[string]api.Pinger{"postgres": repo}

	// Model client, optionally behind the Redis detail memo
	gemini, err := recommender.NewGemini(initCtx, recommender.GeminiConfig{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		SystemInstruction: cfg.Gemini.SystemInstruction,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	var generator recommender.Generator = gemini
	if cfg.Redis.Enabled {
		memoStore, err := cache.NewRedisStore(initCtx, cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.DetailTTL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect detail memo: %w", err)
		}
		defer memoStore.Close()
		generator = recommender.NewMemo(gemini, memoStore, slog.Default())
		ready["redis"] = memoStore
		slog.Info("detail memo enabled", "address", cfg.Redis.Address, "ttl", cfg.Redis.DetailTTL)
	}

	images := recommender.Placeholder{BaseURL: cfg.Gemini.PlaceholderURL}

	// Load content
	contentLoader, err := content.NewLoader()
	if err != nil {
		return err
	}
	if cfg.Content.Path != "" {
		if err := contentLoader.LoadFromFile(cfg.Content.Path); err != nil {
			slog.Warn("failed to load content override, using embedded content", "file", cfg.Content.Path, "error", err)
		}
	}

	var tokens *auth.Manager
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	} else {
		slog.Warn("AUTH_JWT_SECRET not set, favorites and history are disabled")
	}

	var limiter *api.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize image backfill worker
	worker := backfill.NewWorker(repo, images, cfg.Backfill.Interval, cfg.Backfill.BatchSize, slog.Default())
	if cfg.Backfill.Enabled {
		worker.Start(ctx)
	}

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Generator: generator,
		Images:    images,
		Repo:      repo,
		Content:   contentLoader,
		Tokens:    tokens,
		Backfill:  worker,
		Ready:     ready,
		Logger:    slog.Default(),
	}, limiter)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		cancel()
		worker.Stop()
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("shutting down gracefully...")

	// Stop background workers
	cancel()
	worker.Stop()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("esl-game-lab stopped")
	return nil
}
