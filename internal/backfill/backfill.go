// Package backfill fills in missing catalog thumbnails in the background.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/recommender"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

// Catalog is the part of the repository the worker needs
type Catalog interface {
	GamesWithoutImages(ctx context.Context, limit int) ([]*models.CatalogGame, error)
	UpdateGameImage(ctx context.Context, id, imageURL string) error
}

// Worker periodically asks the image generator for catalog games without an image
type Worker struct {
	catalog   Catalog
	images    recommender.ImageGenerator
	interval  time.Duration
	batchSize int
	log       *slog.Logger

	// serializes batches between the ticker and on-demand runs
	runMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a new backfill worker
func NewWorker(catalog Catalog, images recommender.ImageGenerator, interval time.Duration, batchSize int, log *slog.Logger) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		catalog:   catalog,
		images:    images,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With("component", "backfill"),
	}
}

// Start begins the worker loop in a goroutine. Calling Start twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop cancels the loop and waits for the current batch to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.log.Info("backfill worker started", "interval", w.interval, "batch_size", w.batchSize)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on start
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("backfill worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("backfill cycle failed", "error", err)
	}
}

// RunOnce fills one batch and returns how many games got an image.
// Per-game failures are logged and skipped.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	games, err := w.catalog.GamesWithoutImages(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list games without images: %w", err)
	}
	if len(games) == 0 {
		w.log.Debug("no games without images")
		return 0, nil
	}

	w.log.Info("found games without images", "count", len(games))

	filled := 0
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return filled, err
		}

		resp, err := w.images.Generate(ctx, models.ImageRequest{
			Prompt: recommender.ImagePrompt(g.Title, g.Season),
			GameID: g.ID,
			Season: g.Season,
		})
		if err != nil {
			w.log.Error("failed to generate image", "error", err, "game_id", g.ID)
			continue
		}

		if err := w.catalog.UpdateGameImage(ctx, g.ID, resp.ImageURL); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				w.log.Warn("game disappeared before image update", "game_id", g.ID)
				continue
			}
			w.log.Error("failed to store image", "error", err, "game_id", g.ID)
			continue
		}

		filled++
		w.log.Debug("image stored", "game_id", g.ID, "image_url", resp.ImageURL)
	}

	w.log.Info("backfill cycle finished", "filled", filled, "candidates", len(games))
	return filled, nil
}
