package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for backend persistence
type Repository interface {
	// Catalog
	UpsertGame(ctx context.Context, g *models.CatalogGame) error
	GetGame(ctx context.Context, id string) (*models.CatalogGame, error)
	ListGames(ctx context.Context, limit, offset int) ([]*models.CatalogGame, error)
	GamesWithoutImages(ctx context.Context, limit int) ([]*models.CatalogGame, error)
	UpdateGameImage(ctx context.Context, id, imageURL string) error

	// Favorites
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
	SaveFavorite(ctx context.Context, userID string, game models.GameRecommendation) (*models.Favorite, error)
	DeleteFavorite(ctx context.Context, userID, gameID string) error

	// History
	ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	AddHistory(ctx context.Context, userID string, game models.GameRecommendation) error

	// API Clients
	CreateAPIClient(ctx context.Context, name string, permissions []string) (*models.APIClient, error)
	GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
