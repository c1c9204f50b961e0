package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// ListFavorites returns the signed-in user's favorites
func (c *Client) ListFavorites(ctx context.Context) ([]models.GameRecommendation, error) {
	var out struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	if err := c.call(ctx, "list favorites", http.MethodGet, "/api/me/favorites", nil, nil, &out); err != nil {
		return nil, err
	}
	games := make([]models.GameRecommendation, len(out.Favorites))
	for i, f := range out.Favorites {
		games[i] = f.Game
	}
	return games, nil
}

// SaveFavorite stores game as a favorite, replacing any previous copy
func (c *Client) SaveFavorite(ctx context.Context, game models.GameRecommendation) error {
	path := "/api/me/favorites/" + url.PathEscape(models.GameID(game.Title))
	return c.call(ctx, "save favorite", http.MethodPut, path, game, nil, nil)
}

// RemoveFavorite deletes the favorite with the given title
func (c *Client) RemoveFavorite(ctx context.Context, title string) error {
	path := "/api/me/favorites/" + url.PathEscape(models.GameID(title))
	return c.call(ctx, "remove favorite", http.MethodDelete, path, nil, nil, nil)
}

// ListHistory returns recently opened games, most recent first
func (c *Client) ListHistory(ctx context.Context) ([]models.GameRecommendation, error) {
	var out struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := c.call(ctx, "list history", http.MethodGet, "/api/me/history", nil, nil, &out); err != nil {
		return nil, err
	}
	games := make([]models.GameRecommendation, len(out.History))
	for i, h := range out.History {
		games[i] = h.Game
	}
	return games, nil
}

// AddHistory records that game was opened
func (c *Client) AddHistory(ctx context.Context, game models.GameRecommendation) error {
	return c.call(ctx, "add history", http.MethodPost, "/api/me/history", game, nil, nil)
}

// ExportCatalog downloads the admin catalog export in "json" or "csv" format
func (c *Client) ExportCatalog(ctx context.Context, format string) ([]byte, error) {
	path := fmt.Sprintf("/api/admin/catalog?format=%s", url.QueryEscape(format))
	return c.doRequest(ctx, "export catalog", http.MethodGet, path, nil)
}
