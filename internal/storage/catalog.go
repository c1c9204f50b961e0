package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

const catalogColumns = `id, title, source, season, image_url, detail, created_at, updated_at`

// UpsertGame inserts or replaces a catalog game. created_at and the source
// of an existing row are preserved, and an empty image URL never clears a stored one.
func (r *PostgresRepository) UpsertGame(ctx context.Context, g *models.CatalogGame) error {
	if g.ID == "" {
		g.ID = models.GameID(g.Title)
	}
	if g.Season == "" {
		g.Season = models.SeasonOf(g.Title)
	}
	if g.Source == "" {
		g.Source = models.SourceGenerated
	}

	detailJSON, err := json.Marshal(g.GameDetail)
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}

	query := `
		INSERT INTO catalog_games (id, title, source, season, image_url, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			season = EXCLUDED.season,
			image_url = COALESCE(NULLIF(EXCLUDED.image_url, ''), catalog_games.image_url),
			detail = EXCLUDED.detail,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		g.ID,
		g.Title,
		string(g.Source),
		g.Season,
		g.ImageURL,
		detailJSON,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	return nil
}

// GetGame retrieves a catalog game by id
func (r *PostgresRepository) GetGame(ctx context.Context, id string) (*models.CatalogGame, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_games WHERE id = $1`

	g, err := scanGame(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// ListGames returns catalog games, most recently updated first
func (r *PostgresRepository) ListGames(ctx context.Context, limit, offset int) ([]*models.CatalogGame, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + catalogColumns + ` FROM catalog_games ORDER BY updated_at DESC LIMIT $1 OFFSET $2`
	return r.queryGames(ctx, query, limit, offset)
}

// GamesWithoutImages returns the oldest games that still lack a thumbnail
func (r *PostgresRepository) GamesWithoutImages(ctx context.Context, limit int) ([]*models.CatalogGame, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_games WHERE image_url = '' ORDER BY created_at ASC LIMIT $1`
	return r.queryGames(ctx, query, limit)
}

// UpdateGameImage stores the thumbnail URL of a game
func (r *PostgresRepository) UpdateGameImage(ctx context.Context, id, imageURL string) error {
	query := `UPDATE catalog_games SET image_url = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update game image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) queryGames(ctx context.Context, query string, args ...any) ([]*models.CatalogGame, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*models.CatalogGame
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}

	return games, rows.Err()
}

func scanGame(row scanner) (*models.CatalogGame, error) {
	var g models.CatalogGame
	var title, source string
	var detailJSON []byte

	err := row.Scan(
		&g.ID,
		&title,
		&source,
		&g.Season,
		&g.ImageURL,
		&detailJSON,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(detailJSON, &g.GameDetail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
	}
	g.Title = title
	g.Source = models.CatalogSource(source)

	return &g, nil
}
