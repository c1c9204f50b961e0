package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// ListFavorites returns the saved games of a user, most recently saved first
func (r *PostgresRepository) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	query := `SELECT game, updated_at FROM favorites WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		f := models.Favorite{UserID: userID}
		var gameJSON []byte
		if err := rows.Scan(&gameJSON, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		if err := json.Unmarshal(gameJSON, &f.Game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal favorite: %w", err)
		}
		favorites = append(favorites, f)
	}

	return favorites, rows.Err()
}

// SaveFavorite stores game for a user. A later save of the same game wins.
func (r *PostgresRepository) SaveFavorite(ctx context.Context, userID string, game models.GameRecommendation) (*models.Favorite, error) {
	game.ID = models.GameID(game.Title)

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal favorite: %w", err)
	}

	query := `
		INSERT INTO favorites (user_id, game_id, game, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, game_id) DO UPDATE SET game = EXCLUDED.game, updated_at = NOW()
		RETURNING updated_at
	`

	var updatedAt time.Time
	if err := r.db.QueryRow(ctx, query, userID, game.ID, gameJSON).Scan(&updatedAt); err != nil {
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}

	return &models.Favorite{UserID: userID, Game: game, UpdatedAt: updatedAt}, nil
}

// DeleteFavorite removes a saved game
func (r *PostgresRepository) DeleteFavorite(ctx context.Context, userID, gameID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND game_id = $2`, userID, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHistory returns the opened games of a user, most recent first
func (r *PostgresRepository) ListHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	query := `SELECT game, viewed_at FROM history WHERE user_id = $1 ORDER BY viewed_at DESC LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, models.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		e := models.HistoryEntry{UserID: userID}
		var gameJSON []byte
		if err := rows.Scan(&gameJSON, &e.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		if err := json.Unmarshal(gameJSON, &e.Game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// AddHistory moves game to the front of the user's history. Entries are
// unique by title and only the newest HistoryLimit are kept.
func (r *PostgresRepository) AddHistory(ctx context.Context, userID string, game models.GameRecommendation) error {
	game.ID = models.GameID(game.Title)

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	upsert := `
		INSERT INTO history (user_id, title, game, viewed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, title) DO UPDATE SET game = EXCLUDED.game, viewed_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsert, userID, game.Title, gameJSON); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("failed to add history: %w", err)
	}

	trim := `
		DELETE FROM history
		WHERE user_id = $1 AND title NOT IN (
			SELECT title FROM history WHERE user_id = $1 ORDER BY viewed_at DESC LIMIT $2
		)
	`
	if _, err := tx.Exec(ctx, trim, userID, models.HistoryLimit); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("failed to trim history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}
