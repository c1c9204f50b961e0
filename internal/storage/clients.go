package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// CreateAPIClient registers an admin client with a freshly generated key
func (r *PostgresRepository) CreateAPIClient(ctx context.Context, name string, permissions []string) (*models.APIClient, error) {
	if permissions == nil {
		permissions = []string{}
	}
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal permissions: %w", err)
	}

	client := &models.APIClient{
		Name:        name,
		APIKey:      "esl_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		IsActive:    true,
		Permissions: permissions,
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, permissions)
		VALUES ($1, $2, TRUE, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, query, name, client.APIKey, permissionsJSON).Scan(&client.ID, &client.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	return client, nil
}

// GetClientByAPIKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByAPIKey(ctx context.Context, apiKey string) (*models.APIClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.APIClient
	var lastUsedAt *time.Time
	var permissionsJSON, metadataJSON []byte

	err := r.db.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.APIKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	client.LastUsedAt = lastUsedAt

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`

	if _, err := r.db.Exec(ctx, query, apiKey); err != nil {
		return fmt.Errorf("failed to update client last used: %w", err)
	}
	return nil
}
