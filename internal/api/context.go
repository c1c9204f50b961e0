package api

import (
	"context"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

type contextKey string

const (
	clientContextKey contextKey = "api_client"
	userContextKey   contextKey = "user_id"
)

// ClientFromContext extracts the admin APIClient from context
func ClientFromContext(ctx context.Context) *models.APIClient {
	client, ok := ctx.Value(clientContextKey).(*models.APIClient)
	if !ok {
		return nil
	}
	return client
}

// ContextWithClient adds an APIClient to context
func ContextWithClient(ctx context.Context, client *models.APIClient) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// UserFromContext returns the authenticated user id, or ""
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userContextKey).(string)
	return id
}

// ContextWithUser adds a user id to context
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}
