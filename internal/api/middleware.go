package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/auth"
	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

// AuthMiddleware handles API key authentication for admin routes
type AuthMiddleware struct {
	repo storage.Repository
	log  *slog.Logger
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{repo: repo, log: log.With("component", "auth")}
}

// Authenticate verifies the API key from the Authorization or X-API-Key header.
// Supports "Bearer esl_xxx" and a raw key.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "missing api key", "provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		client, err := m.repo.GetClientByAPIKey(r.Context(), apiKey)
		if errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("invalid api key attempt", "key_prefix", models.MaskKey(apiKey), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid api key", "the provided api key is not valid")
			return
		}
		if err != nil {
			m.log.Error("failed to lookup api client", "error", err, "key_prefix", models.MaskKey(apiKey))
			respondError(w, http.StatusInternalServerError, "authentication error", "internal server error")
			return
		}

		if !client.IsActive {
			m.log.Warn("inactive client attempt", "client", client.Name, "key_prefix", models.MaskKey(apiKey))
			respondError(w, http.StatusUnauthorized, "client inactive", "this api key has been deactivated")
			return
		}

		// last_used_at is best effort and must not delay the request
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateClientLastUsed(ctx, apiKey); err != nil {
				m.log.Error("failed to update client last_used_at", "error", err, "client", client.Name)
			}
		}()

		m.log.Debug("authenticated request", "client", client.Name, "key_prefix", client.MaskedKey())

		next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), client)))
	})
}

// RequirePermission returns middleware that checks for a specific permission
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			if client == nil {
				respondError(w, http.StatusUnauthorized, "not authenticated", "authentication required")
				return
			}

			if !client.HasPermission(permission) {
				m.log.Warn("permission denied",
					"client", client.Name,
					"required", permission,
					"has", client.Permissions,
				)
				respondError(w, http.StatusForbidden, "permission denied",
					"client does not have required permission: "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserAuth verifies a user bearer token and stores its subject in the context
func UserAuth(tokens *auth.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "missing token", "provide Authorization: Bearer <token>")
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				log.Warn("invalid user token", "error", err, "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "invalid token", "the provided token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), userID)))
		})
	}
}

// extractAPIKey extracts the API key from request headers
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if key, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return key
		}
		return authHeader
	}
	return r.Header.Get("X-API-Key")
}
