package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

// statusFor maps repository errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondRepoError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		respondError(w, status, "not_found", op+": not found")
		return
	}
	s.log.Error("repository error", "op", op, "user_id", UserFromContext(r.Context()), "error", err)
	respondError(w, status, "internal_error", op+" failed")
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.deps.Repo.ListFavorites(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.respondRepoError(w, r, "list favorites", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"favorites": favorites,
		"total":     len(favorites),
	})
}

func (s *Server) handleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	var game models.GameRecommendation
	if err := decodeJSON(r, &game); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if game.Title == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "game_title is required")
		return
	}
	if id := chi.URLParam(r, "id"); id != models.GameID(game.Title) {
		respondError(w, http.StatusBadRequest, "validation_error", "id does not match game_title")
		return
	}

	fav, err := s.deps.Repo.SaveFavorite(r.Context(), UserFromContext(r.Context()), game)
	if err != nil {
		s.respondRepoError(w, r, "save favorite", err)
		return
	}
	respondJSON(w, http.StatusOK, fav)
}

func (s *Server) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Repo.DeleteFavorite(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.respondRepoError(w, r, "delete favorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Repo.ListHistory(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.respondRepoError(w, r, "list history", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"total":   len(entries),
	})
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var game models.GameRecommendation
	if err := decodeJSON(r, &game); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if game.Title == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "game_title is required")
		return
	}

	if err := s.deps.Repo.AddHistory(r.Context(), UserFromContext(r.Context()), game); err != nil {
		s.respondRepoError(w, r, "add history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
