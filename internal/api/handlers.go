package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// Error codes of the model-backed routes
const (
	errRecommendations = "Failed to fetch recommendations"
	errGameDetail      = "Failed to fetch game details"
	errImage           = "Failed to generate image"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, models.ErrorResponse{Error: code, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.Ready))
	ready := true
	for name, p := range s.deps.Ready {
		if err := p.Ping(ctx); err != nil {
			s.log.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Content.Get())
}

// Model-backed handlers

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.Filters == nil {
		respondError(w, http.StatusBadRequest, "Filters are required", "")
		return
	}
	if req.Language == "" {
		req.Language = models.LanguageEnglish
	}

	batch, err := s.deps.Generator.Recommend(r.Context(), req)
	if err != nil {
		s.log.Error("failed to fetch recommendations", "error", err, "language", req.Language)
		respondError(w, http.StatusInternalServerError, errRecommendations, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, batch)
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	var req models.GameDetailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.GameTitle == "" || req.Filters == nil {
		respondError(w, http.StatusBadRequest, "gameTitle and filters are required", "")
		return
	}
	if req.Language == "" {
		req.Language = models.LanguageEnglish
	}

	detail, err := s.deps.Generator.Detail(r.Context(), req)
	if err != nil {
		s.log.Error("failed to fetch game details", "error", err, "game_title", req.GameTitle)
		respondError(w, http.StatusInternalServerError, errGameDetail, err.Error())
		return
	}

	if s.deps.Repo != nil {
		game := models.NewCatalogGame(*detail, models.SourceGenerated)
		if err := s.deps.Repo.UpsertGame(context.WithoutCancel(r.Context()), game); err != nil {
			s.log.Warn("failed to store catalog game", "game_id", game.ID, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req models.ImageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}
	if req.Prompt == "" || req.GameID == "" {
		respondError(w, http.StatusBadRequest, "prompt and gameId are required", "")
		return
	}

	resp, err := s.deps.Images.Generate(r.Context(), req)
	if err != nil {
		s.log.Error("failed to generate image", "error", err, "game_id", req.GameID)
		respondError(w, http.StatusInternalServerError, errImage, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
