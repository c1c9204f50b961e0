package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// Admin catalog handlers

var catalogCSVHeader = []string{"id", "title", "source", "season", "image_url", "tags", "materials", "created_at", "updated_at"}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, 1000)
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	games, err := s.deps.Repo.ListGames(r.Context(), limit, offset)
	if err != nil {
		s.respondRepoError(w, r, "list catalog", err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		if games == nil {
			games = []*models.CatalogGame{}
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"games":  games,
			"total":  len(games),
			"limit":  limit,
			"offset": offset,
		})
	case "csv":
		writeCatalogCSV(w, games)
	default:
		respondError(w, http.StatusBadRequest, "validation_error", "format must be json or csv")
	}
}

func writeCatalogCSV(w http.ResponseWriter, games []*models.CatalogGame) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="catalog.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write(catalogCSVHeader)
	for _, g := range games {
		cw.Write([]string{
			g.ID,
			g.Title,
			string(g.Source),
			g.Season,
			g.ImageURL,
			strings.Join(g.Tags, "|"),
			g.Materials,
			g.CreatedAt.UTC().Format(time.RFC3339),
			g.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

func (s *Server) handleGetCatalogGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.deps.Repo.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondRepoError(w, r, "get catalog game", err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleBackfillImages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Backfill == nil {
		respondError(w, http.StatusServiceUnavailable, "backfill_disabled", "image backfill is not configured")
		return
	}

	filled, err := s.deps.Backfill.RunOnce(r.Context())
	if err != nil {
		s.log.Error("image backfill failed", "error", err, "filled", filled)
		respondError(w, http.StatusInternalServerError, "internal_error", "image backfill failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"filled": filled})
}
