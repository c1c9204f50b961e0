package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/esl-game-lab/internal/auth"
	"github.com/terra-clan/esl-game-lab/internal/config"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	adminKey   = "esl_admin_key_1234"
	readerKey  = "esl_reader_key_1234"
)

type fakeGenerator struct {
	batch     *models.RecommendationBatch
	detail    *models.GameDetail
	err       error
	lastRecs  models.RecommendationsRequest
	lastDeets models.GameDetailRequest
}

func (f *fakeGenerator) Recommend(_ context.Context, req models.RecommendationsRequest) (*models.RecommendationBatch, error) {
	f.lastRecs = req
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

func (f *fakeGenerator) Detail(_ context.Context, req models.GameDetailRequest) (*models.GameDetail, error) {
	f.lastDeets = req
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

type fakeImages struct{ err error }

func (f fakeImages) Generate(_ context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ImageResponse{ImageURL: "https://img.test/" + req.GameID}, nil
}

// memRepo is an in-memory Repository
type memRepo struct {
	mu        sync.Mutex
	games     map[string]*models.CatalogGame
	favorites map[string][]models.Favorite
	history   map[string][]models.GameRecommendation
	clients   map[string]*models.APIClient
	lastUsed  map[string]int
	err       error
}

func newMemRepo() *memRepo {
	return &memRepo{
		games:     make(map[string]*models.CatalogGame),
		favorites: make(map[string][]models.Favorite),
		history:   make(map[string][]models.GameRecommendation),
		clients: map[string]*models.APIClient{
			adminKey:  {ID: 1, Name: "admin", APIKey: adminKey, IsActive: true, Permissions: []string{"catalog:*"}},
			readerKey: {ID: 2, Name: "reader", APIKey: readerKey, IsActive: true, Permissions: []string{models.PermCatalogRead}},
			"esl_off": {ID: 3, Name: "off", APIKey: "esl_off", IsActive: false, Permissions: []string{"*"}},
		},
		lastUsed: make(map[string]int),
	}
}

func (m *memRepo) UpsertGame(_ context.Context, g *models.CatalogGame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *memRepo) GetGame(_ context.Context, id string) (*models.CatalogGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return g, nil
}

func (m *memRepo) ListGames(_ context.Context, limit, offset int) ([]*models.CatalogGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var out []*models.CatalogGame
	for i, id := range ids {
		if i < offset || len(out) == limit {
			continue
		}
		out = append(out, m.games[id])
	}
	return out, nil
}

func (m *memRepo) GamesWithoutImages(context.Context, int) ([]*models.CatalogGame, error) {
	return nil, nil
}

func (m *memRepo) UpdateGameImage(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return storage.ErrNotFound
	}
	g.ImageURL = url
	return nil
}

func (m *memRepo) ListFavorites(_ context.Context, userID string) ([]models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.favorites[userID]), nil
}

func (m *memRepo) SaveFavorite(_ context.Context, userID string, game models.GameRecommendation) (*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game.ID = models.GameID(game.Title)
	fav := models.Favorite{UserID: userID, Game: game, UpdatedAt: time.Now()}
	m.favorites[userID] = slices.DeleteFunc(m.favorites[userID], func(f models.Favorite) bool {
		return f.Game.ID == game.ID
	})
	m.favorites[userID] = append(m.favorites[userID], fav)
	return &fav, nil
}

func (m *memRepo) DeleteFavorite(_ context.Context, userID, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.favorites[userID])
	m.favorites[userID] = slices.DeleteFunc(m.favorites[userID], func(f models.Favorite) bool {
		return f.Game.ID == gameID
	})
	if len(m.favorites[userID]) == before {
		return storage.ErrNotFound
	}
	return nil
}

func (m *memRepo) ListHistory(_ context.Context, userID string) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryEntry
	for _, g := range m.history[userID] {
		out = append(out, models.HistoryEntry{UserID: userID, Game: g})
	}
	return out, nil
}

func (m *memRepo) AddHistory(_ context.Context, userID string, game models.GameRecommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = models.PrependHistory(m.history[userID], game)
	return nil
}

func (m *memRepo) CreateAPIClient(_ context.Context, name string, perms []string) (*models.APIClient, error) {
	return nil, errors.New("not supported")
}

func (m *memRepo) GetClientByAPIKey(_ context.Context, key string) (*models.APIClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.clients[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) UpdateClientLastUsed(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUsed[key]++
	return nil
}

func (m *memRepo) usedCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUsed[key]
}

func (m *memRepo) Ping(context.Context) error { return m.err }
func (m *memRepo) Close() error { return nil }

type fakeBackfill struct {
	filled int
	err    error
}

func (f fakeBackfill) RunOnce(context.Context) (int, error) { return f.filled, f.err }

type testEnv struct {
	server *Server
	gen    *fakeGenerator
	repo   *memRepo
	tokens *auth.Manager
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()

	loader, err := content.NewLoader()
	require.NoError(t, err)

	env := &testEnv{
		gen: &fakeGenerator{
			batch: &models.RecommendationBatch{
				Screen: 2,
				Recommendations: []models.GameRecommendation{
					{ID: models.GameID("Bingo"), Title: "Bingo", Ranking: 0.9, Tags: []string{"Vocabulary"}},
				},
			},
			detail: &models.GameDetail{Screen: 3, Title: "Christmas Bingo", Materials: "Cards", Tags: []string{"Vocabulary", "Fun"}},
		},
		repo:   newMemRepo(),
		tokens: auth.NewManager(testSecret, "esl-game-lab", time.Hour),
	}

	deps := Deps{
		Generator: env.gen,
		Images:    fakeImages{},
		Repo:      env.repo,
		Content:   loader,
		Tokens:    env.tokens,
		Backfill:  fakeBackfill{filled: 3},
		Ready:     map[string]Pinger{"postgres": env.repo},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&deps)
	}

	cfg := config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20}
	env.server = NewServer(cfg, deps, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) bearer(t *testing.T, user string) map[string]string {
	t.Helper()
	token, err := e.tokens.Issue(user)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339Nano, body["timestamp"])
	assert.NoError(t, err)
}

func TestReady(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.repo.err = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","checks":{"postgres":"unavailable"}}`, rec.Body.String())
}

func TestContent(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/content", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body content.Content
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.FamousGames)
	assert.NotEmpty(t, body.GrammarTopics)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/recommendations", map[string]any{
		"filters":       models.SelectionFilters{Skill: []string{"Speaking"}},
		"excludedGames": []string{"Tag"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var batch models.RecommendationBatch
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&batch))
	require.Len(t, batch.Recommendations, 1)
	assert.Equal(t, "bingo", batch.Recommendations[0].ID)

	assert.Equal(t, models.LanguageEnglish, env.gen.lastRecs.Language)
	assert.Equal(t, []string{"Tag"}, env.gen.lastRecs.ExcludedGames)
}

func TestRecommendations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		genErr  error
		status  int
		code    string
		message string
	}{
		{name: "missing filters", body: map[string]any{"language": "ko"}, status: http.StatusBadRequest, code: "Filters are required"},
		{name: "bad json", body: "{", status: http.StatusBadRequest, code: "Invalid JSON body"},
		{
			name:    "model failure",
			body:    map[string]any{"filters": map[string]any{}},
			genErr:  errors.New("quota exceeded"),
			status:  http.StatusInternalServerError,
			code:    "Failed to fetch recommendations",
			message: "quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.gen.err = tt.genErr

			rec := env.do(t, http.MethodPost, "/api/recommendations", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Message)
			}
		})
	}
}

func TestGameDetail_StoresCatalogGame(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/game-detail", map[string]any{
		"gameTitle": "Christmas Bingo",
		"filters":   map[string]any{"level": []string{"A1"}},
		"language":  "ko",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail models.GameDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "Christmas Bingo", detail.Title)
	assert.Equal(t, "ko", env.gen.lastDeets.Language)

	stored, err := env.repo.GetGame(context.Background(), "christmas-bingo")
	require.NoError(t, err)
	assert.Equal(t, models.SourceGenerated, stored.Source)
	assert.Equal(t, "christmas", stored.Season)
}

func TestGameDetail_CatalogFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	env.repo.err = errors.New("db down")

	rec := env.do(t, http.MethodPost, "/api/game-detail", map[string]any{
		"gameTitle": "Christmas Bingo",
		"filters":   map[string]any{},
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGameDetail_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/game-detail", map[string]any{"gameTitle": "Bingo"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "gameTitle and filters are required", decodeError(t, rec).Error)

	env.gen.err = errors.New("boom")
	rec = env.do(t, http.MethodPost, "/api/game-detail", map[string]any{"gameTitle": "Bingo", "filters": map[string]any{}}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch game details", decodeError(t, rec).Error)
}

func TestGenerateImage(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/image-proxy/generate", models.ImageRequest{Prompt: "kids", GameID: "bingo"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imageUrl":"https://img.test/bingo"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/image-proxy/generate", models.ImageRequest{Prompt: "kids"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "prompt and gameId are required", decodeError(t, rec).Error)

	env = newTestEnv(t, func(d *Deps) { d.Images = fakeImages{err: errors.New("nope")} })
	rec = env.do(t, http.MethodPost, "/api/image-proxy/generate", models.ImageRequest{Prompt: "kids", GameID: "bingo"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate image", decodeError(t, rec).Error)
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.bearer(t, "alice")
	bob := env.bearer(t, "bob")

	game := models.GameRecommendation{Title: "Simon Says", Ranking: 0.8}

	rec := env.do(t, http.MethodPut, "/api/me/favorites/simon-says", game, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var fav models.Favorite
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fav))
	assert.Equal(t, "simon-says", fav.Game.ID)

	rec = env.do(t, http.MethodGet, "/api/me/favorites", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Favorites []models.Favorite `json:"favorites"`
		Total     int               `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	rec = env.do(t, http.MethodGet, "/api/me/favorites", nil, bob)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 0, list.Total)

	rec = env.do(t, http.MethodDelete, "/api/me/favorites/simon-says", nil, alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/me/favorites/simon-says", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavorites_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.bearer(t, "alice")

	rec := env.do(t, http.MethodPut, "/api/me/favorites/other", models.GameRecommendation{Title: "Simon Says"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/me/favorites/x", models.GameRecommendation{}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAuth(t *testing.T) {
	env := newTestEnv(t, nil)
	other := auth.NewManager("ffffffffffffffffffffffffffffffff", "esl-game-lab", time.Hour)
	forged, err := other.Issue("alice")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "no header"},
		{name: "not bearer", headers: map[string]string{"Authorization": "Basic abc"}},
		{name: "wrong secret", headers: map[string]string{"Authorization": "Bearer " + forged}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/me/history", nil, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUserRoutesDisabledWithoutTokens(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Tokens = nil })

	rec := env.do(t, http.MethodGet, "/api/me/history", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.bearer(t, "alice")

	for _, title := range []string{"Bingo", "Charades", "Bingo"} {
		rec := env.do(t, http.MethodPost, "/api/me/history", models.GameRecommendation{Title: title}, alice)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/me/history", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		History []models.HistoryEntry `json:"history"`
		Total   int                   `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 2, body.Total)
	assert.Equal(t, "Bingo", body.History[0].Game.Title)
	assert.Equal(t, "Charades", body.History[1].Game.Title)

	rec = env.do(t, http.MethodPost, "/api/me/history", models.GameRecommendation{}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		status  int
		code    string
	}{
		{name: "missing key", status: http.StatusUnauthorized, code: "missing api key"},
		{name: "unknown key", headers: map[string]string{"X-API-Key": "esl_nope"}, status: http.StatusUnauthorized, code: "invalid api key"},
		{name: "inactive", headers: map[string]string{"Authorization": "Bearer esl_off"}, status: http.StatusUnauthorized, code: "client inactive"},
		{name: "bearer ok", headers: map[string]string{"Authorization": "Bearer " + adminKey}, status: http.StatusOK},
		{name: "header ok", headers: map[string]string{"X-API-Key": readerKey}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			rec := env.do(t, http.MethodGet, "/api/admin/catalog", nil, tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Error)
			}
		})
	}
}

func TestAdminAuth_UpdatesLastUsed(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/admin/catalog", nil, map[string]string{"X-API-Key": adminKey})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Eventually(t, func() bool { return env.repo.usedCount(adminKey) == 1 }, time.Second, 5*time.Millisecond)
}

func TestAdminAuth_LookupError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.repo.err = errors.New("db down")

	rec := env.do(t, http.MethodGet, "/api/admin/catalog", nil, map[string]string{"X-API-Key": adminKey})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminPermissions(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/admin/catalog/images", nil, map[string]string{"X-API-Key": readerKey})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/admin/catalog/images", nil, map[string]string{"X-API-Key": adminKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"filled":3}`, rec.Body.String())
}

func TestAdminBackfillDisabled(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Backfill = nil })

	rec := env.do(t, http.MethodPost, "/api/admin/catalog/images", nil, map[string]string{"X-API-Key": adminKey})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func seedCatalog(t *testing.T, repo *memRepo) {
	t.Helper()
	for _, title := range []string{"Christmas Bingo", "Simon Says"} {
		g := models.NewCatalogGame(models.GameDetail{Title: title, Tags: []string{"Fun", "Vocabulary"}, Materials: "Cards"}, models.SourceGenerated)
		g.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		g.UpdatedAt = g.CreatedAt
		require.NoError(t, repo.UpsertGame(context.Background(), g))
	}
}

func TestAdminCatalog_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCatalog(t, env.repo)
	key := map[string]string{"X-API-Key": readerKey}

	rec := env.do(t, http.MethodGet, "/api/admin/catalog?limit=1&offset=1", nil, key)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Games  []models.CatalogGame `json:"games"`
		Total  int                  `json:"total"`
		Limit  int                  `json:"limit"`
		Offset int                  `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 1, body.Limit)
	assert.Equal(t, 1, body.Offset)
	assert.Equal(t, "simon-says", body.Games[0].ID)

	rec = env.do(t, http.MethodGet, "/api/admin/catalog?format=xml", nil, key)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminCatalog_CSV(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCatalog(t, env.repo)

	rec := env.do(t, http.MethodGet, "/api/admin/catalog?format=csv", nil, map[string]string{"X-API-Key": readerKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, catalogCSVHeader, records[0])
	assert.Equal(t, []string{
		"christmas-bingo", "Christmas Bingo", "generated", "christmas", "",
		"Fun|Vocabulary", "Cards", "2026-01-02T03:04:05Z", "2026-01-02T03:04:05Z",
	}, records[1])
}

func TestAdminCatalog_Get(t *testing.T) {
	env := newTestEnv(t, nil)
	seedCatalog(t, env.repo)
	key := map[string]string{"X-API-Key": readerKey}

	rec := env.do(t, http.MethodGet, "/api/admin/catalog/simon-says", nil, key)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/catalog/missing", nil, key)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)
}

func TestRateLimit(t *testing.T) {
	loader, err := content.NewLoader()
	require.NoError(t, err)

	gen := &fakeGenerator{batch: &models.RecommendationBatch{}}
	srv := NewServer(config.ServerConfig{}, Deps{
		Generator: gen,
		Repo:      newMemRepo(),
		Content:   loader,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, NewRateLimiter(0.001, 2, time.Minute))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/recommendations", strings.NewReader(`{"filters":{}}`))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	// static routes are not limited
	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_RefillAndSweep(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(2 * time.Minute)
	assert.True(t, l.Allow("c"))
	l.mu.Lock()
	assert.Len(t, l.visitors, 1)
	l.mu.Unlock()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "10.0.0.2", clientIP(r))
}
