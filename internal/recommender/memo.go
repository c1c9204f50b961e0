package recommender

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/cache"
	"github.com/terra-clan/esl-game-lab/internal/models"
)

// Memo remembers generated lesson plans so repeated requests for the same
// game, language and levels skip the model. Recommendations are never memoised.
type Memo struct {
	Generator
	store cache.Store
	log   *slog.Logger
}

// NewMemo wraps gen with a detail memo kept in store
func NewMemo(gen Generator, store cache.Store, log *slog.Logger) *Memo {
	if log == nil {
		log = slog.Default()
	}
	return &Memo{Generator: gen, store: store, log: log.With("component", "detail-memo")}
}

// MemoKey identifies one generated detail
func MemoKey(req models.GameDetailRequest) string {
	var levels []string
	if req.Filters != nil {
		levels = slices.Clone(req.Filters.Level)
		slices.Sort(levels)
	}
	lang := req.Language
	if lang == "" {
		lang = models.LanguageEnglish
	}
	return "memo:detail:" + models.GameID(req.GameTitle) + ":" + lang + ":" + strings.Join(levels, ",")
}

// Detail returns the memoised detail or generates and stores a new one.
// Memo failures are logged and never fail the request.
func (m *Memo) Detail(ctx context.Context, req models.GameDetailRequest) (*models.GameDetail, error) {
	key := MemoKey(req)

	if raw, ok, err := m.store.Get(ctx, key); err != nil {
		m.log.Warn("memo read failed", "key", key, "error", err)
	} else if ok {
		var d models.GameDetail
		if err := json.Unmarshal(raw, &d); err == nil {
			m.log.Debug("memo hit", "key", key)
			return &d, nil
		}
		m.log.Warn("memo entry corrupt", "key", key)
	}

	d, err := m.Generator.Detail(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(d)
	if err == nil {
		err = m.store.Set(ctx, key, raw)
	}
	if err != nil {
		m.log.Warn("memo write failed", "key", key, "error", err)
	}
	return d, nil
}
