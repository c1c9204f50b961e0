// Package engine runs recommendation searches and detail loads against the
// backend, keeping only the effect of the most recent request.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/esl-game-lab/internal/cache"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/models"
)

// DefaultRequestTimeout bounds a single backend call
const DefaultRequestTimeout = 60 * time.Second

var errEmptyResponse = errors.New("empty response")

// Fetcher performs the backend calls
type Fetcher interface {
	FetchRecommendations(ctx context.Context, req models.RecommendationsRequest) (*models.RecommendationBatch, error)
	FetchGameDetail(ctx context.Context, req models.GameDetailRequest) (*models.GameDetail, error)
}

// SearchRequest describes one search
type SearchRequest struct {
	Filters      models.SelectionFilters
	Query        string
	GrammarTopic string
	Append       bool
}

type listener struct {
	id uint64
	fn func(Snapshot)
}

// Engine owns the recommendation list, the selected detail and the
// loading state. It is safe for concurrent use.
type Engine struct {
	fetcher Fetcher
	cache   *cache.Cache
	log     *slog.Logger

	timeout     time.Duration
	dedup       bool
	suggestions []content.FamousGame
	rand        *rand.Rand

	mu       sync.Mutex
	seq      sequencer
	state    Snapshot
	version  uint64
	language string

	notifyMu  sync.Mutex
	delivered uint64
	listeners []listener
	nextID    uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithLanguage sets the initial output language
func WithLanguage(code string) Option {
	return func(e *Engine) {
		e.language = code
	}
}

// WithRequestTimeout bounds each backend call. Zero or negative keeps the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithDedupOnAppend skips appended recommendations whose id is already listed
func WithDedupOnAppend(enabled bool) Option {
	return func(e *Engine) {
		e.dedup = enabled
	}
}

// WithSuggestions sets the famous games shown while a search loads
func WithSuggestions(games []content.FamousGame) Option {
	return func(e *Engine) {
		e.suggestions = games
	}
}

// WithRand sets the random source used to pick loading suggestions
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine. store may be nil to disable persistence.
func New(fetcher Fetcher, store *cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		cache:    store,
		log:      slog.Default(),
		timeout:  DefaultRequestTimeout,
		language: models.LanguageEnglish,
		state:    Snapshot{Booting: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "engine")
	return e
}

// Snapshot returns the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Language returns the output language sent to the backend
func (e *Engine) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// SetLanguage changes the output language. Unsupported codes are ignored.
func (e *Engine) SetLanguage(code string) bool {
	if !models.IsSupportedLanguage(code) {
		return false
	}
	e.mu.Lock()
	e.language = code
	e.mu.Unlock()
	return true
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn must not call Search, LoadDetail, Boot or ClearError synchronously.
func (e *Engine) Subscribe(fn func(Snapshot)) (cancel func()) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, listener{id: id, fn: fn})

	return func() {
		e.notifyMu.Lock()
		defer e.notifyMu.Unlock()
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// commit replaces the state, releases e.mu and notifies listeners.
// A snapshot older than one already delivered is dropped.
// Must be called with e.mu held.
func (e *Engine) commit(next Snapshot) {
	e.state = next
	e.version++
	version := e.version
	snap := next.clone()
	e.mu.Unlock()

	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	if version <= e.delivered {
		return
	}
	e.delivered = version
	for i, l := range e.listeners {
		if i > 0 {
			snap = snap.clone()
		}
		l.fn(snap)
	}
}

// ClearError dismisses the error banner
func (e *Engine) ClearError() {
	e.mu.Lock()
	next := e.state
	next.Err = ""
	e.commit(next)
}

// Boot fills the state from the cache before any network call. A fragment
// of the form "#/detail/<id>" also restores that cached detail.
// Boot has no effect on state once a request has been issued.
func (e *Engine) Boot(ctx context.Context, fragment string) {
	var (
		filters    models.SelectionFilters
		hasFilters bool
		results    []models.GameRecommendation
		detail     *models.GameDetail
	)
	if e.cache != nil {
		filters, hasFilters = e.cache.LastFilters(ctx)
		results, _ = e.cache.LastResults(ctx)
		if id := detailIDFromFragment(fragment); id != "" {
			detail, _ = e.cache.Detail(ctx, id)
		}
	}

	e.mu.Lock()
	next := e.state
	next.Booting = false
	if !e.seq.issued() {
		if hasFilters {
			next.Filters = &filters
		}
		next.Recommendations = results
		next.Detail = detail
	}
	e.log.Debug("boot completed", "cached_results", len(results), "cached_detail", detail != nil)
	e.commit(next)
}

func detailIDFromFragment(fragment string) string {
	fragment = strings.TrimLeft(fragment, "#/")
	segments := strings.Split(fragment, "/")
	if len(segments) >= 2 && segments[0] == "detail" && segments[1] != "" {
		return segments[1]
	}
	return ""
}

// Search fetches recommendations for filters. It returns true when its
// result became the visible state and false on failure or supersession.
func (e *Engine) Search(ctx context.Context, req SearchRequest) bool {
	filters := req.Filters.Normalize()
	topic := req.GrammarTopic
	if topic != "" && !filters.HasSkill(models.GrammarSkill) {
		e.log.Debug("grammar topic ignored without grammar skill", "topic", topic)
		topic = ""
	}

	e.mu.Lock()
	epoch := e.seq.next()
	var excluded []string
	if req.Append {
		excluded = titles(e.state.Recommendations)
	}
	language := e.language
	e.commit(beginSearch(e.state, req.Append, e.suggestion()))

	e.advance(epoch, milestoneSearchFetch)

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	batch, err := e.fetcher.FetchRecommendations(fetchCtx, models.RecommendationsRequest{
		Filters:       &filters,
		SearchQuery:   req.Query,
		Language:      language,
		GrammarTopic:  topic,
		ExcludedGames: excluded,
	})
	cancel()
	if err == nil && batch == nil {
		err = errEmptyResponse
	}

	e.mu.Lock()
	if !e.seq.current(epoch) {
		e.mu.Unlock()
		e.log.Debug("stale response discarded", "op", "search", "epoch", epoch)
		return false
	}

	if err != nil {
		e.log.Warn("search failed", "op", "search", "epoch", epoch, "error", err)
		e.commit(failSearch(e.state))
		return false
	}

	batch.AssignIDs()
	recs, incomplete := filterByGrammar(batch.Recommendations, topic)
	if incomplete {
		e.log.Info("grammar results incomplete", "topic", topic, "kept", len(recs), "received", len(batch.Recommendations))
	}

	next := completeSearch(e.state, filters, recs, req.Append, incomplete, e.dedup)
	if e.cache != nil {
		persistCtx := context.WithoutCancel(ctx)
		e.cache.SaveFilters(persistCtx, filters)
		e.cache.SaveResults(persistCtx, next.Recommendations)
	}
	e.commit(next)
	return true
}

// LoadDetail fetches the lesson plan for rec. The loaded detail carries
// rec's tags. Returns true when the detail became the visible state.
func (e *Engine) LoadDetail(ctx context.Context, rec models.GameRecommendation, filters models.SelectionFilters) bool {
	if rec.ID == "" {
		rec.ID = models.GameID(rec.Title)
	}
	filters = filters.Normalize()

	e.mu.Lock()
	epoch := e.seq.next()
	language := e.language
	e.commit(beginDetail(e.state, rec))

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	detail, err := e.fetcher.FetchGameDetail(fetchCtx, models.GameDetailRequest{
		GameTitle: rec.Title,
		Filters:   &filters,
		Language:  language,
	})
	cancel()
	if err == nil && detail == nil {
		err = errEmptyResponse
	}

	e.mu.Lock()
	if !e.seq.current(epoch) {
		e.mu.Unlock()
		e.log.Debug("stale response discarded", "op", "detail", "epoch", epoch)
		return false
	}

	if err != nil {
		e.log.Warn("detail load failed", "op", "detail", "epoch", epoch, "game_id", rec.ID, "error", err)
		e.commit(failDetail(e.state))
		return false
	}

	merged := detail.WithTags(rec.Tags)
	if e.cache != nil {
		e.cache.SaveDetail(context.WithoutCancel(ctx), rec.ID, merged)
	}
	e.commit(completeDetail(e.state, merged))
	return true
}

// advance raises the progress milestone if epoch is still current
func (e *Engine) advance(epoch uint64, milestone int) {
	e.mu.Lock()
	if !e.seq.current(epoch) {
		e.mu.Unlock()
		return
	}
	e.commit(advance(e.state, milestone))
}

// suggestion picks a famous game to show while a search loads
func (e *Engine) suggestion() *models.GameRecommendation {
	if len(e.suggestions) == 0 {
		return nil
	}
	var i int
	if e.rand != nil {
		i = e.rand.IntN(len(e.suggestions))
	} else {
		i = rand.IntN(len(e.suggestions))
	}
	rec := e.suggestions[i].Recommendation()
	return &rec
}

func titles(recs []models.GameRecommendation) []string {
	if len(recs) == 0 {
		return nil
	}
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}
