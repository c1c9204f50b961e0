package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// Keys used by the typed cache
const (
	KeyFilters      = "filters:last"
	KeyResults      = "results:last"
	KeyDetailIndex  = "detail:index"
	detailKeyPrefix = "detail:"
)

const (
	// MaxCachedResults caps the persisted result batch
	MaxCachedResults = 30
	// DefaultMaxDetails bounds the number of cached game details
	DefaultMaxDetails = 64
)

// DetailKey returns the key of a cached game detail
func DetailKey(gameID string) string {
	return detailKeyPrefix + gameID
}

// Cache stores the last search and fetched details as JSON on top of a Store.
// Read and write failures are logged and treated as misses.
type Cache struct {
	store      Store
	maxDetails int
	log        *slog.Logger

	// guards the detail index read-modify-write
	indexMu sync.Mutex
}

// Option configures a Cache
type Option func(*Cache)

// WithMaxDetails bounds the number of cached details, least recently used first out
func WithMaxDetails(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxDetails = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// New wraps store in a typed cache
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:      store,
		maxDetails: DefaultMaxDetails,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "cache")
	return c
}

// Close closes the underlying store
func (c *Cache) Close() error {
	return c.store.Close()
}

// LastFilters returns the filters of the last successful search
func (c *Cache) LastFilters(ctx context.Context) (models.SelectionFilters, bool) {
	var f models.SelectionFilters
	ok := c.getJSON(ctx, KeyFilters, &f)
	return f, ok
}

// SaveFilters records the filters of a successful search
func (c *Cache) SaveFilters(ctx context.Context, f models.SelectionFilters) {
	c.setJSON(ctx, KeyFilters, f)
}

// LastResults returns the last persisted result batch
func (c *Cache) LastResults(ctx context.Context) ([]models.GameRecommendation, bool) {
	var recs []models.GameRecommendation
	ok := c.getJSON(ctx, KeyResults, &recs)
	return recs, ok
}

// SaveResults persists at most MaxCachedResults recommendations
func (c *Cache) SaveResults(ctx context.Context, recs []models.GameRecommendation) {
	if len(recs) > MaxCachedResults {
		recs = recs[:MaxCachedResults]
	}
	c.setJSON(ctx, KeyResults, recs)
}

// Detail returns the cached detail of a game and marks it recently used
func (c *Cache) Detail(ctx context.Context, gameID string) (*models.GameDetail, bool) {
	var d models.GameDetail
	if !c.getJSON(ctx, DetailKey(gameID), &d) {
		return nil, false
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	index := c.loadIndex(ctx)
	if i := slices.Index(index, gameID); i >= 0 && i != len(index)-1 {
		index = append(slices.Delete(index, i, i+1), gameID)
		c.setJSON(ctx, KeyDetailIndex, index)
	}
	return &d, true
}

// SaveDetail caches a game detail, evicting the least recently used
// details once more than the configured maximum are stored.
func (c *Cache) SaveDetail(ctx context.Context, gameID string, d models.GameDetail) {
	if !c.setJSON(ctx, DetailKey(gameID), d) {
		return
	}

	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	index := c.loadIndex(ctx)
	if i := slices.Index(index, gameID); i >= 0 {
		index = slices.Delete(index, i, i+1)
	}
	index = append(index, gameID)

	// ids whose delete fails stay at the front and are retried on the next save
	if excess := len(index) - c.maxDetails; excess > 0 {
		var pending []string
		for _, evicted := range index[:excess] {
			if err := c.store.Delete(ctx, DetailKey(evicted)); err != nil {
				c.log.Warn("failed to evict detail", "game_id", evicted, "error", err)
				pending = append(pending, evicted)
				continue
			}
			c.log.Debug("detail evicted", "game_id", evicted)
		}
		index = append(pending, index[excess:]...)
	}

	c.setJSON(ctx, KeyDetailIndex, index)
}

// DetailIDs returns cached detail ids, least recently used first
func (c *Cache) DetailIDs(ctx context.Context) []string {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()
	return c.loadIndex(ctx)
}

func (c *Cache) loadIndex(ctx context.Context) []string {
	var index []string
	c.getJSON(ctx, KeyDetailIndex, &index)
	return index
}

func (c *Cache) getJSON(ctx context.Context, key string, out any) bool {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn("cache entry is not valid JSON", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("failed to encode cache entry", "key", key, "error", err)
		return false
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
		return false
	}
	return true
}
