package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recs(n int) []models.GameRecommendation {
	out := make([]models.GameRecommendation, n)
	for i := range out {
		title := fmt.Sprintf("Game %d", i)
		out[i] = models.GameRecommendation{ID: models.GameID(title), Title: title, Tags: []string{"a", "b", "c", "d"}}
	}
	return out
}

func TestCache_FiltersAndResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemoryStore(), WithLogger(newTestLogger()))

	_, ok := c.LastFilters(ctx)
	assert.False(t, ok)
	_, ok = c.LastResults(ctx)
	assert.False(t, ok)

	filters := models.SelectionFilters{Skill: []string{"Speaking", "Grammar"}, Level: []string{"A1"}}
	c.SaveFilters(ctx, filters)
	c.SaveResults(ctx, recs(45))

	gotFilters, ok := c.LastFilters(ctx)
	require.True(t, ok)
	assert.Equal(t, filters, gotFilters)

	gotResults, ok := c.LastResults(ctx)
	require.True(t, ok)
	assert.Len(t, gotResults, MaxCachedResults)
	assert.Equal(t, recs(45)[:MaxCachedResults], gotResults)
}

func TestCache_DetailEviction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, WithMaxDetails(3), WithLogger(newTestLogger()))

	for _, id := range []string{"a", "b", "c"} {
		c.SaveDetail(ctx, id, models.GameDetail{Title: id})
	}

	// touch "a" so "b" becomes least recently used
	d, ok := c.Detail(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "a", d.Title)

	c.SaveDetail(ctx, "d", models.GameDetail{Title: "d"})

	_, ok = c.Detail(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, []string{"c", "a", "d"}, c.DetailIDs(ctx))
	assert.NotContains(t, store.Keys(), DetailKey("b"))
}

func TestCache_DetailResaveDoesNotGrowIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(NewMemoryStore(), WithMaxDetails(2), WithLogger(newTestLogger()))

	c.SaveDetail(ctx, "a", models.GameDetail{Title: "a1"})
	c.SaveDetail(ctx, "a", models.GameDetail{Title: "a2"})

	assert.Equal(t, []string{"a"}, c.DetailIDs(ctx))
	d, ok := c.Detail(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "a2", d.Title)
}

// flakyDeleteStore fails the first delete it sees
type flakyDeleteStore struct {
	*MemoryStore
	failed bool
}

func (s *flakyDeleteStore) Delete(ctx context.Context, key string) error {
	if !s.failed {
		s.failed = true
		return errDisk
	}
	return s.MemoryStore.Delete(ctx, key)
}

func TestCache_FailedEvictionIsRetried(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &flakyDeleteStore{MemoryStore: NewMemoryStore()}
	c := New(store, WithMaxDetails(2), WithLogger(newTestLogger()))

	for _, id := range []string{"a", "b", "c"} {
		c.SaveDetail(ctx, id, models.GameDetail{Title: id})
	}

	assert.Equal(t, []string{"a", "b", "c"}, c.DetailIDs(ctx))
	assert.Contains(t, store.Keys(), DetailKey("a"))

	c.SaveDetail(ctx, "d", models.GameDetail{Title: "d"})

	assert.Equal(t, []string{"c", "d"}, c.DetailIDs(ctx))
	assert.NotContains(t, store.Keys(), DetailKey("a"))
	assert.NotContains(t, store.Keys(), DetailKey("b"))
}

type brokenStore struct{}

var errDisk = errors.New("disk on fire")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDisk }
func (brokenStore) Set(context.Context, string, []byte) error { return errDisk }
func (brokenStore) Delete(context.Context, string) error { return errDisk }
func (brokenStore) Close() error { return nil }

func TestCache_StoreFailuresAreMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(brokenStore{}, WithLogger(newTestLogger()))

	c.SaveFilters(ctx, models.SelectionFilters{})
	c.SaveDetail(ctx, "x", models.GameDetail{})

	_, ok := c.LastFilters(ctx)
	assert.False(t, ok)
	_, ok = c.Detail(ctx, "x")
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyResults, []byte("{not json")))

	c := New(store, WithLogger(newTestLogger()))
	_, ok := c.LastResults(ctx)
	assert.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))

	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Close())

	// data survives reopening
	store, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	c := New(store, WithLogger(newTestLogger()))
	c.SaveResults(ctx, recs(2))
	got, ok := c.LastResults(ctx)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRegistry()
	assert.Equal(t, []string{BackendMemory, BackendRedis, BackendSQLite}, r.List())

	store, err := r.Open(ctx, Config{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = r.Open(ctx, Config{Backend: BackendSQLite})
	assert.ErrorContains(t, err, "sqlite path is required")

	_, err = r.Open(ctx, Config{Backend: "etcd"})
	assert.ErrorContains(t, err, `unknown cache backend "etcd"`)
}

// TestRedisStore_Integration requires a running Redis and skips otherwise.
func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{Address: "localhost:6379", Prefix: "esl-game-lab-test:"})
	if err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	defer store.Close()

	c := New(store, WithMaxDetails(1), WithLogger(newTestLogger()))
	c.SaveDetail(ctx, "a", models.GameDetail{Title: "a"})
	c.SaveDetail(ctx, "b", models.GameDetail{Title: "b"})

	_, ok := c.Detail(ctx, "a")
	assert.False(t, ok)
	d, ok := c.Detail(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "b", d.Title)

	removed, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, 2)
}
