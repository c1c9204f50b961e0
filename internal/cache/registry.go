package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a store backend
type Config struct {
	Backend    string
	SQLitePath string
	Redis      RedisConfig
	MaxDetails int
}

// Opener builds a store from configuration
type Opener func(ctx context.Context, cfg Config) (Store, error)

// Registry maps backend names to openers
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

// NewRegistry creates a registry with the built-in backends registered
func NewRegistry() *Registry {
	r := &Registry{openers: make(map[string]Opener)}
	r.Register(BackendMemory, func(context.Context, Config) (Store, error) {
		return NewMemoryStore(), nil
	})
	r.Register(BackendSQLite, func(ctx context.Context, cfg Config) (Store, error) {
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		return OpenSQLite(ctx, cfg.SQLitePath)
	})
	r.Register(BackendRedis, func(ctx context.Context, cfg Config) (Store, error) {
		return NewRedisStore(ctx, cfg.Redis)
	})
	return r
}

// Register adds or replaces an opener
func (r *Registry) Register(name string, opener Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[name] = opener
}

// List returns the registered backend names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.openers))
	for name := range r.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the store named by cfg.Backend
func (r *Registry) Open(ctx context.Context, cfg Config) (Store, error) {
	r.mu.RLock()
	opener, ok := r.openers[cfg.Backend]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown cache backend %q (available: %v)", cfg.Backend, r.List())
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := opener(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Backend, err)
	}
	return store, nil
}
