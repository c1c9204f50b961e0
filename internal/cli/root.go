// Package cli implements the eslctl command tree and its interactive shell.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/esl-game-lab/internal/cache"
	"github.com/terra-clan/esl-game-lab/internal/config"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/engine"
	"github.com/terra-clan/esl-game-lab/internal/logging"
	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/pkg/client"
)

// Backend is the part of the backend API eslctl uses
type Backend interface {
	engine.Fetcher
	ListFavorites(ctx context.Context) ([]models.GameRecommendation, error)
	SaveFavorite(ctx context.Context, game models.GameRecommendation) error
	RemoveFavorite(ctx context.Context, title string) error
	AddHistory(ctx context.Context, game models.GameRecommendation) error
	Health(ctx context.Context) error
}

// App holds what every command needs. Dependencies are built lazily
// in the persistent pre-run so that --help works without a config.
type App struct {
	cfg     *config.ClientConfig
	backend Backend
	store   cache.Store
	cache   *cache.Cache
	content *content.Content
	log     *slog.Logger

	// flag overrides
	apiURL      string
	language    string
	token       string
	backendName string
}

// Option configures the App, mainly for tests
type Option func(*App)

// WithBackend replaces the HTTP client
func WithBackend(b Backend) Option {
	return func(a *App) {
		a.backend = b
	}
}

// WithStore replaces the configured cache store
func WithStore(s cache.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// NewRootCmd builds the eslctl command tree
func NewRootCmd(opts ...Option) *cobra.Command {
	app := &App{}
	for _, opt := range opts {
		opt(app)
	}

	root := &cobra.Command{
		Use:   "eslctl",
		Short: "Find classroom games for ESL lessons from the terminal",
		Long: `eslctl asks the ESL Game Lab backend for classroom game recommendations
and lesson plans. Results are cached locally so the last search and every
opened lesson plan survive restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&app.apiURL, "api-url", "", "backend base URL (overrides ESL_API_URL)")
	root.PersistentFlags().StringVar(&app.language, "lang", "", "output language: en, ko, ja or zh")
	root.PersistentFlags().StringVar(&app.token, "token", "", "bearer token for favorites and history")
	root.PersistentFlags().StringVar(&app.backendName, "cache", "", "local cache backend: memory, sqlite or redis")

	root.AddCommand(
		newSearchCmd(app),
		newDetailCmd(app),
		newTopicsCmd(app),
		newOptionsCmd(app),
		newHealthCmd(app),
		newShellCmd(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.BaseURL = a.apiURL
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.backendName != "" {
		cfg.Cache.Backend = a.backendName
	}
	if a.language != "" {
		if !models.IsSupportedLanguage(a.language) {
			return fmt.Errorf("unsupported language %q (supported: %v)", a.language, models.SupportedLanguages)
		}
		cfg.Language = a.language
	}
	a.cfg = cfg
	a.log = logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())

	loader, err := content.NewLoader()
	if err != nil {
		return err
	}
	a.content = loader.Get()

	if a.backend == nil {
		a.backend = client.New(cfg.BaseURL,
			client.WithTimeout(cfg.Timeout+5*time.Second),
			client.WithToken(cfg.Token),
			client.WithLogger(a.log),
		)
	}
	return nil
}

// openCache opens the configured store on first use
func (a *App) openCache(ctx context.Context) (*cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	if a.store == nil {
		store, err := cache.NewRegistry().Open(ctx, cache.Config{
			Backend:    a.cfg.Cache.Backend,
			SQLitePath: a.cfg.Cache.Path,
			Redis: cache.RedisConfig{
				Address:  a.cfg.Cache.RedisAddress,
				Password: a.cfg.Cache.RedisPassword,
				DB:       a.cfg.Cache.RedisDB,
				Prefix:   a.cfg.Cache.RedisPrefix,
			},
			MaxDetails: a.cfg.Cache.MaxDetails,
		})
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	a.cache = cache.New(a.store, cache.WithMaxDetails(a.cfg.Cache.MaxDetails), cache.WithLogger(a.log))
	return a.cache, nil
}

// newEngine builds an orchestrator over the backend and the local cache.
// Callers release the cache with close.
func (a *App) newEngine(ctx context.Context) (*engine.Engine, error) {
	store, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(a.backend, store,
		engine.WithLanguage(a.cfg.Language),
		engine.WithRequestTimeout(a.cfg.Timeout),
		engine.WithDedupOnAppend(a.cfg.DedupOnAppend),
		engine.WithSuggestions(a.content.FamousGames),
		engine.WithLogger(a.log),
	), nil
}

func (a *App) close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("failed to close cache", "error", err)
	}
	a.cache = nil
	a.store = nil
}

// Execute runs the command tree with the given arguments and streams
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) error {
	root := NewRootCmd(opts...)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
