package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/esl-game-lab/internal/engine"
	"github.com/terra-clan/esl-game-lab/internal/models"
)

// filterFlags binds one repeatable flag per facet
type filterFlags struct {
	values map[models.Facet]*[]string
}

func bindFilterFlags(cmd *cobra.Command) *filterFlags {
	ff := &filterFlags{values: make(map[models.Facet]*[]string, len(models.Facets))}
	for _, facet := range models.Facets {
		name := strings.ToLower(string(facet))
		if facet == models.FacetClassSize {
			name = "class-size"
		}
		ff.values[facet] = cmd.Flags().StringSlice(name, nil, fmt.Sprintf("%s filter, repeatable", facet))
	}
	return ff
}

func (ff *filterFlags) set() bool {
	for _, v := range ff.values {
		if len(*v) > 0 {
			return true
		}
	}
	return false
}

func (ff *filterFlags) filters() models.SelectionFilters {
	f := models.SelectionFilters{
		Skill:     *ff.values[models.FacetSkill],
		Level:     *ff.values[models.FacetLevel],
		Purpose:   *ff.values[models.FacetPurpose],
		ClassSize: *ff.values[models.FacetClassSize],
		Time:      *ff.values[models.FacetTime],
		Theme:     *ff.values[models.FacetTheme],
	}
	return f.Normalize()
}

// printProgress returns a listener that writes each new loading line once
func printProgress(w io.Writer) func(engine.Snapshot) {
	last := ""
	return func(snap engine.Snapshot) {
		line := progressLine(snap)
		if line == "" || line == last {
			return
		}
		last = line
		fmt.Fprintln(w, line)
	}
}

func newSearchCmd(a *App) *cobra.Command {
	var (
		topic string
		more  bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Get game recommendations for a set of filters",
		Example: `  eslctl search --skill Speaking --level A1 --class-size "Small group"
  eslctl search --skill Grammar --topic "Past Simple"
  eslctl search --more`,
		Args: cobra.MaximumNArgs(1),
	}
	ff := bindFilterFlags(cmd)
	cmd.Flags().StringVar(&topic, "topic", "", "grammar topic, used only with --skill Grammar")
	cmd.Flags().BoolVar(&more, "more", false, "append more games to the last results")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := a.newEngine(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		eng.Boot(ctx, "")

		req := engine.SearchRequest{Filters: ff.filters(), GrammarTopic: topic, Append: more}
		if len(args) == 1 {
			req.Query = args[0]
		}
		if prev := eng.Snapshot().Filters; more && !ff.set() && prev != nil {
			req.Filters = *prev
		}

		cancel := eng.Subscribe(printProgress(cmd.ErrOrStderr()))
		ok := eng.Search(ctx, req)
		cancel()

		snap := eng.Snapshot()
		if !ok {
			return errors.New(snap.Err)
		}
		renderSearchResult(cmd.OutOrStdout(), snap, a.content.Categories)
		return nil
	}
	return cmd
}

// resolveGame picks a game by 1-based position in recs or by title
func resolveGame(recs []models.GameRecommendation, arg string) (models.GameRecommendation, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(recs) {
			return models.GameRecommendation{}, fmt.Errorf("no game #%d, the list has %d", n, len(recs))
		}
		return recs[n-1], nil
	}
	title := strings.TrimSpace(arg)
	if title == "" {
		return models.GameRecommendation{}, fmt.Errorf("game title is required")
	}
	id := models.GameID(title)
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.GameRecommendation{ID: id, Title: title}, nil
}

func newDetailCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <number|title>",
		Short: "Show the lesson plan for a game from the last results or by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			eng.Boot(ctx, "")

			snap := eng.Snapshot()
			rec, err := resolveGame(snap.Recommendations, strings.Join(args, " "))
			if err != nil {
				return err
			}
			var filters models.SelectionFilters
			if snap.Filters != nil {
				filters = *snap.Filters
			}

			cancel := eng.Subscribe(printProgress(cmd.ErrOrStderr()))
			ok := eng.LoadDetail(ctx, rec, filters)
			cancel()

			snap = eng.Snapshot()
			if !ok {
				return errors.New(snap.Err)
			}
			a.recordHistory(ctx, rec)
			renderDetail(cmd.OutOrStdout(), snap.Detail)
			return nil
		},
	}
}

// recordHistory stores an opened game in the signed-in history, best effort
func (a *App) recordHistory(ctx context.Context, rec models.GameRecommendation) {
	if a.cfg.Token == "" {
		return
	}
	if err := a.backend.AddHistory(ctx, rec); err != nil {
		a.log.Warn("failed to record history", "game_id", rec.ID, "error", err)
	}
}

func newTopicsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List grammar topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderTopics(cmd.OutOrStdout(), a.content, a.cfg.Language)
			return nil
		},
	}
}

func newOptionsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the values accepted by each filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderFilters(cmd.OutOrStdout(), a.content.SelectionOptions)
			return nil
		},
	}
}

func newHealthCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.backend.Health(cmd.Context()); err != nil {
				return fmt.Errorf("backend unhealthy: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend ok (%s)\n", a.cfg.BaseURL)
			return nil
		},
	}
}

func newShellCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			sh := NewShell(a, eng, cmd.InOrStdin(), cmd.OutOrStdout())
			return sh.Run(ctx)
		},
	}
}
