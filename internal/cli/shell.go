package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/engine"
	"github.com/terra-clan/esl-game-lab/internal/models"
	"github.com/terra-clan/esl-game-lab/internal/navigation"
)

const shellHelp = `Commands:
  filter <facet> <value>   toggle a filter value (facets: skill, level, purpose, classSize, time, theme)
  filters                  show the current filters
  topic <name>|off         set the grammar topic, used with skill Grammar
  lang <code>              output language: en, ko, ja, zh
  search [query]           get recommendations
  more                     append more recommendations
  open <n>                 open the lesson plan of game n
  back                     go back one screen
  home                     return to the filter screen
  fav <n>                  toggle game n as a favorite
  favs                     list favorites
  status                   show session state
  quit                     leave`

var errQuit = errors.New("quit")

// Shell is an interactive session over one engine and navigation stack
type Shell struct {
	app *App
	eng *engine.Engine
	nav *navigation.Stack
	in  io.Reader
	out io.Writer

	filters   models.SelectionFilters
	topic     string
	favorites []models.GameRecommendation
	favsReady bool
}

// NewShell creates a shell starting at the filter screen
func NewShell(app *App, eng *engine.Engine, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		app: app,
		eng: eng,
		nav: navigation.New(models.ScreenSelection),
		in:  in,
		out: out,
	}
}

// Run restores the cached session and executes commands until quit or EOF
func (s *Shell) Run(ctx context.Context) error {
	s.eng.Boot(ctx, "")
	cancel := s.eng.Subscribe(printProgress(s.out))
	defer cancel()

	snap := s.eng.Snapshot()
	if snap.Filters != nil {
		s.filters = *snap.Filters
	}
	if n := len(snap.Recommendations); n > 0 {
		s.nav.NavigateTo(models.ScreenList, "")
		fmt.Fprintf(s.out, "Restored %d games from the last session.\n", n)
	}
	fmt.Fprintln(s.out, `Type "help" for commands.`)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprintf(s.out, "%s> ", s.nav.Current().Screen)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		err := s.Exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs one command line
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "filter":
		return s.toggleFilter(args)
	case "filters":
		s.renderSelection()
	case "topic":
		return s.setTopic(rest)
	case "lang":
		if !s.eng.SetLanguage(rest) {
			return fmt.Errorf("unsupported language %q", rest)
		}
		fmt.Fprintf(s.out, "language: %s\n", models.LanguageName(rest))
	case "search":
		return s.search(ctx, rest, false)
	case "more":
		return s.search(ctx, "", true)
	case "open":
		return s.open(ctx, rest)
	case "back":
		s.render(ctx, s.nav.GoBack())
	case "home":
		s.render(ctx, s.nav.ResetToHome())
	case "fav":
		return s.toggleFavorite(ctx, rest)
	case "favs":
		return s.listFavorites(ctx)
	case "status":
		s.status(ctx)
	case "quit", "exit", "q":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

func (s *Shell) toggleFilter(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: filter <facet> <value>")
	}
	facet, ok := parseFacet(args[0])
	if !ok {
		return fmt.Errorf("unknown facet %q", args[0])
	}
	value := strings.Join(args[1:], " ")
	s.filters.Toggle(facet, value)
	if slices.Contains(s.filters.Values(facet), value) {
		fmt.Fprintf(s.out, "+ %s: %s\n", facet, value)
	} else {
		fmt.Fprintf(s.out, "- %s: %s\n", facet, value)
	}
	return nil
}

func parseFacet(name string) (models.Facet, bool) {
	for _, f := range models.Facets {
		if strings.EqualFold(string(f), name) || (f == models.FacetClassSize && strings.EqualFold(name, "class-size")) {
			return f, true
		}
	}
	return "", false
}

func (s *Shell) setTopic(name string) error {
	if name == "" || strings.EqualFold(name, "off") {
		s.topic = ""
		fmt.Fprintln(s.out, "grammar topic cleared")
		return nil
	}
	if !s.app.content.IsGrammarTopic(name) {
		return fmt.Errorf("unknown grammar topic %q, see eslctl topics", name)
	}
	s.topic = name
	if !s.filters.HasSkill(models.GrammarSkill) {
		fmt.Fprintf(s.out, "grammar topic %q applies only with: filter skill %s\n", name, models.GrammarSkill)
		return nil
	}
	fmt.Fprintf(s.out, "grammar topic: %s\n", name)
	return nil
}

func (s *Shell) search(ctx context.Context, query string, more bool) error {
	req := engine.SearchRequest{Filters: s.filters, Query: query, GrammarTopic: s.topic, Append: more}
	snap := s.eng.Snapshot()
	if more {
		if len(snap.Recommendations) == 0 {
			return fmt.Errorf("nothing to extend, run search first")
		}
		if snap.Filters != nil {
			req.Filters = *snap.Filters
		}
	}

	if !s.eng.Search(ctx, req) {
		return s.failure()
	}

	if s.nav.Current().Screen != models.ScreenList {
		s.nav.NavigateTo(models.ScreenList, "")
	}
	renderSearchResult(s.out, s.eng.Snapshot(), s.app.content.Categories)
	return nil
}

// failure reports the visible error of a failed or superseded call
func (s *Shell) failure() error {
	snap := s.eng.Snapshot()
	if snap.Err == "" {
		return nil
	}
	s.eng.ClearError()
	return errors.New(snap.Err)
}

func (s *Shell) pick(arg string) (models.GameRecommendation, error) {
	arg = strings.TrimSpace(arg)
	if _, err := strconv.Atoi(arg); err != nil {
		return models.GameRecommendation{}, fmt.Errorf("expected a game number, got %q", arg)
	}
	return resolveGame(s.eng.Snapshot().Recommendations, arg)
}

func (s *Shell) open(ctx context.Context, arg string) error {
	rec, err := s.pick(arg)
	if err != nil {
		return err
	}

	s.nav.NavigateTo(models.ScreenDetail, rec.ID)
	var filters models.SelectionFilters
	if f := s.eng.Snapshot().Filters; f != nil {
		filters = *f
	}
	if !s.eng.LoadDetail(ctx, rec, filters) {
		if cur := s.nav.Current(); cur.Screen == models.ScreenDetail && cur.ID() == rec.ID {
			s.nav.GoBack()
		}
		return s.failure()
	}

	s.app.recordHistory(ctx, rec)
	renderDetail(s.out, s.eng.Snapshot().Detail)
	return nil
}

// render prints the screen of entry
func (s *Shell) render(ctx context.Context, entry navigation.Entry) {
	switch entry.Screen {
	case models.ScreenList:
		renderList(s.out, s.eng.Snapshot().Recommendations, s.app.content.Categories)
	case models.ScreenDetail:
		if d, ok := s.app.cache.Detail(ctx, entry.ID()); ok {
			renderDetail(s.out, d)
			return
		}
		fmt.Fprintf(s.out, "lesson plan %s is no longer cached\n", entry.ID())
	case models.ScreenFavorites:
		renderList(s.out, s.favorites, s.app.content.Categories)
	default:
		s.renderSelection()
	}
}

func (s *Shell) renderSelection() {
	renderFilters(s.out, s.filters)
	if s.topic != "" {
		fmt.Fprintf(s.out, "%-10s %s\n", "topic:", s.app.content.TopicLabel(s.eng.Language(), s.topic))
	}
}

func (s *Shell) requireSignIn() error {
	if s.app.cfg.Token == "" {
		return fmt.Errorf("favorites need a sign-in token: set ESL_TOKEN or pass --token")
	}
	return nil
}

func (s *Shell) loadFavorites(ctx context.Context) error {
	favs, err := s.app.backend.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}
	s.favorites = favs
	s.favsReady = true
	return nil
}

func (s *Shell) isFavorite(id string) bool {
	for _, f := range s.favorites {
		if models.GameID(f.Title) == id {
			return true
		}
	}
	return false
}

func (s *Shell) toggleFavorite(ctx context.Context, arg string) error {
	if err := s.requireSignIn(); err != nil {
		return err
	}
	rec, err := s.pick(arg)
	if err != nil {
		return err
	}
	if !s.favsReady {
		if err := s.loadFavorites(ctx); err != nil {
			return err
		}
	}

	if s.isFavorite(rec.ID) {
		if err := s.app.backend.RemoveFavorite(ctx, rec.Title); err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		s.favorites = removeByID(s.favorites, rec.ID)
		fmt.Fprintf(s.out, "removed from favorites: %s\n", rec.Title)
		return nil
	}

	if err := s.app.backend.SaveFavorite(ctx, rec); err != nil {
		return fmt.Errorf("failed to save favorite: %w", err)
	}
	s.favorites = append(s.favorites, rec)
	fmt.Fprintf(s.out, "saved to favorites: %s\n", rec.Title)
	return nil
}

func removeByID(recs []models.GameRecommendation, id string) []models.GameRecommendation {
	out := recs[:0:0]
	for _, r := range recs {
		if models.GameID(r.Title) != id {
			out = append(out, r)
		}
	}
	return out
}

func (s *Shell) listFavorites(ctx context.Context) error {
	if err := s.requireSignIn(); err != nil {
		return err
	}
	if err := s.loadFavorites(ctx); err != nil {
		return err
	}
	if s.nav.Current().Screen != models.ScreenFavorites {
		s.nav.NavigateTo(models.ScreenFavorites, "")
	}
	renderList(s.out, s.favorites, s.app.content.Categories)
	return nil
}

func (s *Shell) status(ctx context.Context) {
	snap := s.eng.Snapshot()
	screens := make([]string, 0, s.nav.Len())
	for _, e := range s.nav.Entries() {
		name := e.Screen.String()
		if id := e.ID(); id != "" {
			name += "/" + id
		}
		screens = append(screens, name)
	}

	fmt.Fprintf(s.out, "screen:   %s\n", strings.Join(screens, " > "))
	fmt.Fprintf(s.out, "phase:    %s\n", snap.Phase())
	fmt.Fprintf(s.out, "games:    %d\n", len(snap.Recommendations))
	fmt.Fprintf(s.out, "language: %s\n", s.eng.Language())
	if snap.Detail != nil {
		fmt.Fprintf(s.out, "detail:   %s\n", snap.Detail.Title)
	}
	if ids := s.app.cache.DetailIDs(ctx); len(ids) > 0 {
		fmt.Fprintf(s.out, "cached:   %s\n", strings.Join(ids, ", "))
	}
}
