// Package content holds the static catalogs the product ships with:
// famous games, grammar topics, selection options and the activity classifier table.
package content

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/esl-game-lab/internal/classify"
	"github.com/terra-clan/esl-game-lab/internal/models"
)

//go:embed content.yaml
var embedded []byte

// FamousGame is a well-known classroom game shown while results load
type FamousGame struct {
	Title string `yaml:"title" json:"title"`
	Tip   string `yaml:"tip" json:"tip"`
	Icon  string `yaml:"icon" json:"icon"`
}

// Recommendation turns the famous game into a placeholder recommendation
func (g FamousGame) Recommendation() models.GameRecommendation {
	return models.GameRecommendation{
		ID:               models.GameID(g.Title),
		Ranking:          1,
		Title:            g.Title,
		Tags:             []string{"Classic", "Featured", "Interactive", "Popular"},
		SummaryEnglish:   g.Tip,
		SummaryLocalized: g.Tip,
		Icon:             g.Icon,
	}
}

// Content is one loaded content bundle
type Content struct {
	HistoryLimit       int                          `yaml:"history_limit" json:"historyLimit"`
	FamousGames        []FamousGame                 `yaml:"famous_games" json:"famousGames"`
	GrammarTopics      []string                     `yaml:"grammar_topics" json:"grammarTopics"`
	GrammarTopicLabels map[string]map[string]string `yaml:"grammar_topic_labels" json:"grammarTopicLabels"`
	SelectionOptions   models.SelectionFilters      `yaml:"selection_options" json:"selectionOptions"`
	Categories         classify.Table               `yaml:"categories" json:"-"`
}

// TopicLabel returns the localized label of a grammar topic, falling back to the topic itself
func (c *Content) TopicLabel(language, topic string) string {
	if labels, ok := c.GrammarTopicLabels[language]; ok {
		if label, ok := labels[topic]; ok {
			return label
		}
	}
	return topic
}

// IsGrammarTopic reports whether topic is one of the known grammar topics
func (c *Content) IsGrammarTopic(topic string) bool {
	for _, t := range c.GrammarTopics {
		if t == topic {
			return true
		}
	}
	return false
}

// RandomFamousGame picks a famous game using r, or nil when none are loaded
func (c *Content) RandomFamousGame(r *rand.Rand) *FamousGame {
	if len(c.FamousGames) == 0 {
		return nil
	}
	var i int
	if r == nil {
		i = rand.IntN(len(c.FamousGames))
	} else {
		i = r.IntN(len(c.FamousGames))
	}
	g := c.FamousGames[i]
	return &g
}

// Loader manages the active content bundle
type Loader struct {
	mu      sync.RWMutex
	content *Content
}

// NewLoader creates a loader holding the embedded default content
func NewLoader() (*Loader, error) {
	c, err := Parse(embedded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded content: %w", err)
	}
	return &Loader{content: c}, nil
}

// Default returns the embedded content. It panics only if the embedded file is broken.
func Default() *Content {
	c, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded content: %v", err))
	}
	return c
}

// LoadFromFile replaces the active content with a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.content = c
	l.mu.Unlock()

	slog.Info("content loaded",
		"file", path,
		"famous_games", len(c.FamousGames),
		"grammar_topics", len(c.GrammarTopics),
		"categories", len(c.Categories.Categories),
	)
	return nil
}

// Get returns the active content
func (l *Loader) Get() *Content {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.content
}

// Parse decodes and validates a content bundle
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(c.GrammarTopics) == 0 {
		return nil, fmt.Errorf("grammar_topics is required")
	}
	for i, g := range c.FamousGames {
		if g.Title == "" {
			return nil, fmt.Errorf("famous_games[%d]: title is required", i)
		}
	}
	for i, cat := range c.Categories.Categories {
		if cat.Key == "" {
			return nil, fmt.Errorf("categories.table[%d]: key is required", i)
		}
	}

	if c.HistoryLimit <= 0 {
		c.HistoryLimit = models.HistoryLimit
	}
	if c.Categories.Default.Key == "" {
		c.Categories.Default = classify.Category{Key: "DEFAULT", Label: "MODULE INITIALIZED", Emoji: "✨"}
	}
	c.SelectionOptions = c.SelectionOptions.Normalize()

	return &c, nil
}
