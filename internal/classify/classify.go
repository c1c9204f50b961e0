// Package classify picks an activity category for a game from a keyword table.
package classify

import (
	"slices"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

const (
	hitScore    = 2
	strongBonus = 2
)

// Category is one row of the keyword table
type Category struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Emoji    string   `yaml:"emoji" json:"emoji"`
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`
	Strong   []string `yaml:"strong" json:"strong,omitempty"`
}

// Table is an ordered keyword table with a fallback category.
// Order matters: ties go to the earlier category.
type Table struct {
	Default    Category   `yaml:"default" json:"default"`
	Categories []Category `yaml:"table" json:"table"`
}

// Score returns the keyword score of one category against lowercased text
func (c Category) Score(text string) int {
	score := 0
	for _, kw := range c.Keywords {
		if !strings.Contains(text, kw) {
			continue
		}
		score += hitScore
		if slices.Contains(c.Strong, kw) {
			score += strongBonus
		}
	}
	return score
}

// Classify returns the highest scoring category for text, or the default
// category when nothing matches.
func (t Table) Classify(text string) Category {
	text = strings.ToLower(text)
	best := t.Default
	bestScore := 0
	for _, c := range t.Categories {
		if s := c.Score(text); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// Icon returns the icon for a recommendation: its own icon when set,
// otherwise the emoji of the category matched on title, summary and tags.
func (t Table) Icon(rec *models.GameRecommendation) string {
	if rec == nil {
		return t.Default.Emoji
	}
	if rec.Icon != "" {
		return rec.Icon
	}
	text := rec.Title + " " + rec.SummaryEnglish + " " + strings.Join(rec.Tags, " ")
	return t.Classify(text).Emoji
}
