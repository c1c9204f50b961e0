package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/classify"
	"github.com/terra-clan/esl-game-lab/internal/content"
	"github.com/terra-clan/esl-game-lab/internal/engine"
	"github.com/terra-clan/esl-game-lab/internal/models"
)

func summaryOf(r models.GameRecommendation) string {
	if r.SummaryLocalized != "" {
		return r.SummaryLocalized
	}
	return r.SummaryEnglish
}

func renderList(w io.Writer, recs []models.GameRecommendation, table classify.Table) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No games yet. Try a search.")
		return
	}
	for i := range recs {
		r := &recs[i]
		fmt.Fprintf(w, "%2d. %s %s\n", i+1, table.Icon(r), r.Title)
		if s := summaryOf(*r); s != "" {
			fmt.Fprintf(w, "    %s\n", s)
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(w, "    [%s]\n", strings.Join(r.Tags, ", "))
		}
	}
}

func renderSearchResult(w io.Writer, snap engine.Snapshot, table classify.Table) {
	renderList(w, snap.Recommendations, table)
	if snap.ResultIncomplete {
		fmt.Fprintln(w, "Only a few games matched the grammar topic. Try \"more\" for extra ideas.")
	}
}

func renderDetail(w io.Writer, d *models.GameDetail) {
	fmt.Fprintf(w, "%s %s\n", d.Icon, d.Title)
	if len(d.Tags) > 0 {
		fmt.Fprintf(w, "[%s]\n", strings.Join(d.Tags, ", "))
	}
	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}
	if d.Materials != "" {
		fmt.Fprintf(w, "\nMaterials: %s\n", d.Materials)
	}
	renderSection(w, "How to play", d.HowToPlay, true)
	renderSection(w, "Teacher directions (simple)", d.TeacherDirections.Simple, false)
	renderSection(w, "Teacher directions (medium)", d.TeacherDirections.Medium, false)
	renderSection(w, "Teacher directions (complex)", d.TeacherDirections.Complex, false)
	renderSection(w, "Student interactions", d.StudentInteractions, false)
	if d.Caution != "" {
		fmt.Fprintf(w, "\nCaution: %s\n", d.Caution)
	}
}

func renderSection(w io.Writer, heading string, lines []string, numbered bool) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for i, line := range lines {
		if numbered {
			fmt.Fprintf(w, "  %d. %s\n", i+1, line)
			continue
		}
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

func renderFilters(w io.Writer, f models.SelectionFilters) {
	for _, facet := range models.Facets {
		values := f.Values(facet)
		label := "any"
		if len(values) > 0 {
			label = strings.Join(values, ", ")
		}
		fmt.Fprintf(w, "%-10s %s\n", facet+":", label)
	}
}

func renderTopics(w io.Writer, c *content.Content, language string) {
	for _, topic := range c.GrammarTopics {
		label := c.TopicLabel(language, topic)
		if label != topic {
			fmt.Fprintf(w, "%s (%s)\n", topic, label)
			continue
		}
		fmt.Fprintln(w, topic)
	}
}

// progressLine renders one loading update, "" when nothing should print
func progressLine(snap engine.Snapshot) string {
	if !snap.Loading() {
		return ""
	}
	line := fmt.Sprintf("... %d%%", snap.Milestone)
	if s := snap.LoadingSuggestion; s != nil && snap.Phase() != engine.PhaseDetailLoading {
		line += fmt.Sprintf("  while you wait: %s", s.Title)
		if s.SummaryEnglish != "" {
			line += " - " + s.SummaryEnglish
		}
	}
	return line
}
