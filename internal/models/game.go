package models

import (
	"slices"
	"strings"
)

// GameRecommendation is one candidate activity returned by a search
type GameRecommendation struct {
	ID                 string   `json:"id"`
	Ranking            float64  `json:"ranking"`
	Title              string   `json:"game_title"`
	Tags               []string `json:"tags"`
	ThumbnailImage     string   `json:"thumbnail_image"`
	SummaryEnglish     string   `json:"summary_en"`
	SummaryLocalized   string   `json:"summary_localized,omitempty"`
	Icon               string   `json:"icon,omitempty"`
	GrammarFocus       string   `json:"grammar_focus,omitempty"`
	GrammarFocusReason string   `json:"grammar_focus_reason,omitempty"`
}

// MatchesGrammarTopic reports whether the recommendation covers topic,
// either through its declared grammar focus or through its summaries and tags.
func (r GameRecommendation) MatchesGrammarTopic(topic string) bool {
	lower := strings.ToLower(topic)
	if r.GrammarFocus != "" && strings.ToLower(r.GrammarFocus) == lower {
		return true
	}
	blob := strings.ToLower(r.SummaryLocalized + " " + r.SummaryEnglish + " " + strings.Join(r.Tags, " "))
	return strings.Contains(blob, lower)
}

// Clone returns a copy that shares no slices with r
func (r GameRecommendation) Clone() GameRecommendation {
	r.Tags = slices.Clone(r.Tags)
	return r
}

// TeacherDirections holds literal spoken lines bucketed by complexity
type TeacherDirections struct {
	Simple  []string `json:"simple"`
	Medium  []string `json:"medium"`
	Complex []string `json:"complex"`
}

// GameDetail is the full lesson plan for one recommendation
type GameDetail struct {
	Screen              int               `json:"screen,omitempty"`
	Title               string            `json:"game_title"`
	Icon                string            `json:"icon"`
	Illustration        string            `json:"illustration"`
	Tags                []string          `json:"tags"`
	Materials           string            `json:"materials"`
	Description         string            `json:"game_description"`
	HowToPlay           []string          `json:"how_to_play"`
	TeacherDirections   TeacherDirections `json:"teacher_directions"`
	StudentInteractions []string          `json:"student_interactions"`
	Caution             string            `json:"caution"`
}

// WithTags returns a copy of the detail carrying its own copy of tags
func (d GameDetail) WithTags(tags []string) GameDetail {
	d.Tags = slices.Clone(tags)
	return d
}

// Clone returns a copy that shares no slices with d
func (d GameDetail) Clone() GameDetail {
	d.Tags = slices.Clone(d.Tags)
	d.HowToPlay = slices.Clone(d.HowToPlay)
	d.TeacherDirections = TeacherDirections{
		Simple:  slices.Clone(d.TeacherDirections.Simple),
		Medium:  slices.Clone(d.TeacherDirections.Medium),
		Complex: slices.Clone(d.TeacherDirections.Complex),
	}
	d.StudentInteractions = slices.Clone(d.StudentInteractions)
	return d
}

// RecommendationBatch is the payload of a recommendation response
type RecommendationBatch struct {
	Screen          int                  `json:"screen"`
	Filters         SelectionFilters     `json:"filters"`
	Recommendations []GameRecommendation `json:"recommendations"`
}

// AssignIDs sets every recommendation id from its title
func (b *RecommendationBatch) AssignIDs() {
	for i := range b.Recommendations {
		b.Recommendations[i].ID = GameID(b.Recommendations[i].Title)
	}
}
