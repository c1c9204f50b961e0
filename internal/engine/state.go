package engine

import (
	"slices"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// GenericError is the only error message surfaced to the view layer
const GenericError = "Something went wrong."

// Progress milestones reported while an operation runs
const (
	milestoneSearchStart  = 10
	milestoneSearchFetch  = 40
	milestoneDetailStart  = 20
	milestoneDone         = 100
	minCompleteGrammarSet = 3
)

// Phase summarises which operation is in flight
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseSearching     Phase = "searching"
	PhaseAppending     Phase = "appending"
	PhaseDetailLoading Phase = "detail-loading"
)

// Snapshot is an immutable view of the orchestrator state
type Snapshot struct {
	Recommendations   []models.GameRecommendation
	Detail            *models.GameDetail
	Filters           *models.SelectionFilters
	Searching         bool
	Appending         bool
	DetailLoading     bool
	Booting           bool
	Err               string
	Milestone         int
	ResultIncomplete  bool
	LoadingSuggestion *models.GameRecommendation

	// list to restore when the in-flight search fails
	previous []models.GameRecommendation
}

// Phase returns the operation in flight, idle when none
func (s Snapshot) Phase() Phase {
	switch {
	case s.Searching:
		return PhaseSearching
	case s.Appending:
		return PhaseAppending
	case s.DetailLoading:
		return PhaseDetailLoading
	default:
		return PhaseIdle
	}
}

// Loading reports whether any operation is in flight
func (s Snapshot) Loading() bool {
	return s.Phase() != PhaseIdle
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Recommendations = nil
	if s.Recommendations != nil {
		out.Recommendations = make([]models.GameRecommendation, len(s.Recommendations))
		for i, r := range s.Recommendations {
			out.Recommendations[i] = r.Clone()
		}
	}
	out.previous = nil
	if s.Detail != nil {
		d := s.Detail.Clone()
		out.Detail = &d
	}
	if s.Filters != nil {
		f := s.Filters.Clone()
		out.Filters = &f
	}
	if s.LoadingSuggestion != nil {
		r := s.LoadingSuggestion.Clone()
		out.LoadingSuggestion = &r
	}
	return out
}

// Every begin transition clears the flags of whatever it supersedes,
// since a superseded response never reaches the state.
func clearInFlight(s Snapshot) Snapshot {
	s.Searching = false
	s.Appending = false
	s.DetailLoading = false
	return s
}

func beginSearch(s Snapshot, appendMode bool, suggestion *models.GameRecommendation) Snapshot {
	if !s.Searching {
		s.previous = s.Recommendations
	}
	s = clearInFlight(s)
	s.Err = ""
	s.ResultIncomplete = false
	s.Milestone = milestoneSearchStart

	if appendMode {
		s.Appending = true
		return s
	}
	s.Recommendations = nil
	s.Searching = true
	s.LoadingSuggestion = suggestion
	return s
}

func advance(s Snapshot, milestone int) Snapshot {
	if milestone > s.Milestone {
		s.Milestone = milestone
	}
	return s
}

func completeSearch(s Snapshot, filters models.SelectionFilters, recs []models.GameRecommendation, appendMode, incomplete, dedup bool) Snapshot {
	if appendMode {
		s.Recommendations = appendRecommendations(s.Recommendations, recs, dedup)
	} else {
		s.Recommendations = slices.Clone(recs)
	}
	s.Filters = &filters
	s.ResultIncomplete = incomplete
	s.Milestone = milestoneDone
	s.Searching = false
	s.Appending = false
	s.LoadingSuggestion = nil
	s.previous = nil
	return s
}

func failSearch(s Snapshot) Snapshot {
	s.Recommendations = s.previous
	s.previous = nil
	s.Err = GenericError
	s.Searching = false
	s.Appending = false
	s.LoadingSuggestion = nil
	return s
}

func beginDetail(s Snapshot, rec models.GameRecommendation) Snapshot {
	if s.Searching {
		// the cleared list will never be refilled by the superseded search
		s.Recommendations = s.previous
	}
	s.previous = nil
	s = clearInFlight(s)
	s.Err = ""
	s.Detail = nil
	s.DetailLoading = true
	s.Milestone = milestoneDetailStart
	s.LoadingSuggestion = &rec
	return s
}

func completeDetail(s Snapshot, d models.GameDetail) Snapshot {
	s.Detail = &d
	s.Milestone = milestoneDone
	s.DetailLoading = false
	s.LoadingSuggestion = nil
	return s
}

func failDetail(s Snapshot) Snapshot {
	s.Err = GenericError
	s.DetailLoading = false
	s.LoadingSuggestion = nil
	return s
}

func appendRecommendations(existing, more []models.GameRecommendation, dedup bool) []models.GameRecommendation {
	out := slices.Clone(existing)
	if !dedup {
		return append(out, more...)
	}
	seen := make(map[string]struct{}, len(existing)+len(more))
	for _, r := range existing {
		seen[r.ID] = struct{}{}
	}
	for _, r := range more {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// filterByGrammar keeps the candidates that cover topic. The result is
// incomplete when fewer than three survive. An empty topic keeps everything.
func filterByGrammar(recs []models.GameRecommendation, topic string) ([]models.GameRecommendation, bool) {
	if topic == "" {
		return recs, false
	}
	out := make([]models.GameRecommendation, 0, len(recs))
	for _, r := range recs {
		if r.MatchesGrammarTopic(topic) {
			out = append(out, r)
		}
	}
	return out, len(out) < minCompleteGrammarSet
}
