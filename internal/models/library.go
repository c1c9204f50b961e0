package models

import "time"

// HistoryLimit caps the per-user history list
const HistoryLimit = 30

// Favorite is a recommendation saved by a teacher
type Favorite struct {
	UserID    string             `json:"-"`
	Game      GameRecommendation `json:"game"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// HistoryEntry is a recommendation the teacher opened
type HistoryEntry struct {
	UserID   string             `json:"-"`
	Game     GameRecommendation `json:"game"`
	ViewedAt time.Time          `json:"viewedAt"`
}

// PrependHistory puts game at the front of history, removing any entry with
// the same title and truncating to HistoryLimit.
func PrependHistory(history []GameRecommendation, game GameRecommendation) []GameRecommendation {
	out := make([]GameRecommendation, 0, min(len(history)+1, HistoryLimit))
	out = append(out, game)
	for _, g := range history {
		if len(out) == HistoryLimit {
			break
		}
		if g.Title == game.Title {
			continue
		}
		out = append(out, g)
	}
	return out
}
