package models

import (
	"strings"
	"time"
)

// CatalogSource tells where a catalog game came from
type CatalogSource string

const (
	SourceGenerated CatalogSource = "generated"
	SourceInternal  CatalogSource = "internal"
)

// seasons in match priority order
var seasons = []string{"christmas", "halloween", "easter", "summer", "winter"}

// CatalogGame is a stored game detail enriched for the admin catalog
type CatalogGame struct {
	GameDetail
	ID        string        `json:"id"`
	Source    CatalogSource `json:"source"`
	Season    string        `json:"season,omitempty"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewCatalogGame builds a catalog entry for a detail, deriving id and season from the title
func NewCatalogGame(detail GameDetail, source CatalogSource) *CatalogGame {
	return &CatalogGame{
		GameDetail: detail,
		ID:         GameID(detail.Title),
		Source:     source,
		Season:     SeasonOf(detail.Title),
	}
}

// SeasonOf returns the first season keyword contained in title, or ""
func SeasonOf(title string) string {
	lower := strings.ToLower(title)
	for _, s := range seasons {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}
