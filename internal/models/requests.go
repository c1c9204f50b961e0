package models

// RecommendationsRequest is the body of POST /api/recommendations
type RecommendationsRequest struct {
	Filters       *SelectionFilters `json:"filters"`
	SearchQuery   string            `json:"searchQuery,omitempty"`
	Language      string            `json:"language"`
	GrammarTopic  string            `json:"grammarTopic,omitempty"`
	ExcludedGames []string          `json:"excludedGames,omitempty"`
}

// GameDetailRequest is the body of POST /api/game-detail
type GameDetailRequest struct {
	GameTitle string            `json:"gameTitle"`
	Filters   *SelectionFilters `json:"filters"`
	Language  string            `json:"language"`
}

// ImageRequest is the body of POST /api/image-proxy/generate
type ImageRequest struct {
	Prompt string `json:"prompt"`
	GameID string `json:"gameId"`
	Season string `json:"season,omitempty"`
}

// ImageResponse is returned by the image proxy
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Message  string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
