package recommender

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// DefaultPlaceholderURL serves the placeholder thumbnails
const DefaultPlaceholderURL = "https://via.placeholder.com/400x300"

// PlaceholderMessage accompanies every placeholder image
const PlaceholderMessage = "Image generation not yet implemented. Using placeholder."

// Placeholder returns a labelled placeholder image for every request
type Placeholder struct {
	BaseURL string
}

// Generate returns the placeholder URL for req.GameID
func (p Placeholder) Generate(_ context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	if req.GameID == "" {
		return nil, fmt.Errorf("game id is required")
	}
	base := p.BaseURL
	if base == "" {
		base = DefaultPlaceholderURL
	}
	text := strings.ReplaceAll(url.QueryEscape(req.GameID), "+", "%20")
	return &models.ImageResponse{
		ImageURL: base + "?text=" + text,
		Message:  PlaceholderMessage,
	}, nil
}
