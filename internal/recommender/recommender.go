// Package recommender asks the generative model for activity recommendations
// and lesson plans.
package recommender

import (
	"context"
	"errors"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

var (
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrInvalidResponse is returned when the model output does not decode
	ErrInvalidResponse = errors.New("model returned an invalid response")
)

// Generator produces recommendations and lesson plans
type Generator interface {
	Recommend(ctx context.Context, req models.RecommendationsRequest) (*models.RecommendationBatch, error)
	Detail(ctx context.Context, req models.GameDetailRequest) (*models.GameDetail, error)
}

// ImageGenerator produces a thumbnail URL for a game
type ImageGenerator interface {
	Generate(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error)
}
