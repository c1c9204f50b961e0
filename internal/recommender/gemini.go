package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// ContentGenerator is the subset of the genai models service used here
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures a Gemini generator
type GeminiConfig struct {
	APIKey            string
	Model             string
	SystemInstruction string
}

// Gemini generates recommendations with the Gemini API
type Gemini struct {
	models ContentGenerator
	model  string
	system string
	log    *slog.Logger
}

// NewGemini creates a Gemini generator backed by the Gemini API
func NewGemini(ctx context.Context, cfg GeminiConfig, log *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return NewGeminiWithModels(client.Models, cfg, log), nil
}

// NewGeminiWithModels creates a generator on top of an existing models service
func NewGeminiWithModels(m ContentGenerator, cfg GeminiConfig, log *slog.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gemini{
		models: m,
		model:  cfg.Model,
		system: cfg.SystemInstruction,
		log:    log.With("component", "gemini"),
	}
}

// Recommend asks the model for a batch of recommendations. Ids are derived
// from the returned titles.
func (g *Gemini) Recommend(ctx context.Context, req models.RecommendationsRequest) (*models.RecommendationBatch, error) {
	var batch models.RecommendationBatch
	if err := g.generate(ctx, RecommendationPrompt(req), recommendationSchema(), &batch); err != nil {
		return nil, err
	}
	if batch.Recommendations == nil {
		return nil, fmt.Errorf("%w: missing recommendations", ErrInvalidResponse)
	}

	batch.AssignIDs()
	g.log.Info("recommendations generated",
		"count", len(batch.Recommendations),
		"language", req.Language,
		"grammar_topic", req.GrammarTopic,
	)
	return &batch, nil
}

// Detail asks the model for the lesson plan of one game
func (g *Gemini) Detail(ctx context.Context, req models.GameDetailRequest) (*models.GameDetail, error) {
	var detail models.GameDetail
	if err := g.generate(ctx, DetailPrompt(req), detailSchema(), &detail); err != nil {
		return nil, err
	}
	if detail.Title == "" {
		detail.Title = req.GameTitle
	}

	g.log.Info("game detail generated", "game_title", detail.Title, "language", req.Language)
	return &detail, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string, schema *genai.Schema, out any) error {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.system}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
