// Package client talks to the ESL Game Lab backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

const maxErrorBody = 512

// Client is a stateless HTTP client for the backend API
type Client struct {
	baseURL    string
	token      string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token sent on user endpoints
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPIKey sets the admin API key
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a backend client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "client")

	return c
}

// FetchRecommendations asks the backend for a batch of game recommendations
func (c *Client) FetchRecommendations(ctx context.Context, req models.RecommendationsRequest) (*models.RecommendationBatch, error) {
	const op = "fetch recommendations"

	var batch models.RecommendationBatch
	if err := c.call(ctx, op, http.MethodPost, "/api/recommendations", req, recommendationsShape, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// FetchGameDetail asks the backend for the lesson plan of one game
func (c *Client) FetchGameDetail(ctx context.Context, req models.GameDetailRequest) (*models.GameDetail, error) {
	const op = "fetch game detail"

	var detail models.GameDetail
	if err := c.call(ctx, op, http.MethodPost, "/api/game-detail", req, gameDetailShape, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GenerateImage asks the image proxy for an illustration URL
func (c *Client) GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	const op = "generate image"

	var resp models.ImageResponse
	if err := c.call(ctx, op, http.MethodPost, "/api/image-proxy/generate", req, imageShape, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks backend liveness
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", http.MethodGet, "/health", nil, nil, nil)
}

// call performs one request. When shape is set the 2xx body is validated
// against it before being decoded into out.
func (c *Client) call(ctx context.Context, op, method, path string, in any, shape *jsonschema.Schema, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	respBody, err := c.doRequest(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	if shape != nil {
		var doc any
		if err := json.Unmarshal(respBody, &doc); err != nil {
			return &MalformedResponseError{Op: op, Err: err}
		}
		if err := shape.Validate(doc); err != nil {
			return &MalformedResponseError{Op: op, Err: err}
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}

// doRequest performs an HTTP request and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, op, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", "op", op, "error", err)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.log.Debug("request completed",
		"op", op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendError(op, resp.StatusCode, respBody)
	}

	return respBody, nil
}

func backendError(op string, status int, body []byte) *BackendError {
	e := &BackendError{Op: op, Status: status, Code: http.StatusText(status)}

	var payload models.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && (payload.Error != "" || payload.Message != "") {
		if payload.Error != "" {
			e.Code = payload.Error
		}
		e.Message = payload.Message
		return e
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	e.Message = text
	return e
}
