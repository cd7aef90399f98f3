// Package gemini adapts the Google Gen AI SDK to the single text-generation
// operation the gateway needs.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrNoCandidates is returned when the backend answers without any candidate.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// ErrCandidateBlocked is returned when generation stopped for a reason other
// than a natural stop or the token limit, e.g. a safety block.
var ErrCandidateBlocked = errors.New("gemini candidate blocked")

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, used against local fakes.
	BaseURL    string
	HTTPClient *http.Client
}

// Client is safe for concurrent use; it is built once at startup and shared.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate sends prompt as a single user turn and returns the concatenated text
// of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", ErrNoCandidates, resp.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}
	if reason := resp.Candidates[0].FinishReason; !acceptedFinish(reason) {
		return "", fmt.Errorf("%w: finish reason %s", ErrCandidateBlocked, reason)
	}
	return resp.Text(), nil
}

func acceptedFinish(reason genai.FinishReason) bool {
	switch reason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop, genai.FinishReasonMaxTokens:
		return true
	}
	return false
}
