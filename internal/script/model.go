// Package script generates prompt material with a text model:
// per-extension continuation beats for clip chains and spoken scripts
// for avatar videos. Everything here is best-effort glue; callers
// proceed with the base prompt when the model is unavailable.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is the text model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var (
	// ErrAPIKeyNotSet is returned when no API key is provided and the
	// GEMINI_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("script: GEMINI_API_KEY environment variable is not set")

	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("script: model returned no text")
)

// Model produces text from a prompt. It is the seam for testing the
// writer without a live model.
type Model interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GenaiModel implements Model over the Gemini API. Calls go through a
// client-side limiter so bursts of chain planning stay inside the
// per-minute quota.
type GenaiModel struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGenaiModel creates a Gemini-backed text model. If apiKey is empty,
// the GEMINI_API_KEY environment variable is used.
func NewGenaiModel(ctx context.Context, apiKey, model string) (*GenaiModel, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenaiModel{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}, nil
}

// GenerateText runs one text generation, blocking on the limiter first.
func (m *GenaiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
