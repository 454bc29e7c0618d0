package collab

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIGenerator produces short completions through the Gemini API. It backs
// both goal prediction and answer generation.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a generator. model defaults to a small flash
// model suited to one-line completions.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate runs one prompt and returns the trimmed text response.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("genai generation failed: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("genai returned empty response")
	}
	return text, nil
}
