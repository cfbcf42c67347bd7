package generativeAI

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultModel is used whenever a caller does not pin a model explicitly.
const DefaultModel = "gemini-2.0-flash"

// Client is the slice of the generative backend the services consume.
// Services depend on this interface so tests can substitute a mock.
type Client interface {
	GenerateContent(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error)
}

type AIClient struct {
	client *genai.Client
	model  string
}

var _ Client = (*AIClient)(nil)

func NewAIClient(ctx context.Context) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &AIClient{
		client: client,
		model:  DefaultModel,
	}, nil
}

// GenerateContent runs a single completion and returns the concatenated text
// of the first candidate. An empty model falls back to the client default.
func (ai *AIClient) GenerateContent(ctx context.Context, model, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if model == "" {
		model = ai.model
	}
	result, err := ai.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return result.Text(), nil
}
