package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient generates text through any OpenAI-compatible endpoint.
type OpenAIClient struct {
	llm   llms.Model
	model string
}

// NewOpenAIClient creates an OpenAI-compatible generator.
// baseURL may be empty to use the public API.
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIClient{llm: client, model: model}, nil
}

// Generate implements Generator.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return out, nil
}

// Name implements Generator.
func (c *OpenAIClient) Name() string { return "openai:" + c.model }
