package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xiaot623/gogo/director/internal/config"
)

const (
	// EnvDirectorMode is the environment variable name for mode selection.
	EnvDirectorMode = "DIRECTOR_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewGenerator creates a Generator for the configured provider.
// If DIRECTOR_MODE=MOCK, the mock generator is returned regardless of provider.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	if strings.EqualFold(os.Getenv(EnvDirectorMode), ModeMock) {
		slog.Info("DIRECTOR_MODE=MOCK detected, using mock generator")
		return NewMockClient(), nil
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	case config.ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
