// Package llm provides an abstraction over the generative text backends.
package llm

import "context"

// Generator turns a single prompt into generated text.
type Generator interface {
	// Generate sends prompt to the backend and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Name implements Generator.
func (f GeneratorFunc) Name() string { return "func" }

// Ensure implementations satisfy Generator.
var (
	_ Generator = (*GeminiClient)(nil)
	_ Generator = (*OpenAIClient)(nil)
	_ Generator = (*MockClient)(nil)
	_ Generator = GeneratorFunc(nil)
)
