// Package llm provides query parsing and answer synthesis via an external
// generative model.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Generator issues one completion call for one prompt and returns the model's
// free-form text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelGenerator adapts a langchaingo model to the Generator interface.
type ModelGenerator struct {
	model       llms.Model
	temperature float64
}

// NewModelGenerator wraps a langchaingo model with a fixed temperature.
func NewModelGenerator(model llms.Model, temperature float64) *ModelGenerator {
	return &ModelGenerator{model: model, temperature: temperature}
}

// Generate issues a single-prompt completion call.
func (g *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return out, nil
}

// stripCodeFences removes markdown code-fence markers the model may wrap its
// JSON in, returning the bare payload.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
