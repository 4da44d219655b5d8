package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intelliquery/intelliquery/internal/models"
)

// QueryParser classifies a natural-language question into a structured intent
// plus extracted entities, used only to build a richer retrieval query.
type QueryParser struct {
	generator Generator
}

// NewQueryParser creates a parser over the given generator.
func NewQueryParser(generator Generator) *QueryParser {
	return &QueryParser{generator: generator}
}

// Parse issues one classification call and decodes the JSON result.
func (p *QueryParser) Parse(ctx context.Context, query string) (*models.ParsedQuery, error) {
	raw, err := p.generator.Generate(ctx, buildParsePrompt(query))
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	var parsed models.ParsedQuery
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}
	if parsed.Intent == "" {
		return nil, fmt.Errorf("parse query response: missing intent")
	}
	return &parsed, nil
}
