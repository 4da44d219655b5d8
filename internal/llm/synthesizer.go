package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intelliquery/intelliquery/internal/models"
)

// Synthesizer turns a question and its retrieved clauses into a structured
// Answer via one generation call. Model output that fails to parse or validate
// is re-prompted with a corrective instruction a bounded number of times; an
// exhausted budget propagates the last parse error.
type Synthesizer struct {
	generator         Generator
	maxRepairAttempts int
}

// NewSynthesizer creates a synthesizer. maxRepairAttempts is the number of
// corrective re-prompts after the initial call (0 means a single best-effort parse).
func NewSynthesizer(generator Generator, maxRepairAttempts int) *Synthesizer {
	if maxRepairAttempts < 0 {
		maxRepairAttempts = 0
	}
	return &Synthesizer{generator: generator, maxRepairAttempts: maxRepairAttempts}
}

// GenerateAnswer produces the structured decision for question from the
// retrieved clauses, in retrieval order.
func (s *Synthesizer) GenerateAnswer(ctx context.Context, question string, clauses []models.DocumentChunk) (*models.Answer, error) {
	prompt := buildAnswerPrompt(question, clauses)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer, parseErr := decodeAnswer(raw)
	for attempt := 0; parseErr != nil && attempt < s.maxRepairAttempts; attempt++ {
		raw, err = s.generator.Generate(ctx, prompt+repairInstruction(parseErr.Error()))
		if err != nil {
			return nil, fmt.Errorf("generate answer (repair %d): %w", attempt+1, err)
		}
		answer, parseErr = decodeAnswer(raw)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("parse answer: %w", parseErr)
	}
	return answer, nil
}

// decodeAnswer strips code fences, unmarshals, and validates the answer shape.
func decodeAnswer(raw string) (*models.Answer, error) {
	var answer models.Answer
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &answer); err != nil {
		return nil, err
	}
	if err := answer.Validate(); err != nil {
		return nil, err
	}
	return &answer, nil
}
