package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/intelliquery/intelliquery/internal/models"
)

// scriptedGenerator returns canned responses in order and records prompts.
type scriptedGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	i := len(g.prompts) - 1
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i], nil
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"  \n{\"a\": 1}\n  ", "{\"a\": 1}"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQueryParser_Parse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"```json\n{\"intent\": \"condition_retrieval\", \"details\": {\"disease\": \"PED\"}}\n```",
	}}
	parser := NewQueryParser(gen)
	parsed, err := parser.Parse(context.Background(), "what is the PED waiting period")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.Intent != "condition_retrieval" {
		t.Errorf("Intent=%q", parsed.Intent)
	}
	if !strings.Contains(gen.prompts[0], "what is the PED waiting period") {
		t.Error("prompt should contain the user query")
	}
	search := parsed.SearchString()
	if !strings.Contains(search, "condition_retrieval") || !strings.Contains(search, "PED") {
		t.Errorf("SearchString=%q", search)
	}
}

func TestQueryParser_MissingIntent(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"{\"details\": {}}"}}
	parser := NewQueryParser(gen)
	if _, err := parser.Parse(context.Background(), "q"); err == nil {
		t.Error("expected error for missing intent")
	}
}

func TestQueryParser_InvalidJSON(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"I cannot help with that."}}
	parser := NewQueryParser(gen)
	if _, err := parser.Parse(context.Background(), "q"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

const validAnswerJSON = `{
	"decision": "Covered with Conditions",
	"justification": "Covered after a 36-month waiting period.",
	"amount": null,
	"conditions": "36-month waiting period",
	"referenced_clauses": [{"clause_number": "4.1", "text": "PED clause", "document_name": "policy.pdf"}]
}`

func testClauses() []models.DocumentChunk {
	return []models.DocumentChunk{
		{Content: "4.1 PED waiting period is 36 months.", DocumentName: "policy.pdf", ClauseNumber: "4.1"},
	}
}

func TestSynthesizer_GenerateAnswer(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"```json\n" + validAnswerJSON + "\n```"}}
	s := NewSynthesizer(gen, 2)
	answer, err := s.GenerateAnswer(context.Background(), "PED waiting period?", testClauses())
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}
	if answer.Decision != "Covered with Conditions" {
		t.Errorf("Decision=%q", answer.Decision)
	}
	if len(answer.ReferencedClauses) != 1 || answer.ReferencedClauses[0].ClauseNumber != "4.1" {
		t.Errorf("ReferencedClauses=%v", answer.ReferencedClauses)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("expected 1 call, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "Clause 4.1: 4.1 PED waiting period is 36 months.") {
		t.Error("prompt should contain the formatted clause context")
	}
}

func TestSynthesizer_RepairRecovers(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"Sure! Here is the answer you asked for.",
		validAnswerJSON,
	}}
	s := NewSynthesizer(gen, 2)
	answer, err := s.GenerateAnswer(context.Background(), "q", testClauses())
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}
	if answer.Justification == "" {
		t.Error("expected repaired answer")
	}
	if len(gen.prompts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], "previous response was not a single valid JSON object") {
		t.Error("repair prompt should carry the corrective instruction")
	}
}

func TestSynthesizer_RepairBudgetExhausted(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"not json"}}
	s := NewSynthesizer(gen, 2)
	if _, err := s.GenerateAnswer(context.Background(), "q", testClauses()); err == nil {
		t.Fatal("expected error after exhausting repair budget")
	}
	// initial call plus two repairs
	if len(gen.prompts) != 3 {
		t.Errorf("expected 3 calls, got %d", len(gen.prompts))
	}
}

func TestSynthesizer_ValidationTriggersRepair(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"decision": "Covered", "justification": ""}`,
		validAnswerJSON,
	}}
	s := NewSynthesizer(gen, 1)
	answer, err := s.GenerateAnswer(context.Background(), "q", testClauses())
	if err != nil {
		t.Fatalf("GenerateAnswer: %v", err)
	}
	if answer.Justification == "" {
		t.Error("expected validated answer after repair")
	}
}

func TestSynthesizer_GeneratorError(t *testing.T) {
	boom := errors.New("model unavailable")
	gen := &scriptedGenerator{err: boom}
	s := NewSynthesizer(gen, 2)
	if _, err := s.GenerateAnswer(context.Background(), "q", testClauses()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped generator error, got %v", err)
	}
}
