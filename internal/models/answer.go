package models

import "fmt"

// ReferencedClause identifies a clause cited by an answer's justification.
type ReferencedClause struct {
	ClauseNumber string `json:"clause_number"`
	Text         string `json:"text"`
	DocumentName string `json:"document_name"`
}

// Answer is the structured decision for a single question. Produced once per
// question, never stored.
type Answer struct {
	Decision          string             `json:"decision"`
	Justification     string             `json:"justification"`
	Amount            *float64           `json:"amount"`
	Conditions        *string            `json:"conditions"`
	ReferencedClauses []ReferencedClause `json:"referenced_clauses"`
}

// Validate checks that the answer carries the fields every decision must have.
// Amount, Conditions, and ReferencedClauses may legitimately be absent.
func (a *Answer) Validate() error {
	if a.Decision == "" {
		return fmt.Errorf("answer missing decision")
	}
	if a.Justification == "" {
		return fmt.Errorf("answer missing justification")
	}
	return nil
}

// UploadResponse reports a processed document upload.
type UploadResponse struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Message   string `json:"message"`
}
