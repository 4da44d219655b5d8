package models

import "fmt"

// QueryRequest is a question scoped to a session's ingested documents.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// Validate ensures the request has a session and a question.
func (q *QueryRequest) Validate() error {
	if q.SessionID == "" {
		return fmt.Errorf("session_id cannot be empty")
	}
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// ParsedQuery is the structured form of a natural-language question, produced
// by the classification call. It is consumed only to build a richer search string.
type ParsedQuery struct {
	Intent  string                 `json:"intent"`
	Details map[string]interface{} `json:"details"`
}

// SearchString returns the enriched retrieval query derived from the parsed intent.
func (p *ParsedQuery) SearchString() string {
	return fmt.Sprintf("Intent: %s. Details: %v", p.Intent, p.Details)
}

// BulkRequest is the bulk fetch-then-answer request: document URLs plus questions.
type BulkRequest struct {
	Documents []string `json:"documents"`
	Questions []string `json:"questions"`
}

// Validate ensures at least one document URL and one question are present.
func (r *BulkRequest) Validate() error {
	if len(r.Documents) == 0 {
		return fmt.Errorf("documents cannot be empty")
	}
	if len(r.Questions) == 0 {
		return fmt.Errorf("questions cannot be empty")
	}
	return nil
}

// BulkResponse holds one answer string per question, in question order.
type BulkResponse struct {
	Answers []string `json:"answers"`
}
