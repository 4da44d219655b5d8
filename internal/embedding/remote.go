package embedding

import (
	"context"
	"fmt"
)

// EmbedderClient is the external embedding call. The googleai client from
// langchaingo satisfies it directly.
type EmbedderClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// RemoteEmbedder embeds text through an external embedding API. There is no
// retry, no backoff, and no cache: a failed call fails the whole batch, and
// identical text is re-embedded every call. Batch-size ceilings are enforced
// by the service, not validated here.
type RemoteEmbedder struct {
	client EmbedderClient
}

// NewRemoteEmbedder wraps an external embedding client.
func NewRemoteEmbedder(client EmbedderClient) *RemoteEmbedder {
	return &RemoteEmbedder{client: client}
}

// Embed returns the embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input text, in order, via a single call.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}
