// Package embedding provides text embedding via an external model API.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations make one
// external call per batch and preserve input order. Embedding dimension is
// whatever the model returns; it is not fixed at construction time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
