// Package vector provides a flat in-memory vector index and a bounded session registry.
package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/intelliquery/intelliquery/internal/models"
)

// ErrNotBuilt is returned when a search is attempted on a session with no
// successfully built index.
var ErrNotBuilt = errors.New("index not built")

// Index is an immutable flat (exhaustive) vector index. Vectors and chunks are
// parallel slices of equal length: position i of vectors corresponds to
// position i of chunks. An Index is never mutated after construction; rebuilds
// produce a new Index that replaces the old one wholesale.
type Index struct {
	dimensions int
	vectors    [][]float32
	chunks     []models.DocumentChunk
}

// SearchResult is a single nearest-neighbor hit.
type SearchResult struct {
	Chunk models.DocumentChunk
	// Distance is the L2 (Euclidean) distance to the query vector.
	Distance float64
}

// NewIndex builds an index over parallel vectors and chunk metadata. The two
// slices must be non-empty and of equal length, and every vector must share
// the dimension of the first (the dimension is fixed by the embedding model at
// runtime, not at design time).
func NewIndex(vectors [][]float32, chunks []models.DocumentChunk) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("cannot build index with no vectors")
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vectors and chunks length mismatch: %d vs %d", len(vectors), len(chunks))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension vector at position 0")
	}
	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at %d: got %d, expected %d", i, len(v), dim)
		}
		vec := make([]float32, dim)
		copy(vec, v)
		stored[i] = vec
	}
	storedChunks := make([]models.DocumentChunk, len(chunks))
	copy(storedChunks, chunks)
	return &Index{
		dimensions: dim,
		vectors:    stored,
		chunks:     storedChunks,
	}, nil
}

// Dimensions returns the vector dimension of the index.
func (idx *Index) Dimensions() int { return idx.dimensions }

// Size returns the number of stored vectors.
func (idx *Index) Size() int { return len(idx.vectors) }

// Search performs an exhaustive nearest-neighbor scan and returns the k chunks
// closest to query in ascending L2 distance. Exactly equal distances keep
// insertion order. k larger than the stored count returns all entries.
func (idx *Index) Search(query []float32, k int) ([]SearchResult, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	results := make([]SearchResult, len(idx.vectors))
	for i, vec := range idx.vectors {
		results[i] = SearchResult{Chunk: idx.chunks[i], Distance: l2Distance(query, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// l2Distance returns the Euclidean distance between two vectors of equal length.
func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
