// Package chunker splits document text into overlapping chunks tagged with clause labels.
package chunker

import (
	"fmt"
	"regexp"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/intelliquery/intelliquery/internal/models"
)

// clausePattern matches a leading numeric clause label such as "3.2.1 " at the
// start of a chunk (leading whitespace tolerated).
var clausePattern = regexp.MustCompile(`^\s*(\d+(\.\d+)*)\s+`)

// Chunker splits raw text into overlapping character-based chunks using a
// recursive separator strategy (paragraph, sentence, word, then character
// boundaries). Splitting is not clause-aware; clause labels are derived
// afterwards from each chunk's leading text.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// Chunk splits text into DocumentChunks for documentName. Each chunk beginning
// with a numeric clause pattern gets that literal label; all others get a
// synthetic "Part_<n>" label where n is the 1-based chunk position.
func (c *Chunker) Chunk(text, documentName string) ([]models.DocumentChunk, error) {
	texts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	chunks := make([]models.DocumentChunk, 0, len(texts))
	for i, chunkText := range texts {
		clause := fmt.Sprintf("Part_%d", i+1)
		if m := clausePattern.FindStringSubmatch(chunkText); m != nil {
			clause = m[1]
		}
		chunks = append(chunks, models.DocumentChunk{
			Content:      chunkText,
			DocumentName: documentName,
			ClauseNumber: clause,
		})
	}
	return chunks, nil
}
