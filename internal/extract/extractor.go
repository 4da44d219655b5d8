// Package extract provides text extraction from PDF, DOCX, and plain text documents.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is wrapped by extraction errors for file types outside
// {.pdf, .docx, .txt}.
var ErrUnsupportedType = errors.New("unsupported file type")

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// The format is chosen by extension: .pdf, .docx, or .txt. Any other extension
// fails with ErrUnsupportedType naming the extension. The whole file is read
// into memory.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".txt":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}
