// Package storage provides optional on-disk persistence of session indexes.
package storage

import (
	"context"
	"errors"

	"github.com/intelliquery/intelliquery/internal/models"
)

// ErrSessionNotFound is returned by LoadSession for unknown session identifiers.
var ErrSessionNotFound = errors.New("session not found")

// Store persists per-session chunks and their embedding vectors. Persistence
// is an explicit opt-in capability, independent of the in-memory index path:
// the primary flow never touches disk unless a store is configured.
type Store interface {
	// SaveSession replaces any stored state for sessionID with the given
	// parallel chunks and vectors.
	SaveSession(ctx context.Context, sessionID string, chunks []models.DocumentChunk, vectors [][]float32) error
	// LoadSession returns the stored chunks and vectors for sessionID in their
	// original order, or ErrSessionNotFound.
	LoadSession(ctx context.Context, sessionID string) ([]models.DocumentChunk, [][]float32, error)
	// DeleteSession removes all stored state for sessionID.
	DeleteSession(ctx context.Context, sessionID string) error
	Close() error
}
