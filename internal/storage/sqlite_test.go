package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/intelliquery/intelliquery/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []models.DocumentChunk{
		{Content: "4.1 Waiting period is 36 months.", DocumentName: "policy.pdf", ClauseNumber: "4.1"},
		{Content: "Room rent is capped at 1% of sum insured.", DocumentName: "policy.pdf", ClauseNumber: "Part_2"},
	}
	vectors := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}

	if err := store.SaveSession(ctx, "s1", chunks, vectors); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	gotChunks, gotVectors, err := store.LoadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(gotChunks) != 2 || len(gotVectors) != 2 {
		t.Fatalf("got %d chunks, %d vectors", len(gotChunks), len(gotVectors))
	}
	if gotChunks[0] != chunks[0] || gotChunks[1] != chunks[1] {
		t.Errorf("chunks differ: %v", gotChunks)
	}
	for i := range vectors {
		for j := range vectors[i] {
			if gotVectors[i][j] != vectors[i][j] {
				t.Fatalf("vector %d differs at %d: %v vs %v", i, j, gotVectors[i][j], vectors[i][j])
			}
		}
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []models.DocumentChunk{{Content: "old", DocumentName: "a.txt", ClauseNumber: "Part_1"}}
	if err := store.SaveSession(ctx, "s1", first, [][]float32{{1, 2}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	second := []models.DocumentChunk{
		{Content: "new1", DocumentName: "b.txt", ClauseNumber: "Part_1"},
		{Content: "new2", DocumentName: "b.txt", ClauseNumber: "Part_2"},
	}
	if err := store.SaveSession(ctx, "s1", second, [][]float32{{3, 4}, {5, 6}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	chunks, vectors, err := store.LoadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Content != "new1" {
		t.Errorf("expected replacement, got %v", chunks)
	}
	if vectors[0][0] != 3 {
		t.Errorf("expected replaced vectors, got %v", vectors)
	}
}

func TestSQLiteStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.LoadSession(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []models.DocumentChunk{{Content: "x", DocumentName: "a.txt", ClauseNumber: "Part_1"}}
	if err := store.SaveSession(ctx, "s1", chunks, [][]float32{{1}}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, _, err := store.LoadSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSQLiteStore_SaveValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSession(ctx, "s1", nil, nil); err == nil {
		t.Error("expected error for empty session")
	}
	chunks := []models.DocumentChunk{{Content: "x", DocumentName: "a", ClauseNumber: "1"}}
	if err := store.SaveSession(ctx, "s1", chunks, [][]float32{{1}, {2}}); err == nil {
		t.Error("expected error for length mismatch")
	}
}
