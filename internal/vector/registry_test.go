package vector

import (
	"errors"
	"testing"

	"github.com/intelliquery/intelliquery/internal/models"
)

func TestSession_SearchBeforeBuild(t *testing.T) {
	r := NewRegistry(4)
	s := r.GetOrCreate("s1")
	if _, err := s.Search([]float32{1}, 5); !errors.Is(err, ErrNotBuilt) {
		t.Errorf("expected ErrNotBuilt, got %v", err)
	}
}

func TestSession_PublishReplaces(t *testing.T) {
	s := &Session{id: "s"}
	first, err := NewIndex([][]float32{{0, 0}}, []models.DocumentChunk{{Content: "old", DocumentName: "d", ClauseNumber: "1"}})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	s.Publish(first)
	second, err := NewIndex([][]float32{{0, 0}}, []models.DocumentChunk{{Content: "new", DocumentName: "d", ClauseNumber: "1"}})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	s.Publish(second)

	results, err := s.Search([]float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.Content != "new" {
		t.Errorf("rebuild should replace wholesale, got %v", results)
	}
}

func TestRegistry_GetOrCreateReturnsSame(t *testing.T) {
	r := NewRegistry(4)
	a := r.GetOrCreate("s1")
	b := r.GetOrCreate("s1")
	if a != b {
		t.Error("expected the same session instance")
	}
	if r.Len() != 1 {
		t.Errorf("Len=%d", r.Len())
	}
}

func TestRegistry_GetDoesNotCreate(t *testing.T) {
	r := NewRegistry(4)
	if _, ok := r.Get("missing"); ok {
		t.Error("Get should not create sessions")
	}
	if r.Len() != 0 {
		t.Errorf("Len=%d", r.Len())
	}
}

func TestRegistry_LRUEviction(t *testing.T) {
	r := NewRegistry(2)
	r.GetOrCreate("a")
	r.GetOrCreate("b")
	r.GetOrCreate("a")       // refresh a
	r.GetOrCreate("c")       // evicts b
	if _, ok := r.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := r.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if _, ok := r.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if r.Len() != 2 {
		t.Errorf("Len=%d", r.Len())
	}
}

func TestRegistry_Evict(t *testing.T) {
	r := NewRegistry(4)
	r.GetOrCreate("a")
	r.Evict("a")
	if _, ok := r.Get("a"); ok {
		t.Error("expected a gone after Evict")
	}
	r.Evict("a") // no-op
}
