package embedding

import (
	"context"
	"errors"
	"testing"
)

type fakeClient struct {
	vecs [][]float32
	err  error
}

func (f *fakeClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return f.vecs, f.err
}

func TestRemoteEmbedder_Batch(t *testing.T) {
	e := NewRemoteEmbedder(&fakeClient{vecs: [][]float32{{1, 2}, {3, 4}}})
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 3 {
		t.Errorf("got %v", vecs)
	}
}

func TestRemoteEmbedder_CountMismatch(t *testing.T) {
	e := NewRemoteEmbedder(&fakeClient{vecs: [][]float32{{1}}})
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error on count mismatch")
	}
}

func TestRemoteEmbedder_PropagatesError(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := NewRemoteEmbedder(&fakeClient{err: boom})
	if _, err := e.Embed(context.Background(), "a"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped client error, got %v", err)
	}
}
