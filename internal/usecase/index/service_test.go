package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/glassbox/internal/domain"
	domdoc "github.com/kailas-cloud/glassbox/internal/domain/document"
)

// --- Mocks ---

type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text]}, nil
}

// mockBatchEmbedder also implements domain.BatchEmbedder.
type mockBatchEmbedder struct {
	mockEmbedder
	batchCalls int
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func testChunks(t *testing.T, texts ...string) []domdoc.Chunk {
	t.Helper()
	chunks := make([]domdoc.Chunk, len(texts))
	for i, text := range texts {
		c, err := domdoc.NewChunk(fmt.Sprintf("chunk-%d", i), text, i)
		if err != nil {
			t.Fatalf("NewChunk: %v", err)
		}
		chunks[i] = c
	}
	return chunks
}

// --- Tests ---

func TestBuild_UsesBatchEmbedder(t *testing.T) {
	embed := &mockBatchEmbedder{mockEmbedder: mockEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}}
	svc := New(embed)

	ix, err := svc.Build(context.Background(), testChunks(t, "alpha", "beta"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ix.Len())
	}
	if embed.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", embed.batchCalls)
	}
	if embed.calls != 0 {
		t.Errorf("expected no per-text calls, got %d", embed.calls)
	}
}

func TestBuild_FallbackWithoutBatch(t *testing.T) {
	embed := &mockEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	svc := New(embed)

	ix, err := svc.Build(context.Background(), testChunks(t, "alpha", "beta"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ix.Len())
	}
	if embed.calls != 2 {
		t.Errorf("expected 2 embed calls, got %d", embed.calls)
	}
}

func TestBuild_AllOrNothing(t *testing.T) {
	embed := &mockEmbedder{err: errors.New("provider down")}
	svc := New(embed)

	_, err := svc.Build(context.Background(), testChunks(t, "alpha", "beta"))
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestBuild_EmptyChunks(t *testing.T) {
	svc := New(&mockEmbedder{})
	_, err := svc.Build(context.Background(), nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestQuery_ThresholdAndOrder(t *testing.T) {
	embed := &mockBatchEmbedder{mockEmbedder: mockEmbedder{vectors: map[string][]float32{
		"identical": {1, 0},
		"close":     {0.9, 0.1},
		"far":       {0, 1},
	}}}
	svc := New(embed)

	ix, err := svc.Build(context.Background(), testChunks(t, "identical", "close", "far"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hits := ix.Query([]float32{1, 0}, 10, 0.5)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits above threshold, got %d", len(hits))
	}
	if hits[0].ChunkID != "chunk-0" || hits[1].ChunkID != "chunk-1" {
		t.Errorf("unexpected order: %v", hits)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted by descending score: %v", hits)
	}
}

func TestQuery_TieBrokenByPosition(t *testing.T) {
	// Two chunks with identical vectors: the earlier position must win.
	embed := &mockBatchEmbedder{mockEmbedder: mockEmbedder{vectors: map[string][]float32{
		"later":   {1, 0},
		"earlier": {1, 0},
	}}}
	svc := New(embed)

	chunks := testChunks(t, "earlier", "later")
	ix, err := svc.Build(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hits := ix.Query([]float32{1, 0}, 1, 0)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ChunkID != "chunk-0" {
		t.Errorf("tie not broken by ascending position: got %s", hits[0].ChunkID)
	}
}

func TestQuery_Deterministic(t *testing.T) {
	embed := &mockBatchEmbedder{mockEmbedder: mockEmbedder{vectors: map[string][]float32{
		"a": {1, 0}, "b": {0.8, 0.2}, "c": {0.6, 0.4}, "d": {0, 1},
	}}}
	svc := New(embed)

	ix, err := svc.Build(context.Background(), testChunks(t, "a", "b", "c", "d"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	first := ix.Query([]float32{1, 0}, 3, 0.1)
	for i := 0; i < 10; i++ {
		again := ix.Query([]float32{1, 0}, 3, 0.1)
		if len(again) != len(first) {
			t.Fatalf("non-deterministic hit count: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j].ChunkID != first[j].ChunkID {
				t.Fatalf("non-deterministic order at %d: %s vs %s", j, again[j].ChunkID, first[j].ChunkID)
			}
		}
	}
}

func TestQuery_NoHitsBelowThreshold(t *testing.T) {
	embed := &mockBatchEmbedder{mockEmbedder: mockEmbedder{vectors: map[string][]float32{
		"orthogonal": {0, 1},
	}}}
	svc := New(embed)

	ix, err := svc.Build(context.Background(), testChunks(t, "orthogonal"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	hits := ix.Query([]float32{1, 0}, 5, 0.5)
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"dim mismatch", []float32{1}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
