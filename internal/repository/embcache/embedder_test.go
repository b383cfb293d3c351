package embcache

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/casedex/internal/db"
	"github.com/kailas-cloud/casedex/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected SET to be called for cache put")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.9, 0.9, 0.9},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.1, 0.2, 0.3})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.1 || result.Embedding[2] != 0.3 {
		t.Fatalf("expected cached vector, got %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.embedCalls != 0 {
		t.Fatalf("inner embedder should not be called on hit, got %d calls", inner.embedCalls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &mockEmbedder{err: wantErr}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "test text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestEmbed_CorruptCacheFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.5},
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	// 3 bytes is not a valid float32 sequence.
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.embedCalls != 1 {
		t.Fatalf("expected fall-through to inner embedder, got %d calls", inner.embedCalls)
	}
	if result.Embedding[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestBatchEmbed_MixedHitsAndMisses(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.7, 0.7},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cachedKey := ce.cacheKey("cached text")
	cached := vectorToCacheBytes([]float32{0.1, 0.2})
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key == cachedKey {
			return cached, nil
		}
		return nil, db.ErrKeyNotFound
	}

	setCalls := 0
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalls++
		return nil
	}

	result, err := ce.BatchEmbed(ctx, []string{"cached text", "fresh one", "fresh two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embeddings) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(result.Embeddings))
	}
	if result.Embeddings[0][0] != 0.1 {
		t.Fatalf("expected cached vector at index 0, got %v", result.Embeddings[0])
	}
	if result.Embeddings[1][0] != 0.7 || result.Embeddings[2][0] != 0.7 {
		t.Fatalf("expected fresh vectors for misses, got %v", result.Embeddings)
	}
	if inner.batchCalls != 1 {
		t.Fatalf("expected one inner batch call, got %d", inner.batchCalls)
	}
	if setCalls != 2 {
		t.Fatalf("expected 2 cache puts, got %d", setCalls)
	}
}

func TestBatchEmbed_AllHitsSkipInner(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 0 || inner.embedCalls != 0 {
		t.Fatal("inner embedder should not be called when all texts hit")
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected zero tokens, got %d", result.TotalTokens)
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	wantErr := errors.New("provider down")
	inner := &mockEmbedder{batchErr: wantErr}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	orig := []float32{0, -1.5, 3.25, 1e-7}
	got, err := bytesToVector(vectorToCacheBytes(orig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(orig) {
		t.Fatalf("length mismatch: %d vs %d", len(got), len(orig))
	}
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("element %d: got %v, want %v", i, got[i], orig[i])
		}
	}
}
