package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
)

// vectorEmbedder returns a fixed vector per known text.
type vectorEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (v *vectorEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if v.err != nil {
		return domain.EmbeddingResult{}, v.err
	}
	vec, ok := v.vectors[text]
	if !ok {
		vec = []float32{0, 0, 1}
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func seedStore(t *testing.T, emb domain.Embedder) *corpus.Store {
	t.Helper()
	store := corpus.NewStore(emb, zap.NewNop())
	ctx := context.Background()

	docs := []struct {
		text string
		md   domain.Metadata
	}{
		{"exact match", domain.Metadata{
			domain.KeyCaseID: "a", domain.KeyVisaType: "EB1",
			domain.KeyCategory: "cv", domain.KeyFilename: "cv.txt",
		}},
		{"close match", domain.Metadata{
			domain.KeyCaseID: "a", domain.KeyVisaType: "EB1",
			domain.KeyCategory: "awards", domain.KeyFilename: "awards.txt",
		}},
		{"same text other case", domain.Metadata{
			domain.KeyCaseID: "b", domain.KeyVisaType: "EB2",
			domain.KeyCategory: "cv", domain.KeyFilename: "cv.txt",
		}},
		{"tied score", domain.Metadata{
			domain.KeyCaseID: "a", domain.KeyVisaType: "EB1",
			domain.KeyCategory: "cv", domain.KeyFilename: "cv.txt",
		}},
	}
	for _, d := range docs {
		if _, err := store.ProcessDocument(ctx, d.text, d.md); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return store
}

func newEmbedder() *vectorEmbedder {
	return &vectorEmbedder{vectors: map[string][]float32{
		"exact match":          {1, 0, 0},
		"close match":          {0.9, 0.1, 0},
		"same text other case": {1, 0, 0},
		"tied score":           {1, 0, 0},
		"the query":            {1, 0, 0},
	}}
}

func TestRetrieveForCase_ScopedAndOrdered(t *testing.T) {
	store := seedStore(t, newEmbedder())
	cc := NewCaseContext(store, "a", zap.NewNop())

	results, err := cc.RetrieveForCase(context.Background(), "the query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 chunks for case a, got %d", len(results))
	}

	// Chunks 0 and 3 score 1.0; the tie breaks by ascending chunk id.
	if results[0].ChunkID != 0 || results[1].ChunkID != 3 {
		t.Fatalf("tie break failed: %d, %d", results[0].ChunkID, results[1].ChunkID)
	}
	if results[2].ChunkID != 1 {
		t.Fatalf("expected close match last, got %d", results[2].ChunkID)
	}

	for _, r := range results {
		if r.Metadata.CaseID() != "a" {
			t.Fatalf("result leaked from case %q", r.Metadata.CaseID())
		}
	}
}

func TestRetrieveForCase_TopKCut(t *testing.T) {
	store := seedStore(t, newEmbedder())
	cc := NewCaseContext(store, "a", zap.NewNop())

	results, err := cc.RetrieveForCase(context.Background(), "the query", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 0 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestRetrieveForCase_EmptyCaseIsSoft(t *testing.T) {
	store := seedStore(t, newEmbedder())
	cc := NewCaseContext(store, "nope", zap.NewNop())

	results, err := cc.RetrieveForCase(context.Background(), "the query", 5)
	if err != nil {
		t.Fatalf("empty case must not error, got %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

func TestRetrieveForCase_EmbedError(t *testing.T) {
	emb := newEmbedder()
	store := seedStore(t, emb)
	emb.err = errors.New("provider down")

	cc := NewCaseContext(store, "a", zap.NewNop())
	_, err := cc.RetrieveForCase(context.Background(), "the query", 5)
	if err == nil || !strings.Contains(err.Error(), "case a") {
		t.Fatalf("expected wrapped retrieval error, got %v", err)
	}
}

func TestAllCaseChunks(t *testing.T) {
	store := seedStore(t, newEmbedder())
	cc := NewCaseContext(store, "a", zap.NewNop())

	chunks := cc.AllCaseChunks()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].ChunkID != 0 || chunks[1].ChunkID != 1 || chunks[2].ChunkID != 3 {
		t.Fatalf("chunks not in store order: %+v", chunks)
	}
}

func TestCaseMetadata(t *testing.T) {
	store := seedStore(t, newEmbedder())
	cc := NewCaseContext(store, "a", zap.NewNop())

	md := cc.CaseMetadata()
	if md.CaseID != "a" {
		t.Fatalf("case id: %q", md.CaseID)
	}
	if len(md.VisaTypes) != 1 || md.VisaTypes[0] != "EB1" {
		t.Fatalf("visa types: %v", md.VisaTypes)
	}
	if len(md.Categories) != 2 || md.Categories[0] != "awards" || md.Categories[1] != "cv" {
		t.Fatalf("categories not sorted: %v", md.Categories)
	}
	if md.DocumentCount != 2 {
		t.Fatalf("distinct filenames: got %d, want 2", md.DocumentCount)
	}
}

func TestFormatForPrompt(t *testing.T) {
	out := FormatForPrompt("what awards?", []domain.RetrievedChunk{
		{Text: "gold medal"},
		{Text: "patent grant"},
	})
	if !strings.HasPrefix(out, "Query: what awards?\n\nRelevant information:\n\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "[1] gold medal\n\n") || !strings.Contains(out, "[2] patent grant\n\n") {
		t.Fatalf("unexpected body: %q", out)
	}
}
