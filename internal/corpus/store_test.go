package corpus

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"two paragraphs", "first para\n\nsecond para", []string{"first para", "second para"}},
		{"blank blocks dropped", "a\n\n\n\n  \n\nb", []string{"a", "b"}},
		{"single paragraph", "only one", []string{"only one"}},
		{"empty input", "", nil},
		{"whitespace only", "  \n \t ", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitParagraphs(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d paragraphs, want %d: %v", len(got), len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("paragraph %d: got %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestProcessDocument(t *testing.T) {
	store := NewStore(&stubEmbedder{}, zap.NewNop())
	md := domain.Metadata{
		domain.KeyCaseID:   "case_x",
		domain.KeyFilename: "cv.txt",
	}

	ids, err := store.ProcessDocument(context.Background(), "first para\n\nsecond para", md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 chunks, got %d", store.Len())
	}

	chunk, ok := store.Chunk(1)
	if !ok {
		t.Fatal("chunk 1 not found")
	}
	if chunk.Text != "second para" {
		t.Fatalf("unexpected text: %q", chunk.Text)
	}
	if idx, _ := chunk.Metadata[domain.KeyChunkIndex].(int); idx != 1 {
		t.Fatalf("chunk_index: got %v", chunk.Metadata[domain.KeyChunkIndex])
	}
	if chunk.Metadata.CaseID() != "case_x" {
		t.Fatalf("case_id: got %q", chunk.Metadata.CaseID())
	}

	// Chunk ids keep growing across documents.
	ids2, err := store.ProcessDocument(context.Background(), "third", md)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids2) != 1 || ids2[0] != 2 {
		t.Fatalf("unexpected ids for second document: %v", ids2)
	}

	if emb, ok := store.Embedding(2); !ok || len(emb) != 2 {
		t.Fatalf("embedding 2: %v, %v", emb, ok)
	}
}

func TestProcessDocument_SharedMetadataNotAliased(t *testing.T) {
	store := NewStore(&stubEmbedder{}, zap.NewNop())
	md := domain.Metadata{domain.KeyCaseID: "case_x"}
	if _, err := store.ProcessDocument(context.Background(), "a\n\nb", md); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c0, _ := store.Chunk(0)
	c1, _ := store.Chunk(1)
	if c0.Metadata[domain.KeyChunkIndex] == c1.Metadata[domain.KeyChunkIndex] {
		t.Fatal("chunks must carry distinct chunk_index values")
	}
	if _, shared := md[domain.KeyChunkIndex]; shared {
		t.Fatal("caller metadata must not be mutated")
	}
}

func TestProcessDocument_EmptyText(t *testing.T) {
	emb := &stubEmbedder{}
	store := NewStore(emb, zap.NewNop())
	ids, err := store.ProcessDocument(context.Background(), "  \n ", domain.Metadata{})
	if err != nil {
		t.Fatalf("empty document is a no-op, got %v", err)
	}
	if ids != nil || store.Len() != 0 || emb.calls != 0 {
		t.Fatalf("expected nothing stored; ids=%v len=%d calls=%d", ids, store.Len(), emb.calls)
	}
}

func TestProcessDocument_EmbedError(t *testing.T) {
	wantErr := errors.New("provider down")
	store := NewStore(&stubEmbedder{err: wantErr}, zap.NewNop())
	_, err := store.ProcessDocument(context.Background(), "some text", domain.Metadata{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed ingest must not leave partial chunks")
	}
}

func TestCaseIndices(t *testing.T) {
	store := NewStore(&stubEmbedder{}, zap.NewNop())
	ctx := context.Background()
	store.ProcessDocument(ctx, "a", domain.Metadata{domain.KeyCaseID: "x"})
	store.ProcessDocument(ctx, "bb", domain.Metadata{domain.KeyCaseID: "y"})
	store.ProcessDocument(ctx, "ccc", domain.Metadata{domain.KeyCaseID: "x"})

	got := store.CaseIndices("x")
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("unexpected indices: %v", got)
	}
	if got := store.CaseIndices("missing"); got != nil {
		t.Fatalf("expected nil for unknown case, got %v", got)
	}
}

func TestScanStopsEarly(t *testing.T) {
	store := NewStore(&stubEmbedder{}, zap.NewNop())
	ctx := context.Background()
	store.ProcessDocument(ctx, "a", domain.Metadata{})
	store.ProcessDocument(ctx, "b", domain.Metadata{})

	var visited int
	store.Scan(func(id int, _ domain.Chunk) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("expected scan to stop after 1, got %d", visited)
	}
}

func TestExportRestore(t *testing.T) {
	store := NewStore(&stubEmbedder{}, zap.NewNop())
	ctx := context.Background()
	store.ProcessDocument(ctx, "a\n\nb", domain.Metadata{domain.KeyCaseID: "x"})

	chunks, embeddings := store.Export()

	restored := NewStore(nil, zap.NewNop())
	if err := restored.Restore(chunks, embeddings); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Len() != store.Len() {
		t.Fatalf("len mismatch: %d vs %d", restored.Len(), store.Len())
	}

	if err := restored.Restore(chunks, embeddings[:1]); err == nil {
		t.Fatal("expected error for misaligned chunks and embeddings")
	}
}
