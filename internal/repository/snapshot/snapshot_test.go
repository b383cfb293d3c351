package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/kg"
	"github.com/kailas-cloud/casedex/internal/letters"
	"github.com/kailas-cloud/casedex/internal/retrieval"
)

// fakeEmbedder maps fixed texts to fixed vectors so scores are predictable.
type fakeEmbedder struct {
	vectors map[string][]float32
	def     []float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if v, ok := f.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v}, nil
	}
	return domain.EmbeddingResult{Embedding: f.def}, nil
}

func buildFixture(t *testing.T) (*corpus.Store, *kg.Result, *letters.Processor) {
	t.Helper()
	ctx := context.Background()
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"Alice led the robotics team.": {1, 0, 0},
			"Alice filed three patents.":   {0.9, 0.1, 0},
			"Bob managed the clinic.":      {0, 1, 0},
		},
		def: []float32{0.5, 0.5, 0},
	}
	store := corpus.NewStore(emb, zap.NewNop())

	docs := []struct {
		text string
		md   domain.Metadata
	}{
		{"Alice led the robotics team.", domain.Metadata{
			domain.KeyCaseID: "case_a", domain.KeyVisaType: "EB1",
			domain.KeyCategory: "recommendation", domain.KeyDocumentID: "doc1",
			domain.KeyFilename: "rec.txt",
		}},
		{"Alice filed three patents.", domain.Metadata{
			domain.KeyCaseID: "case_a", domain.KeyVisaType: "EB1",
			domain.KeyCategory: "achievements", domain.KeyDocumentID: "doc2",
			domain.KeyFilename: "patents.txt",
		}},
		{"Bob managed the clinic.", domain.Metadata{
			domain.KeyCaseID: "case_b", domain.KeyVisaType: "EB2",
			domain.KeyCategory: "recommendation", domain.KeyDocumentID: "doc3",
			domain.KeyFilename: "clinic.txt",
		}},
	}
	for _, d := range docs {
		if _, err := store.ProcessDocument(ctx, d.text, d.md); err != nil {
			t.Fatalf("process document: %v", err)
		}
	}

	builder := kg.NewBuilder(kg.DefaultBuildParams(), domain.FallbackTagger{}, zap.NewNop())
	result, err := builder.Build(ctx, store)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}

	proc := letters.NewProcessor(store, zap.NewNop())
	if _, err := proc.ProcessLetter(ctx, "Dear Officer, Alice is exceptional.", domain.Metadata{
		domain.KeyVisaType:   "EB1",
		domain.KeyProfession: "engineer",
		domain.KeyLetterID:   "letter-1",
	}, nil); err != nil {
		t.Fatalf("process letter: %v", err)
	}

	return store, result, proc
}

func TestRoundTrip_PreservesCountsAndRetrieval(t *testing.T) {
	ctx := context.Background()
	store, result, proc := buildFixture(t)

	backend := NewFileBackend(filepath.Join(t.TempDir(), "corpus.json"))
	repo := NewRepository(backend, zap.NewNop())

	err := repo.Save(ctx, Components{
		Corpus:    store,
		Graph:     result.Graph,
		Bipartite: result.Bipartite,
		Tree:      result.Tree,
		Letters:   proc,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	emb := &fakeEmbedder{
		vectors: map[string][]float32{"robotics leadership": {1, 0, 0}},
		def:     []float32{0, 0, 1},
	}
	store2 := corpus.NewStore(emb, zap.NewNop())
	proc2 := letters.NewProcessor(store2, zap.NewNop())
	restored, err := repo.Load(ctx, Components{Corpus: store2, Letters: proc2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if store2.Len() != store.Len() {
		t.Fatalf("chunk count: got %d, want %d", store2.Len(), store.Len())
	}
	if restored.Graph.NodeCount() != result.Graph.NodeCount() {
		t.Fatalf("node count: got %d, want %d",
			restored.Graph.NodeCount(), result.Graph.NodeCount())
	}
	if restored.Graph.EdgeCount() != result.Graph.EdgeCount() {
		t.Fatalf("edge count: got %d, want %d",
			restored.Graph.EdgeCount(), result.Graph.EdgeCount())
	}
	if restored.Bipartite.EdgeCount() != result.Bipartite.EdgeCount() {
		t.Fatalf("bipartite edges: got %d, want %d",
			restored.Bipartite.EdgeCount(), result.Bipartite.EdgeCount())
	}
	if restored.Tree.NodeCount() != result.Tree.NodeCount() {
		t.Fatalf("tree nodes: got %d, want %d",
			restored.Tree.NodeCount(), result.Tree.NodeCount())
	}

	// PageRank scores survive the round trip.
	for _, n := range result.Graph.Nodes() {
		got := restored.Graph.PageRank(n.ChunkID)
		if got != n.PageRank {
			t.Fatalf("pagerank for chunk %d: got %v, want %v", n.ChunkID, got, n.PageRank)
		}
	}

	// Retrieval against the restored store matches the original corpus.
	cc := retrieval.NewCaseContext(store2, "case_a", zap.NewNop())
	results, err := cc.RetrieveForCase(ctx, "robotics leadership", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "Alice led the robotics team." {
		t.Fatalf("unexpected top result: %q", results[0].Text)
	}
	for _, r := range results {
		if r.Metadata.CaseID() != "case_a" {
			t.Fatalf("result from wrong case: %q", r.Metadata.CaseID())
		}
	}

	// The letter registry survives too.
	if md, ok := proc2.LetterMetadata("letter-1"); !ok || md.VisaType() != "EB1" {
		t.Fatalf("letter registry not restored: %v, %v", md, ok)
	}
}

func TestLoad_RejectsUnknownSchemaVersion(t *testing.T) {
	ctx := context.Background()
	backend := NewFileBackend(filepath.Join(t.TempDir(), "corpus.json"))
	if err := backend.Save(ctx, []byte(`{"schema_version": 2}`)); err != nil {
		t.Fatalf("seed backend: %v", err)
	}

	repo := NewRepository(backend, zap.NewNop())
	store := corpus.NewStore(&fakeEmbedder{def: []float32{1}}, zap.NewNop())
	_, err := repo.Load(ctx, Components{Corpus: store})
	if !errors.Is(err, domain.ErrSnapshotVersion) {
		t.Fatalf("expected ErrSnapshotVersion, got %v", err)
	}
}

func TestFileBackend_LoadMissingFile(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := backend.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing snapshot file")
	}
}

type mapKV struct {
	data map[string][]byte
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func TestKVBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{}
	backend := NewKVBackend(kv, "casedex:corpus_snapshot")

	payload := []byte(`{"schema_version": 1}`)
	if err := backend.Save(ctx, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}
