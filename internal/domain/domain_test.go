package domain

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"empty", nil, nil, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMetadataAccessors(t *testing.T) {
	md := Metadata{
		KeyCaseID:          "case_x",
		KeyVisaType:        "EB1",
		KeyIsLetterExample: true,
		KeyChunkIndex:      3,
	}
	if md.CaseID() != "case_x" {
		t.Fatalf("CaseID: got %q", md.CaseID())
	}
	if !md.IsLetterExample() {
		t.Fatal("IsLetterExample: expected true")
	}
	// Absent and wrong-typed keys degrade to zero values.
	if md.Profession() != "" {
		t.Fatalf("Profession: got %q", md.Profession())
	}
	if md.String(KeyChunkIndex) != "" {
		t.Fatalf("non-string value should read as empty, got %q", md.String(KeyChunkIndex))
	}

	var nilMD Metadata
	if nilMD.CaseID() != "" || nilMD.IsLetterExample() {
		t.Fatal("nil metadata should read as zero values")
	}
}

func TestMetadataClone(t *testing.T) {
	md := Metadata{KeyCaseID: "case_x"}
	clone := md.Clone()
	clone[KeyCaseID] = "case_y"
	if md.CaseID() != "case_x" {
		t.Fatal("clone mutation leaked into original")
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Snippet("abcdefghij", 5); got != "abcde..." {
		t.Fatalf("got %q", got)
	}
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	c.calls++
	if c.err != nil {
		return EmbeddingResult{}, c.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
}

func TestBatchFallback(t *testing.T) {
	e := &countingEmbedder{}
	result, err := BatchEmbed(context.Background(), e, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.calls != 3 {
		t.Fatalf("expected 3 per-text calls, got %d", e.calls)
	}
	if len(result.Embeddings) != 3 || result.Embeddings[2][0] != 3 {
		t.Fatalf("unexpected embeddings: %v", result.Embeddings)
	}
	if result.TotalTokens != 3 {
		t.Fatalf("expected aggregated tokens, got %d", result.TotalTokens)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	wantErr := errors.New("down")
	e := &countingEmbedder{err: wantErr}
	_, err := BatchEmbed(context.Background(), e, []string{"a"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFallbackTagger(t *testing.T) {
	lexemes, err := FallbackTagger{}.Tag(context.Background(),
		"The robotics team filed patents for the AI system.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lemmas := make(map[string]bool)
	for _, l := range lexemes {
		if l.POS != POSNoun {
			t.Fatalf("fallback tagger must emit NOUN, got %q", l.POS)
		}
		lemmas[l.Lemma] = true
	}
	for _, want := range []string{"robotics", "team", "filed", "patents", "system"} {
		if !lemmas[want] {
			t.Fatalf("expected lemma %q in %v", want, lemmas)
		}
	}
	if lemmas["the"] || lemmas["for"] {
		t.Fatal("stopwords must be dropped")
	}
	if lemmas["ai"] {
		t.Fatal("tokens of two runes or fewer must be dropped")
	}
}

func TestMissingFieldsError(t *testing.T) {
	err := NewMissingFields(map[string]struct{}{"zeta": {}, "alpha": {}})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatal("expected ErrMissingFields sentinel")
	}
	var mfe *MissingFieldsError
	if !errors.As(err, &mfe) {
		t.Fatal("expected MissingFieldsError")
	}
	if len(mfe.Fields) != 2 || mfe.Fields[0] != "alpha" || mfe.Fields[1] != "zeta" {
		t.Fatalf("fields not sorted: %v", mfe.Fields)
	}
}
