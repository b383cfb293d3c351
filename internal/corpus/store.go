// Package corpus owns the chunk store and the embedding index. Chunks are
// identified by their stable position in the store; embeddings are aligned by
// the same position. Writes take the exclusive lock, reads share it, so graph
// rebuilds never observe a half-ingested corpus.
package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/metrics"
)

// Store holds ingested chunks and their embeddings.
type Store struct {
	mu         sync.RWMutex
	chunks     []domain.Chunk
	embeddings [][]float32

	embedder domain.Embedder
	logger   *zap.Logger
}

// NewStore creates an empty corpus store.
func NewStore(embedder domain.Embedder, logger *zap.Logger) *Store {
	return &Store{embedder: embedder, logger: logger}
}

// ProcessDocument chunks raw text by paragraph, embeds every chunk in one
// batch, and appends the result to the store. Each chunk gets a copy of the
// supplied metadata extended with zero-based chunk_index and paragraph_index.
// Returns the ids of the stored chunks.
func (s *Store) ProcessDocument(ctx context.Context, text string, metadata domain.Metadata) ([]int, error) {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		s.logger.Warn("Document produced no chunks",
			zap.String("case_id", metadata.CaseID()),
			zap.String("filename", metadata.Filename()),
		)
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(paragraphs))
	for i, para := range paragraphs {
		md := metadata.Clone()
		md[domain.KeyChunkIndex] = i
		md[domain.KeyParagraphIndex] = i
		chunks[i] = domain.Chunk{Text: para, Metadata: md}
	}

	start := time.Now()
	result, err := domain.BatchEmbed(ctx, s.embedder, paragraphs)
	if err != nil {
		return nil, fmt.Errorf("embed document chunks: %w", err)
	}
	if len(result.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(result.Embeddings), len(chunks))
	}

	kind := "document"
	if metadata.IsLetterExample() {
		kind = "letter_example"
	}
	metrics.ChunksIngestedTotal.WithLabelValues(kind).Add(float64(len(chunks)))

	s.mu.Lock()
	ids := make([]int, len(chunks))
	for i := range chunks {
		ids[i] = len(s.chunks)
		s.chunks = append(s.chunks, chunks[i])
		s.embeddings = append(s.embeddings, result.Embeddings[i])
	}
	s.mu.Unlock()

	s.logger.Info("Processed document",
		zap.String("case_id", metadata.CaseID()),
		zap.String("filename", metadata.Filename()),
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Duration("embed_duration", time.Since(start)),
	)
	return ids, nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Chunk returns the chunk with the given id.
func (s *Store) Chunk(id int) (domain.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.chunks) {
		return domain.Chunk{}, false
	}
	return s.chunks[id], true
}

// Embedding returns the embedding aligned with the given chunk id.
func (s *Store) Embedding(id int) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.embeddings) {
		return nil, false
	}
	return s.embeddings[id], true
}

// View returns the current chunk and embedding slices under a shared read.
// Chunks are immutable once stored, so holding the returned slice headers
// after the lock is released is safe.
func (s *Store) View() ([]domain.Chunk, [][]float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks, s.embeddings
}

// CaseIndices returns the ids of all chunks belonging to the given case, in
// store order.
func (s *Store) CaseIndices(caseID string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int
	for i, c := range s.chunks {
		if c.Metadata.CaseID() == caseID {
			ids = append(ids, i)
		}
	}
	return ids
}

// Scan visits every chunk in store order until fn returns false.
func (s *Store) Scan(fn func(id int, c domain.Chunk) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, c := range s.chunks {
		if !fn(i, c) {
			return
		}
	}
}

// EmbedQuery embeds a retrieval query through the store's embedder.
func (s *Store) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return result.Embedding, nil
}

// Export copies the store contents for snapshot serialization.
func (s *Store) Export() ([]domain.Chunk, [][]float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]domain.Chunk, len(s.chunks))
	copy(chunks, s.chunks)
	embeddings := make([][]float32, len(s.embeddings))
	copy(embeddings, s.embeddings)
	return chunks, embeddings
}

// Restore replaces the store contents from a snapshot.
func (s *Store) Restore(chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("snapshot has %d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	s.mu.Lock()
	s.chunks = chunks
	s.embeddings = embeddings
	s.mu.Unlock()
	return nil
}
