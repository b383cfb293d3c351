// Package retrieval provides the case-scoped similarity retrieval view over
// the corpus. Retrieval never crosses a case boundary: the embedding index is
// filtered to the case before any similarity is computed.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/corpus"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/metrics"
)

// CaseContext is a case-scoped retrieval view over a corpus store.
type CaseContext struct {
	store  *corpus.Store
	caseID string
	logger *zap.Logger
}

// NewCaseContext creates a retrieval view for one case.
func NewCaseContext(store *corpus.Store, caseID string, logger *zap.Logger) *CaseContext {
	return &CaseContext{store: store, caseID: caseID, logger: logger}
}

// CaseID returns the case this context is scoped to.
func (c *CaseContext) CaseID() string { return c.caseID }

// RetrieveForCase embeds the query and returns the top-k most similar chunks
// of this case in descending score order, ties broken by chunk id ascending.
// A case with no chunks yields an empty result and a warning, never an error.
func (c *CaseContext) RetrieveForCase(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	caseIdx := c.store.CaseIndices(c.caseID)
	if len(caseIdx) == 0 {
		c.logger.Warn("No chunks found for case", zap.String("case_id", c.caseID))
		metrics.RetrievalsTotal.WithLabelValues("empty_case").Inc()
		return nil, nil
	}

	queryVec, err := c.store.EmbedQuery(ctx, query)
	if err != nil {
		metrics.RetrievalsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("retrieve for case %s: %w", c.caseID, err)
	}

	scored := make([]domain.RetrievedChunk, 0, len(caseIdx))
	for _, id := range caseIdx {
		emb, ok := c.store.Embedding(id)
		if !ok {
			continue
		}
		chunk, _ := c.store.Chunk(id)
		scored = append(scored, domain.RetrievedChunk{
			ChunkID:  id,
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
			Score:    domain.CosineSimilarity(queryVec, emb),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	metrics.RetrievalsTotal.WithLabelValues("ok").Inc()
	return scored, nil
}

// AllCaseChunks returns every chunk of the case with its id, in store order.
func (c *CaseContext) AllCaseChunks() []domain.RetrievedChunk {
	var out []domain.RetrievedChunk
	for _, id := range c.store.CaseIndices(c.caseID) {
		chunk, ok := c.store.Chunk(id)
		if !ok {
			continue
		}
		out = append(out, domain.RetrievedChunk{ChunkID: id, Text: chunk.Text, Metadata: chunk.Metadata})
	}
	return out
}

// CaseMetadata aggregates the metadata seen across one case. Missing fields
// are treated as absent, not errors.
type CaseMetadata struct {
	CaseID        string
	VisaTypes     []string
	Categories    []string
	DocumentCount int // distinct filenames
}

// CaseMetadata aggregates visa types, categories, and the distinct filename
// count for this case. Pure aggregation; no side effects.
func (c *CaseContext) CaseMetadata() CaseMetadata {
	visaTypes := make(map[string]struct{})
	categories := make(map[string]struct{})
	filenames := make(map[string]struct{})

	for _, rc := range c.AllCaseChunks() {
		if v := rc.Metadata.VisaType(); v != "" {
			visaTypes[v] = struct{}{}
		}
		if v := rc.Metadata.Category(); v != "" {
			categories[v] = struct{}{}
		}
		if v := rc.Metadata.Filename(); v != "" {
			filenames[v] = struct{}{}
		}
	}

	return CaseMetadata{
		CaseID:        c.caseID,
		VisaTypes:     sortedKeys(visaTypes),
		Categories:    sortedKeys(categories),
		DocumentCount: len(filenames),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FormatForPrompt renders retrieval results as a numbered evidence block for
// inclusion in a prompt.
func FormatForPrompt(query string, results []domain.RetrievedChunk) string {
	formatted := fmt.Sprintf("Query: %s\n\nRelevant information:\n\n", query)
	for i, r := range results {
		formatted += fmt.Sprintf("[%d] %s\n\n", i+1, r.Text)
	}
	return formatted
}
