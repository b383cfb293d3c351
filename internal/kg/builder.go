package kg

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/metrics"
)

// BuildParams control knowledge graph construction.
type BuildParams struct {
	SimilarityThreshold float64 // similarity edge cutoff, strict, default 0.4
	ExplicitEdgeWeight  float64 // same-case document link weight, default 0.5
	PageRank            PageRankParams
}

// DefaultBuildParams returns the standard construction parameters.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		SimilarityThreshold: 0.4,
		ExplicitEdgeWeight:  0.5,
		PageRank:            PageRankParams{Damping: 0.85, Tolerance: 1e-6, MaxIter: 100},
	}
}

// Result bundles the structures produced by one build pass.
type Result struct {
	Graph     *Graph
	Bipartite *Bipartite
	Tree      *CustomerTree
}

// corpusView is the read-only corpus access the builder needs.
type corpusView interface {
	View() ([]domain.Chunk, [][]float32)
}

// Builder constructs the knowledge graph, bipartite index, and customer tree
// in one pass over the full corpus. Construction must complete before
// retrieval against the result is considered valid.
type Builder struct {
	params BuildParams
	tagger domain.Tagger
	logger *zap.Logger
}

// NewBuilder creates a builder.
func NewBuilder(params BuildParams, tagger domain.Tagger, logger *zap.Logger) *Builder {
	return &Builder{params: params, tagger: tagger, logger: logger}
}

// Build runs the full construction pass. An empty corpus is a logged no-op
// returning empty structures, never an error.
func (b *Builder) Build(ctx context.Context, store corpusView) (*Result, error) {
	start := time.Now()
	chunks, embeddings := store.View()

	result := &Result{
		Graph:     NewGraph(nodesFor(chunks)),
		Bipartite: NewBipartite(),
		Tree:      BuildCustomerTree(chunks),
	}
	if len(chunks) == 0 {
		b.logger.Warn("No chunks processed, cannot build knowledge graph")
		return result, nil
	}

	b.logger.Info("Building case-isolated knowledge graph", zap.Int("chunks", len(chunks)))

	for _, caseID := range caseOrder(chunks) {
		b.buildCaseEdges(result.Graph, chunks, embeddings, caseID)
	}

	computePageRank(result.Graph, b.params.PageRank)

	if err := b.buildBipartite(ctx, result.Bipartite, chunks); err != nil {
		return nil, fmt.Errorf("build bipartite index: %w", err)
	}

	b.observe(result, time.Since(start))
	return result, nil
}

// nodesFor creates one node per chunk carrying its case id.
func nodesFor(chunks []domain.Chunk) []Node {
	nodes := make([]Node, len(chunks))
	for i, c := range chunks {
		nodes[i] = Node{ChunkID: i, CaseID: c.Metadata.CaseID()}
	}
	return nodes
}

// caseOrder returns case ids in first-appearance order.
func caseOrder(chunks []domain.Chunk) []string {
	seen := make(map[string]struct{})
	var order []string
	for _, c := range chunks {
		id := c.Metadata.CaseID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}
	return order
}

// buildCaseEdges adds explicit and similarity edges for one case. A case with
// fewer than two chunks is skipped without failure.
func (b *Builder) buildCaseEdges(g *Graph, chunks []domain.Chunk, embeddings [][]float32, caseID string) {
	var caseIdx []int
	for i, c := range chunks {
		if c.Metadata.CaseID() == caseID {
			caseIdx = append(caseIdx, i)
		}
	}
	if len(caseIdx) < 2 {
		return
	}

	// First chunk of every document, documents in first-appearance order.
	var docOrder []string
	docFirst := make(map[string]int)
	for _, i := range caseIdx {
		docID := chunks[i].Metadata.DocumentID()
		if docID == "" {
			docID = fmt.Sprintf("unknown_%d", i)
		}
		if _, ok := docFirst[docID]; !ok {
			docFirst[docID] = i
			docOrder = append(docOrder, docID)
		}
	}

	// Bidirectional explicit edges between every pair of distinct documents:
	// every document pair stays reachable even with zero semantic overlap.
	for i := 0; i < len(docOrder); i++ {
		for j := i + 1; j < len(docOrder); j++ {
			a, c := docFirst[docOrder[i]], docFirst[docOrder[j]]
			g.AddEdge(a, c, EdgeExplicitSameCase, b.params.ExplicitEdgeWeight)
			g.AddEdge(c, a, EdgeExplicitSameCase, b.params.ExplicitEdgeWeight)
		}
	}

	// Directed similarity edges for every ordered pair above the threshold.
	for _, i := range caseIdx {
		for _, j := range caseIdx {
			if i == j {
				continue
			}
			sim := domain.CosineSimilarity(embeddings[i], embeddings[j])
			if sim > b.params.SimilarityThreshold {
				g.AddEdge(i, j, EdgeSimilarSameCase, sim)
			}
		}
	}
}

// buildBipartite tags every chunk and links its case-scoped noun lemmas.
func (b *Builder) buildBipartite(ctx context.Context, bp *Bipartite, chunks []domain.Chunk) error {
	for i, chunk := range chunks {
		lexemes, err := b.tagger.Tag(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("tag chunk %d: %w", i, err)
		}

		unique := make(map[string]struct{})
		for _, lx := range lexemes {
			if lx.POS != domain.POSNoun && lx.POS != domain.POSProperNoun {
				continue
			}
			if len([]rune(lx.Lemma)) <= 2 {
				continue
			}
			unique[strings.ToLower(lx.Lemma)] = struct{}{}
		}

		lemmas := make([]string, 0, len(unique))
		for lemma := range unique {
			lemmas = append(lemmas, lemma)
		}
		sort.Strings(lemmas)

		caseID := chunk.Metadata.CaseID()
		for _, lemma := range lemmas {
			bp.Link(ScopedKeyword{CaseID: caseID, Lemma: lemma}, i)
		}
	}
	return nil
}

func (b *Builder) observe(r *Result, elapsed time.Duration) {
	explicit, similarity := 0, 0
	for _, e := range r.Graph.Edges() {
		if e.Kind == EdgeExplicitSameCase {
			explicit++
		} else {
			similarity++
		}
	}

	metrics.CorpusBuildDuration.Observe(elapsed.Seconds())
	metrics.GraphNodes.Set(float64(r.Graph.NodeCount()))
	metrics.GraphEdges.WithLabelValues(EdgeExplicitSameCase.String()).Set(float64(explicit))
	metrics.GraphEdges.WithLabelValues(EdgeSimilarSameCase.String()).Set(float64(similarity))
	metrics.BipartiteKeywords.Set(float64(r.Bipartite.KeywordCount()))

	b.logger.Info("Built knowledge graph",
		zap.Int("nodes", r.Graph.NodeCount()),
		zap.Int("edges", r.Graph.EdgeCount()),
		zap.Int("keywords", r.Bipartite.KeywordCount()),
		zap.Int("tree_nodes", r.Tree.NodeCount()),
		zap.Duration("duration", elapsed),
	)
}
