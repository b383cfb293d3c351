package kg

import "sort"

// ScopedKeyword identifies a keyword node in the bipartite index. The lemma
// is scoped by case id, so the same word in two cases yields two distinct
// nodes and keyword lookups can never cross a case boundary.
type ScopedKeyword struct {
	CaseID string
	Lemma  string
}

// Bipartite is the keyword-chunk index: an undirected bipartite graph between
// case-scoped keyword nodes and chunk nodes. Edge presence means the lemma
// appears in the chunk's text.
type Bipartite struct {
	byKeyword map[ScopedKeyword][]int
	byChunk   map[int][]ScopedKeyword
}

// NewBipartite creates an empty bipartite index.
func NewBipartite() *Bipartite {
	return &Bipartite{
		byKeyword: make(map[ScopedKeyword][]int),
		byChunk:   make(map[int][]ScopedKeyword),
	}
}

// Link records an edge between a scoped keyword and a chunk. Duplicate links
// are ignored.
func (b *Bipartite) Link(kw ScopedKeyword, chunkID int) {
	for _, id := range b.byKeyword[kw] {
		if id == chunkID {
			return
		}
	}
	b.byKeyword[kw] = append(b.byKeyword[kw], chunkID)
	b.byChunk[chunkID] = append(b.byChunk[chunkID], kw)
}

// ChunksForKeyword returns the chunk ids linked to the lemma within one case,
// in insertion order.
func (b *Bipartite) ChunksForKeyword(caseID, lemma string) []int {
	return b.byKeyword[ScopedKeyword{CaseID: caseID, Lemma: lemma}]
}

// KeywordsForChunk returns the scoped keywords linked to the chunk.
func (b *Bipartite) KeywordsForChunk(chunkID int) []ScopedKeyword {
	return b.byChunk[chunkID]
}

// KeywordCount returns the number of distinct scoped keyword nodes.
func (b *Bipartite) KeywordCount() int { return len(b.byKeyword) }

// EdgeCount returns the number of keyword-chunk edges.
func (b *Bipartite) EdgeCount() int {
	n := 0
	for _, chunks := range b.byKeyword {
		n += len(chunks)
	}
	return n
}

// BipartiteEdge is one keyword-chunk link in export form.
type BipartiteEdge struct {
	CaseID  string
	Lemma   string
	ChunkID int
}

// Edges returns all links sorted by (case, lemma, chunk) for deterministic
// export.
func (b *Bipartite) Edges() []BipartiteEdge {
	edges := make([]BipartiteEdge, 0, b.EdgeCount())
	for kw, chunks := range b.byKeyword {
		for _, id := range chunks {
			edges = append(edges, BipartiteEdge{CaseID: kw.CaseID, Lemma: kw.Lemma, ChunkID: id})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CaseID != edges[j].CaseID {
			return edges[i].CaseID < edges[j].CaseID
		}
		if edges[i].Lemma != edges[j].Lemma {
			return edges[i].Lemma < edges[j].Lemma
		}
		return edges[i].ChunkID < edges[j].ChunkID
	})
	return edges
}
