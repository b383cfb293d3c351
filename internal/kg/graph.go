// Package kg builds the two-layer knowledge structure over the corpus: a
// per-case-isolated directed graph with PageRank scores (layer 1) and a
// case-scoped keyword-chunk bipartite index (layer 2), plus the customer
// navigation tree.
package kg

import "sort"

// EdgeKind discriminates knowledge graph edge types.
type EdgeKind int

const (
	// EdgeExplicitSameCase links the first chunks of two documents in the
	// same case, guaranteeing intra-case reachability.
	EdgeExplicitSameCase EdgeKind = iota
	// EdgeSimilarSameCase links two chunks of the same case whose cosine
	// similarity exceeds the build threshold.
	EdgeSimilarSameCase
)

// String returns the wire name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeExplicitSameCase:
		return "same_case_explicit"
	case EdgeSimilarSameCase:
		return "same_case_similarity"
	default:
		return "unknown"
	}
}

// EdgeKindFromString parses a wire name back into an EdgeKind.
func EdgeKindFromString(s string) (EdgeKind, bool) {
	switch s {
	case "same_case_explicit":
		return EdgeExplicitSameCase, true
	case "same_case_similarity":
		return EdgeSimilarSameCase, true
	default:
		return 0, false
	}
}

// Node is a knowledge graph node, one per corpus chunk.
type Node struct {
	ChunkID  int
	CaseID   string
	PageRank float64
}

// Edge is a directed, weighted knowledge graph edge.
type Edge struct {
	From   int
	To     int
	Kind   EdgeKind
	Weight float64
}

// Graph is a typed adjacency structure over chunk ids. By construction no
// edge ever connects chunks from different cases, so the graph is a disjoint
// union of per-case components.
type Graph struct {
	nodes []Node
	out   map[int][]Edge
}

// NewGraph creates a graph with the given nodes and no edges.
func NewGraph(nodes []Node) *Graph {
	return &Graph{nodes: nodes, out: make(map[int][]Edge)}
}

// AddEdge appends a directed edge.
func (g *Graph) AddEdge(from, to int, kind EdgeKind, weight float64) {
	g.out[from] = append(g.out[from], Edge{From: from, To: to, Kind: kind, Weight: weight})
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the total number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, edges := range g.out {
		n += len(edges)
	}
	return n
}

// Node returns the node for the given chunk id.
func (g *Graph) Node(chunkID int) (Node, bool) {
	if chunkID < 0 || chunkID >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[chunkID], true
}

// PageRank returns the PageRank score of the given chunk.
func (g *Graph) PageRank(chunkID int) float64 {
	if chunkID < 0 || chunkID >= len(g.nodes) {
		return 0
	}
	return g.nodes[chunkID].PageRank
}

// OutEdges returns the outgoing edges of the given chunk.
func (g *Graph) OutEdges(chunkID int) []Edge { return g.out[chunkID] }

// HasEdge reports whether a directed edge of the given kind exists.
func (g *Graph) HasEdge(from, to int, kind EdgeKind) bool {
	for _, e := range g.out[from] {
		if e.To == to && e.Kind == kind {
			return true
		}
	}
	return false
}

// Edges returns all edges sorted by (from, to, kind) for deterministic export.
func (g *Graph) Edges() []Edge {
	var all []Edge
	for _, edges := range g.out {
		all = append(all, edges...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].From != all[j].From {
			return all[i].From < all[j].From
		}
		if all[i].To != all[j].To {
			return all[i].To < all[j].To
		}
		return all[i].Kind < all[j].Kind
	})
	return all
}

// Nodes returns a copy of all nodes in chunk id order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// setPageRank stores a score on a node.
func (g *Graph) setPageRank(chunkID int, score float64) {
	if chunkID >= 0 && chunkID < len(g.nodes) {
		g.nodes[chunkID].PageRank = score
	}
}
