package kg

// RestoreGraph rebuilds a graph from exported nodes and edges.
func RestoreGraph(nodes []Node, edges []Edge) *Graph {
	g := NewGraph(nodes)
	for _, e := range edges {
		g.AddEdge(e.From, e.To, e.Kind, e.Weight)
	}
	return g
}

// RestoreBipartite rebuilds a bipartite index from exported edges.
func RestoreBipartite(edges []BipartiteEdge) *Bipartite {
	b := NewBipartite()
	for _, e := range edges {
		b.Link(ScopedKeyword{CaseID: e.CaseID, Lemma: e.Lemma}, e.ChunkID)
	}
	return b
}
