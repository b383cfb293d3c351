package kg

// PageRankParams control the power-iteration run. Parameters come from config
// at every build; nothing is reused from a previous run.
type PageRankParams struct {
	Damping   float64 // teleport probability complement, default 0.85
	Tolerance float64 // L1 residual tolerance per node, default 1e-6
	MaxIter   int     // iteration cap, default 100
}

// computePageRank runs weighted PageRank over the graph and stores the score
// on every node. Transition probability out of a node is proportional to edge
// weight; dangling mass is redistributed uniformly. Since the graph never
// contains cross-case edges, the global run is equivalent to the union of
// per-case component runs.
func computePageRank(g *Graph, p PageRankParams) {
	n := g.NodeCount()
	if n == 0 {
		return
	}

	outWeight := make([]float64, n)
	for id := 0; id < n; id++ {
		for _, e := range g.OutEdges(id) {
			outWeight[id] += e.Weight
		}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	for iter := 0; iter < p.MaxIter; iter++ {
		var dangling float64
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				dangling += rank[i]
			}
			next[i] = 0
		}

		base := (1-p.Damping)/float64(n) + p.Damping*dangling/float64(n)
		for i := 0; i < n; i++ {
			next[i] = base
		}
		for from := 0; from < n; from++ {
			if outWeight[from] == 0 {
				continue
			}
			share := p.Damping * rank[from] / outWeight[from]
			for _, e := range g.OutEdges(from) {
				next[e.To] += share * e.Weight
			}
		}

		var residual float64
		for i := 0; i < n; i++ {
			diff := next[i] - rank[i]
			if diff < 0 {
				diff = -diff
			}
			residual += diff
		}
		rank, next = next, rank

		if residual < p.Tolerance*float64(n) {
			break
		}
	}

	for i := 0; i < n; i++ {
		g.setPageRank(i, rank[i])
	}
}
