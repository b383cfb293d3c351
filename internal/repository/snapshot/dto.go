package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/kg"
)

// SchemaVersion is the only snapshot layout this build reads and writes.
const SchemaVersion = 1

// document is the JSON-serializable snapshot of the whole engine state.
type document struct {
	SchemaVersion int                        `json:"schema_version"`
	Chunks        []chunkRow                 `json:"chunks"`
	Embeddings    [][]float32                `json:"embeddings"`
	GraphNodes    []graphNodeRow             `json:"graph_nodes"`
	GraphEdges    []graphEdgeRow             `json:"graph_edges"`
	Bipartite     []bipartiteRow             `json:"bipartite_edges"`
	TreeNodes     []treeNodeRow              `json:"tree_nodes"`
	Letters       map[string]domain.Metadata `json:"letters"`
}

type chunkRow struct {
	Text     string          `json:"text"`
	Metadata domain.Metadata `json:"metadata"`
}

type graphNodeRow struct {
	ChunkID  int     `json:"chunk_id"`
	CaseID   string  `json:"case_id"`
	PageRank float64 `json:"pagerank"`
}

type graphEdgeRow struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight"`
}

type bipartiteRow struct {
	CaseID  string `json:"case_id"`
	Lemma   string `json:"lemma"`
	ChunkID int    `json:"chunk_id"`
}

type treeNodeRow struct {
	ID       string `json:"id"`
	Parent   string `json:"parent,omitempty"`
	Kind     string `json:"kind"`
	CaseID   string `json:"case_id,omitempty"`
	VisaType string `json:"visa_type,omitempty"`
	Category string `json:"category,omitempty"`
	ChunkID  int    `json:"chunk_id"`
	Preview  string `json:"preview,omitempty"`
}

func encode(c Components) ([]byte, error) {
	doc := document{SchemaVersion: SchemaVersion}

	chunks, embeddings := c.Corpus.Export()
	doc.Chunks = make([]chunkRow, len(chunks))
	for i, ch := range chunks {
		doc.Chunks[i] = chunkRow{Text: ch.Text, Metadata: ch.Metadata}
	}
	doc.Embeddings = embeddings

	if c.Graph != nil {
		for _, n := range c.Graph.Nodes() {
			doc.GraphNodes = append(doc.GraphNodes, graphNodeRow{
				ChunkID:  n.ChunkID,
				CaseID:   n.CaseID,
				PageRank: n.PageRank,
			})
		}
		for _, e := range c.Graph.Edges() {
			doc.GraphEdges = append(doc.GraphEdges, graphEdgeRow{
				From:   e.From,
				To:     e.To,
				Kind:   e.Kind.String(),
				Weight: e.Weight,
			})
		}
	}

	if c.Bipartite != nil {
		for _, e := range c.Bipartite.Edges() {
			doc.Bipartite = append(doc.Bipartite, bipartiteRow{
				CaseID:  e.CaseID,
				Lemma:   e.Lemma,
				ChunkID: e.ChunkID,
			})
		}
	}

	if c.Tree != nil {
		doc.TreeNodes = treeToRows(c.Tree)
	}

	if c.Letters != nil {
		doc.Letters = c.Letters.Export()
	}

	return json.Marshal(doc)
}

func decode(data []byte, c Components) (*kg.Result, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d",
			domain.ErrSnapshotVersion, doc.SchemaVersion, SchemaVersion)
	}

	chunks := make([]domain.Chunk, len(doc.Chunks))
	for i, row := range doc.Chunks {
		chunks[i] = domain.Chunk{Text: row.Text, Metadata: row.Metadata}
	}
	if err := c.Corpus.Restore(chunks, doc.Embeddings); err != nil {
		return nil, fmt.Errorf("restore corpus: %w", err)
	}

	nodes := make([]kg.Node, len(doc.GraphNodes))
	for i, row := range doc.GraphNodes {
		nodes[i] = kg.Node{ChunkID: row.ChunkID, CaseID: row.CaseID, PageRank: row.PageRank}
	}
	edges := make([]kg.Edge, 0, len(doc.GraphEdges))
	for _, row := range doc.GraphEdges {
		kind, ok := kg.EdgeKindFromString(row.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown edge kind %q in snapshot", row.Kind)
		}
		edges = append(edges, kg.Edge{From: row.From, To: row.To, Kind: kind, Weight: row.Weight})
	}

	bip := make([]kg.BipartiteEdge, len(doc.Bipartite))
	for i, row := range doc.Bipartite {
		bip[i] = kg.BipartiteEdge{CaseID: row.CaseID, Lemma: row.Lemma, ChunkID: row.ChunkID}
	}

	if c.Letters != nil {
		c.Letters.Restore(doc.Letters)
	}

	// The tree is a pure function of chunk metadata; the stored rows exist
	// for external inspection and the rebuild is the source of truth.
	return &kg.Result{
		Graph:     kg.RestoreGraph(nodes, edges),
		Bipartite: kg.RestoreBipartite(bip),
		Tree:      kg.BuildCustomerTree(chunks),
	}, nil
}

func treeToRows(t *kg.CustomerTree) []treeNodeRow {
	parent := make(map[string]string)
	for _, n := range t.Nodes() {
		for _, child := range t.Children(n.ID) {
			parent[child] = n.ID
		}
	}
	rows := make([]treeNodeRow, 0, t.NodeCount())
	for _, n := range t.Nodes() {
		rows = append(rows, treeNodeRow{
			ID:       n.ID,
			Parent:   parent[n.ID],
			Kind:     string(n.Kind),
			CaseID:   n.CaseID,
			VisaType: n.VisaType,
			Category: n.Category,
			ChunkID:  n.ChunkID,
			Preview:  n.Preview,
		})
	}
	return rows
}
