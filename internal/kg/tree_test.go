package kg

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/casedex/internal/domain"
)

func treeChunks() []domain.Chunk {
	return []domain.Chunk{
		{Text: "cv text", Metadata: domain.Metadata{
			domain.KeyCaseID: "001", domain.KeyVisaType: "EB1", domain.KeyCategory: "cv",
		}},
		{Text: "award text", Metadata: domain.Metadata{
			domain.KeyCaseID: "001", domain.KeyVisaType: "EB1", domain.KeyCategory: "awards",
		}},
		{Text: "other case", Metadata: domain.Metadata{
			domain.KeyCaseID: "002", domain.KeyVisaType: "EB2", domain.KeyCategory: "cv",
		}},
	}
}

func TestBuildCustomerTree(t *testing.T) {
	tree := BuildCustomerTree(treeChunks())

	// root + 2 cases + 2 visas + 3 categories + 3 documents
	if tree.NodeCount() != 11 {
		t.Fatalf("node count: got %d, want 11", tree.NodeCount())
	}
	if tree.EdgeCount() != tree.NodeCount()-1 {
		t.Fatalf("tree must have n-1 edges, got %d for %d nodes",
			tree.EdgeCount(), tree.NodeCount())
	}

	cases := tree.Cases()
	if len(cases) != 2 || cases[0] != "001" || cases[1] != "002" {
		t.Fatalf("cases: got %v", cases)
	}

	doc, ok := tree.Node("case_001_visa_EB1_cat_cv_doc_0")
	if !ok {
		t.Fatal("document node missing")
	}
	if doc.Kind != TreeDocument || doc.ChunkID != 0 || doc.Preview != "cv text" {
		t.Fatalf("unexpected document node: %+v", doc)
	}

	caseNode, ok := tree.Node(CaseNodeID("001"))
	if !ok || caseNode.Kind != TreeCase || caseNode.ChunkID != -1 {
		t.Fatalf("unexpected case node: %+v", caseNode)
	}
	children := tree.Children(CaseNodeID("001"))
	if len(children) != 1 || children[0] != VisaNodeID("001", "EB1") {
		t.Fatalf("case children: got %v", children)
	}
}

func TestBuildCustomerTree_Idempotent(t *testing.T) {
	a := BuildCustomerTree(treeChunks())
	b := BuildCustomerTree(treeChunks())

	na, nb := a.Nodes(), b.Nodes()
	if len(na) != len(nb) {
		t.Fatalf("node counts differ: %d vs %d", len(na), len(nb))
	}
	for i := range na {
		if na[i] != nb[i] {
			t.Fatalf("node %d differs: %+v vs %+v", i, na[i], nb[i])
		}
	}
}

func TestBuildCustomerTree_PartialMetadata(t *testing.T) {
	chunks := []domain.Chunk{
		{Text: "no case", Metadata: domain.Metadata{}},
		{Text: "case only", Metadata: domain.Metadata{domain.KeyCaseID: "003"}},
		{Text: "no category", Metadata: domain.Metadata{
			domain.KeyCaseID: "003", domain.KeyVisaType: "EB2",
		}},
	}
	tree := BuildCustomerTree(chunks)

	// root + case_003 + visa level; no category or document nodes.
	if tree.NodeCount() != 3 {
		t.Fatalf("node count: got %d, want 3", tree.NodeCount())
	}
	if _, ok := tree.Node(CaseNodeID("003")); !ok {
		t.Fatal("case node missing")
	}
	if _, ok := tree.Node(VisaNodeID("003", "EB2")); !ok {
		t.Fatal("visa node missing")
	}
}

func TestBuildCustomerTree_PreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 150)
	chunks := []domain.Chunk{
		{Text: long, Metadata: domain.Metadata{
			domain.KeyCaseID: "001", domain.KeyVisaType: "EB1", domain.KeyCategory: "cv",
		}},
	}
	tree := BuildCustomerTree(chunks)
	doc, _ := tree.Node("case_001_visa_EB1_cat_cv_doc_0")
	if len([]rune(doc.Preview)) != 103 || !strings.HasSuffix(doc.Preview, "...") {
		t.Fatalf("preview not truncated to 100 runes plus ellipsis: %d runes",
			len([]rune(doc.Preview)))
	}
}

func TestRestoreGraphAndBipartite(t *testing.T) {
	result := build(t, twoCaseCorpus(), DefaultBuildParams())

	g2 := RestoreGraph(result.Graph.Nodes(), result.Graph.Edges())
	if g2.NodeCount() != result.Graph.NodeCount() || g2.EdgeCount() != result.Graph.EdgeCount() {
		t.Fatal("restored graph counts differ")
	}
	for _, e := range result.Graph.Edges() {
		if !g2.HasEdge(e.From, e.To, e.Kind) {
			t.Fatalf("edge %+v missing after restore", e)
		}
	}
	for _, n := range result.Graph.Nodes() {
		if g2.PageRank(n.ChunkID) != n.PageRank {
			t.Fatalf("pagerank lost for %d", n.ChunkID)
		}
	}

	b2 := RestoreBipartite(result.Bipartite.Edges())
	if b2.KeywordCount() != result.Bipartite.KeywordCount() ||
		b2.EdgeCount() != result.Bipartite.EdgeCount() {
		t.Fatal("restored bipartite counts differ")
	}
}

func TestEdgeKindFromString(t *testing.T) {
	if k, ok := EdgeKindFromString("same_case_explicit"); !ok || k != EdgeExplicitSameCase {
		t.Fatalf("got %v, %v", k, ok)
	}
	if k, ok := EdgeKindFromString("same_case_similarity"); !ok || k != EdgeSimilarSameCase {
		t.Fatalf("got %v, %v", k, ok)
	}
	if _, ok := EdgeKindFromString("bogus"); ok {
		t.Fatal("unknown kind must not parse")
	}
}
