package kg

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/casedex/internal/domain"
)

// TreeNodeKind discriminates customer tree levels.
type TreeNodeKind string

const (
	TreeRoot     TreeNodeKind = "root"
	TreeCase     TreeNodeKind = "case"
	TreeVisa     TreeNodeKind = "visa_type"
	TreeCategory TreeNodeKind = "category"
	TreeDocument TreeNodeKind = "document"
)

// RootNodeID is the fixed id of the tree root.
const RootNodeID = "root"

// previewRunes is the document node text preview length.
const previewRunes = 100

// TreeNode is one node of the customer tree. The id is a pure function of the
// ancestor path components, so rebuilding from the same chunk set yields the
// same node set.
type TreeNode struct {
	ID       string
	Kind     TreeNodeKind
	CaseID   string
	VisaType string
	Category string
	ChunkID  int // document nodes only, -1 otherwise
	Preview  string
}

// CustomerTree is the rooted case → visa type → category → document index.
type CustomerTree struct {
	nodes    map[string]TreeNode
	children map[string][]string
}

// CaseNodeID derives the tree id for a case.
func CaseNodeID(caseID string) string { return "case_" + caseID }

// VisaNodeID derives the tree id for a visa type under a case.
func VisaNodeID(caseID, visaType string) string {
	return CaseNodeID(caseID) + "_visa_" + visaType
}

// CategoryNodeID derives the tree id for a category under a visa type.
func CategoryNodeID(caseID, visaType, category string) string {
	return VisaNodeID(caseID, visaType) + "_cat_" + category
}

// DocumentNodeID derives the tree id for a document leaf.
func DocumentNodeID(caseID, visaType, category string, chunkID int) string {
	return fmt.Sprintf("%s_doc_%d", CategoryNodeID(caseID, visaType, category), chunkID)
}

// BuildCustomerTree derives the four-level tree from chunk metadata in a
// single pass. Chunks missing case_id, visa_type, or category are omitted at
// the corresponding levels but still contribute the ancestor levels they can.
func BuildCustomerTree(chunks []domain.Chunk) *CustomerTree {
	t := &CustomerTree{
		nodes:    make(map[string]TreeNode),
		children: make(map[string][]string),
	}
	t.add("", TreeNode{ID: RootNodeID, Kind: TreeRoot, ChunkID: -1, Preview: "All Cases"})

	for i, chunk := range chunks {
		caseID := chunk.Metadata.CaseID()
		if caseID == "" {
			continue
		}
		t.add(RootNodeID, TreeNode{
			ID: CaseNodeID(caseID), Kind: TreeCase, CaseID: caseID, ChunkID: -1,
		})

		visaType := chunk.Metadata.VisaType()
		if visaType == "" {
			continue
		}
		t.add(CaseNodeID(caseID), TreeNode{
			ID: VisaNodeID(caseID, visaType), Kind: TreeVisa,
			CaseID: caseID, VisaType: visaType, ChunkID: -1,
		})

		category := chunk.Metadata.Category()
		if category == "" {
			continue
		}
		t.add(VisaNodeID(caseID, visaType), TreeNode{
			ID: CategoryNodeID(caseID, visaType, category), Kind: TreeCategory,
			CaseID: caseID, VisaType: visaType, Category: category, ChunkID: -1,
		})

		t.add(CategoryNodeID(caseID, visaType, category), TreeNode{
			ID:   DocumentNodeID(caseID, visaType, category, i),
			Kind: TreeDocument, CaseID: caseID, VisaType: visaType, Category: category,
			ChunkID: i, Preview: domain.Snippet(chunk.Text, previewRunes),
		})
	}
	return t
}

// add inserts a node under the given parent if not already present.
func (t *CustomerTree) add(parent string, node TreeNode) {
	if _, exists := t.nodes[node.ID]; exists {
		return
	}
	t.nodes[node.ID] = node
	if parent != "" {
		t.children[parent] = append(t.children[parent], node.ID)
	}
}

// Node returns a tree node by id.
func (t *CustomerTree) Node(id string) (TreeNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Children returns the child ids of a node in insertion order.
func (t *CustomerTree) Children(id string) []string { return t.children[id] }

// NodeCount returns the number of tree nodes including the root.
func (t *CustomerTree) NodeCount() int { return len(t.nodes) }

// EdgeCount returns the number of parent-child edges.
func (t *CustomerTree) EdgeCount() int {
	n := 0
	for _, c := range t.children {
		n += len(c)
	}
	return n
}

// Cases returns all case ids present in the tree, sorted.
func (t *CustomerTree) Cases() []string {
	var out []string
	for _, id := range t.children[RootNodeID] {
		out = append(out, t.nodes[id].CaseID)
	}
	sort.Strings(out)
	return out
}

// Nodes returns all nodes sorted by id for deterministic export.
func (t *CustomerTree) Nodes() []TreeNode {
	out := make([]TreeNode, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
