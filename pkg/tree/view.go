package tree

import (
	"sort"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
)

// NodeView is a flat, independently addressable view of one node.
type NodeView struct {
	ID       string        `json:"id"`
	Root     bool          `json:"root"`
	Type     string        `json:"type"`
	Text     string        `json:"text"`
	Note     string        `json:"note,omitempty"`
	Decision string        `json:"decision,omitempty"`
	Edges    []domain.Edge `json:"edges,omitempty"`
	// Missing lists edge targets that do not exist in the tree. Set by Catalog.
	Missing []string `json:"missing,omitempty"`
}

// RenderNode builds the view of a single node.
func RenderNode(id string, node domain.Node, isRoot bool) NodeView {
	return NodeView{
		ID:       id,
		Root:     isRoot,
		Type:     TypeLabel(node),
		Text:     node.Text(),
		Note:     node.Note,
		Decision: node.Decision,
		Edges:    node.Edges(),
	}
}

// Catalog returns a view of every node: the root first, then by id.
func Catalog(kb *domain.KnowledgeBase) []NodeView {
	t := kb.DecisionTree
	ids := make([]string, 0, len(t.Nodes))
	for id := range t.Nodes {
		if id != t.Root {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if _, ok := t.Nodes[t.Root]; ok {
		ids = append([]string{t.Root}, ids...)
	}

	views := make([]NodeView, 0, len(ids))
	for _, id := range ids {
		v := RenderNode(id, t.Nodes[id], id == t.Root)
		for _, e := range v.Edges {
			if _, ok := t.Nodes[e.To]; !ok {
				v.Missing = append(v.Missing, e.To)
			}
		}
		views = append(views, v)
	}
	return views
}

// Lookup returns the view of one node.
func Lookup(kb *domain.KnowledgeBase, id string) (NodeView, bool) {
	n, ok := kb.DecisionTree.Nodes[id]
	if !ok {
		return NodeView{}, false
	}
	return RenderNode(id, n, id == kb.DecisionTree.Root), true
}

// Search reports, per view, whether it matches term: a case-insensitive
// substring of the id or the text. An empty term matches everything.
func Search(views []NodeView, term string) []bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	mask := make([]bool, len(views))
	for i, v := range views {
		mask[i] = needle == "" ||
			strings.Contains(strings.ToLower(v.ID), needle) ||
			strings.Contains(strings.ToLower(v.Text), needle)
	}
	return mask
}

// Filter returns the views matched by Search.
func Filter(views []NodeView, term string) []NodeView {
	mask := Search(views, term)
	out := make([]NodeView, 0, len(views))
	for i, ok := range mask {
		if ok {
			out = append(out, views[i])
		}
	}
	return out
}
