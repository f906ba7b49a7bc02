package tree

import (
	"github.com/aretw0/visaguide/pkg/domain"
)

// Entry is one rendered position of a decision tree.
type Entry struct {
	ID       string       `json:"id"`
	Depth    int          `json:"depth"`
	Node     *domain.Node `json:"node,omitempty"`
	Via      *domain.Edge `json:"via,omitempty"`
	Marker   Marker       `json:"marker,omitempty"`
	Children []*Entry     `json:"children,omitempty"`
}

// Build walks the tree and returns the nested entries rooted at root.
func Build(root string, nodes map[string]domain.Node) *Entry {
	b := &builder{}
	Walk(root, nodes, b)
	return b.root
}

// BuildKnowledge builds the tree of a knowledge base.
func BuildKnowledge(kb *domain.KnowledgeBase) *Entry {
	return Build(kb.DecisionTree.Root, kb.DecisionTree.Nodes)
}

type builder struct {
	root  *Entry
	stack []*Entry
}

func (b *builder) Enter(s Step) bool {
	e := &Entry{ID: s.ID, Depth: s.Depth, Node: s.Node, Via: s.Via, Marker: s.Marker}
	if len(b.stack) == 0 {
		b.root = e
	} else {
		parent := b.stack[len(b.stack)-1]
		parent.Children = append(parent.Children, e)
	}
	b.stack = append(b.stack, e)
	return true
}

func (b *builder) Leave(Step) {
	b.stack = b.stack[:len(b.stack)-1]
}

// Markers counts the markers of each kind below and including e.
func (e *Entry) Markers() map[Marker]int {
	counts := map[Marker]int{}
	var visit func(*Entry)
	visit = func(e *Entry) {
		if e.Marker != MarkerNone {
			counts[e.Marker]++
		}
		for _, c := range e.Children {
			visit(c)
		}
	}
	if e != nil {
		visit(e)
	}
	return counts
}
