package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/visaguide/pkg/domain"
)

// Source implements ports.KnowledgeSource from knowledge bases held in memory.
// Mainly used by tests and demos.
type Source struct {
	bases map[string]*domain.KnowledgeBase
}

// NewSource creates a source keyed by visa type.
func NewSource(bases map[string]*domain.KnowledgeBase) *Source {
	copied := make(map[string]*domain.KnowledgeBase, len(bases))
	for k, v := range bases {
		copied[k] = v.Clone()
	}
	return &Source{bases: copied}
}

// NewFromNodes builds a single-tree source. The first node is the root.
func NewFromNodes(visaType string, nodes ...domain.Node) (*Source, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("at least one node is required")
	}
	tree := domain.DecisionTree{Root: nodes[0].ID, Nodes: make(map[string]domain.Node, len(nodes))}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
		tree.Nodes[n.ID] = n
	}
	return NewSource(map[string]*domain.KnowledgeBase{
		visaType: {VisaType: domain.VisaType{Name: visaType}, DecisionTree: tree},
	}), nil
}

// Knowledge returns a copy of the knowledge base for visaType.
func (s *Source) Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	kb, ok := s.bases[visaType]
	if !ok {
		return nil, fmt.Errorf("unknown visa type: %s", visaType)
	}
	return kb.Clone(), nil
}

// VisaTypes lists the available visa types in sorted order.
func (s *Source) VisaTypes() []string {
	keys := make([]string, 0, len(s.bases))
	for k := range s.bases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
