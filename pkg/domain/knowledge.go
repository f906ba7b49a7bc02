package domain

// VisaType describes the visa category a decision tree assesses.
type VisaType struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Requirements string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// DecisionTree is a graph of nodes addressed by id.
// Root should exist in Nodes and every reference should resolve,
// but consumers must tolerate dangling references and cycles.
type DecisionTree struct {
	Root  string          `json:"root" yaml:"root"`
	Nodes map[string]Node `json:"nodes" yaml:"nodes"`
}

// Node returns the node with the given id, with its ID field filled in.
func (t DecisionTree) Node(id string) (Node, bool) {
	n, ok := t.Nodes[id]
	if ok && n.ID == "" {
		n.ID = id
	}
	return n, ok
}

// KnowledgeBase is the read-only knowledge fetched per visa type.
type KnowledgeBase struct {
	VisaType     VisaType     `json:"visa_type" yaml:"visa_type"`
	DecisionTree DecisionTree `json:"decision_tree" yaml:"decision_tree"`
}

// Clone returns a deep copy of the knowledge base.
func (kb *KnowledgeBase) Clone() *KnowledgeBase {
	if kb == nil {
		return nil
	}
	next := *kb
	if kb.DecisionTree.Nodes != nil {
		next.DecisionTree.Nodes = make(map[string]Node, len(kb.DecisionTree.Nodes))
		for id, n := range kb.DecisionTree.Nodes {
			next.DecisionTree.Nodes[id] = n.clone()
		}
	}
	return &next
}

func (n Node) clone() Node {
	next := n
	if n.Options != nil {
		next.Options = make([]Option, len(n.Options))
		for i, opt := range n.Options {
			opt.VisaTypes = cloneStrings(opt.VisaTypes)
			next.Options[i] = opt
		}
	}
	if n.Min != nil {
		v := *n.Min
		next.Min = &v
	}
	if n.Max != nil {
		v := *n.Max
		next.Max = &v
	}
	next.NextSteps = cloneStrings(n.NextSteps)
	next.Alternatives = cloneStrings(n.Alternatives)
	return next
}
