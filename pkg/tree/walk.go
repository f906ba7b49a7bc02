package tree

import (
	"github.com/aretw0/visaguide/pkg/domain"
)

// MaxDepth is the deepest level rendered. The root is at depth 0.
const MaxDepth = 50

// Marker flags a step that ended the walk of its branch abnormally.
type Marker string

const (
	MarkerNone          Marker = ""
	MarkerCycle         Marker = "cycle"
	MarkerDepthExceeded Marker = "depth-exceeded"
	MarkerNotFound      Marker = "not-found"
)

// Step is one position reached by the walk.
type Step struct {
	ID    string
	Depth int
	// Node is nil when Marker is set.
	Node *domain.Node
	// Via is the edge that led here; nil at the root.
	Via    *domain.Edge
	Marker Marker
	// Path lists the ids from the root up to and including this step.
	Path []string
}

// Terminal reports whether the walk does not descend below the step.
func (s Step) Terminal() bool {
	return s.Marker != MarkerNone || s.Node == nil || s.Node.IsResult()
}

// Visitor receives the steps of a walk in depth-first order.
// Enter returning false skips the children of the step. Leave is called for
// every entered step after its children.
type Visitor interface {
	Enter(Step) bool
	Leave(Step)
}

// Walk traverses the tree from root. It always terminates.
func Walk(root string, nodes map[string]domain.Node, v Visitor) {
	walk(root, nodes, v, 0, nil, map[string]bool{}, nil)
}

func walk(id string, nodes map[string]domain.Node, v Visitor, depth int, via *domain.Edge, visited map[string]bool, path []string) {
	next := make([]string, len(path), len(path)+1)
	copy(next, path)
	next = append(next, id)

	step := Step{ID: id, Depth: depth, Via: via, Path: next}

	// Checked in this order so a cycle deeper than MaxDepth still reads as a cycle.
	switch {
	case visited[id]:
		step.Marker = MarkerCycle
	case depth > MaxDepth:
		step.Marker = MarkerDepthExceeded
	default:
		if n, ok := nodes[id]; ok {
			if n.ID == "" {
				n.ID = id
			}
			step.Node = &n
		} else {
			step.Marker = MarkerNotFound
		}
	}

	if !v.Enter(step) || step.Terminal() {
		v.Leave(step)
		return
	}

	branch := make(map[string]bool, len(visited)+1)
	for k := range visited {
		branch[k] = true
	}
	branch[id] = true

	for _, e := range step.Node.Edges() {
		edge := e
		walk(edge.To, nodes, v, depth+1, &edge, branch, next)
	}
	v.Leave(step)
}

// VisitorFuncs adapts plain functions to a Visitor. Nil funcs are skipped.
type VisitorFuncs struct {
	OnEnter func(Step) bool
	OnLeave func(Step)
}

func (f VisitorFuncs) Enter(s Step) bool {
	if f.OnEnter == nil {
		return true
	}
	return f.OnEnter(s)
}

func (f VisitorFuncs) Leave(s Step) {
	if f.OnLeave != nil {
		f.OnLeave(s)
	}
}
