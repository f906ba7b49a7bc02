package session_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/aretw0/visaguide/internal/testutils"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
)

// fakeTree serves one knowledge base as a tree-mode backend.
type fakeTree struct {
	kb *domain.KnowledgeBase

	// entered and gate, when set, block the next Answer call until the
	// test has received from entered and closed gate.
	entered chan struct{}
	gate    chan struct{}

	mu         sync.Mutex
	current    string
	path       []string
	resets     int
	answered   []string
	answerErr  error
	// answerFailures makes that many next Answer calls fail.
	answerFailures int
	currentErr error
	resetErr   error
}

func newFakeTree() *fakeTree {
	kb := testutils.EVisaKnowledge()
	return &fakeTree{
		kb:      kb,
		current: kb.DecisionTree.Root,
		path:    []string{kb.DecisionTree.Root},
	}
}

func (f *fakeTree) Reset(ctx context.Context, visaType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.current = f.kb.DecisionTree.Root
	f.path = []string{f.current}
	f.answered = nil
	return nil
}

func (f *fakeTree) Current(ctx context.Context, visaType string) (*ports.NodeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	n, _ := f.kb.DecisionTree.Node(f.current)
	return &ports.NodeResponse{NodeID: f.current, Node: n, Path: slices.Clone(f.path)}, nil
}

func (f *fakeTree) Answer(ctx context.Context, visaType, nodeID string, v domain.Value) (*ports.NodeResponse, error) {
	if f.entered != nil {
		entered, gate := f.entered, f.gate
		f.entered = nil
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answerErr != nil {
		return nil, f.answerErr
	}
	if f.answerFailures > 0 {
		f.answerFailures--
		return nil, &domain.BackendError{Endpoint: "visa_answer", Status: 503, Message: "unavailable"}
	}
	n, ok := f.kb.DecisionTree.Node(nodeID)
	if !ok {
		return nil, errors.New("unknown node")
	}
	next := successor(n, v)
	if next == "" {
		return nil, &domain.BackendError{Endpoint: "visa_answer", Status: 400, Message: "No next node found"}
	}
	f.answered = append(f.answered, nodeID)
	f.current = next
	f.path = append(f.path, next)
	node, _ := f.kb.DecisionTree.Node(next)
	return &ports.NodeResponse{NodeID: next, Node: node, Path: slices.Clone(f.path)}, nil
}

// Position returns the node the backend session is on.
func (f *fakeTree) Position() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeTree) Answered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.answered)
}

func successor(n domain.Node, v domain.Value) string {
	switch n.Type {
	case domain.NodeTypeBoolean:
		if b, _ := v.AsBool(); b {
			return n.Yes
		}
		return n.No
	case domain.NodeTypeMultipleChoice:
		s, _ := v.AsText()
		if opt, ok := n.Option(s); ok {
			return opt.Next
		}
	case domain.NodeTypeNumber:
		return n.Next
	}
	return ""
}

// fakeFlat serves a question pool one batch at a time.
type fakeFlat struct {
	pool  []domain.Question
	batch int

	mu            sync.Mutex
	fetches       int
	filters       [][]string
	clears        int
	evaluations   int
	failFetchFrom int
	evaluateErr   error
	exportErr     error
	exportInfo    map[string]string
}

func newFakeFlat(batch int) *fakeFlat {
	return &fakeFlat{pool: testutils.FlatQuestions(), batch: batch}
}

func (f *fakeFlat) ClearSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeFlat) Questions(ctx context.Context, answered []string, visaTypes []string) (*domain.QuestionBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.filters = append(f.filters, slices.Clone(visaTypes))
	if f.failFetchFrom > 0 && f.fetches >= f.failFetchFrom {
		return nil, errors.New("connection refused")
	}

	var pool []domain.Question
	for _, q := range f.pool {
		if len(visaTypes) == 0 || q.IsScreening || len(q.VisaTypes) == 0 || overlaps(q.VisaTypes, visaTypes) {
			pool = append(pool, q)
		}
	}
	next := []domain.Question{}
	for _, q := range pool {
		if !slices.Contains(answered, q.ID) {
			next = append(next, q)
		}
	}
	if len(next) > f.batch {
		next = next[:f.batch]
	}
	return &domain.QuestionBatch{Questions: next, TotalQuestions: len(pool)}, nil
}

func (f *fakeFlat) Evaluate(ctx context.Context, answers *domain.Answers) (*domain.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluations++
	if err := f.evaluateErr; err != nil {
		f.evaluateErr = nil
		return nil, err
	}
	eval := testutils.FlatEvaluation()
	eval.AnsweredQuestions = answers.Len()
	return &eval, nil
}

func (f *fakeFlat) ExportPDF(ctx context.Context, visas []domain.ApplicableVisa, userInfo map[string]string) (*domain.PDFExport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	f.exportInfo = userInfo
	return &domain.PDFExport{Filename: "report.pdf", Data: testutils.FakePDF}, nil
}

func (f *fakeFlat) Filters() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.filters)
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
