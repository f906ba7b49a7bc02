package testutils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/visaguide/api"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// FakePDF is the document served by the fake export endpoint.
var FakePDF = []byte("%PDF-1.4 fake report")

// Backend is an in-process eligibility backend for tests.
// Every request is checked against the embedded OpenAPI contract;
// violations fail the owning test.
type Backend struct {
	Server *httptest.Server

	// Questions is the flat-mode question pool, served in order.
	Questions []domain.Question
	// BatchSize caps each questions response. Zero means one at a time.
	BatchSize int
	// Evaluation is returned by the evaluate endpoint.
	Evaluation domain.Evaluation
	// Knowledge holds the decision trees by visa type.
	Knowledge map[string]*domain.KnowledgeBase
	// QuestionView serves tree nodes in the question view shape
	// (type "question" plus question_type) instead of the raw node.
	QuestionView bool

	t         *testing.T
	validator *api.Validator

	mu       sync.Mutex
	failures map[string]int
	filters  [][]string
	answered [][]string
	tree     map[string]*treeSession
	calls    map[string]int
}

type treeSession struct {
	current string
	path    []string
	answers map[string]any
}

// NewBackend starts a fake backend closed at test cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	v, err := api.NewValidator(context.Background())
	require.NoError(t, err, "Failed to load backend contract")

	b := &Backend{
		Knowledge: make(map[string]*domain.KnowledgeBase),
		t:         t,
		validator: v,
		failures:  make(map[string]int),
		tree:      make(map[string]*treeSession),
		calls:     make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(b.validate)
	r.Post("/api/session/clear", b.clear)
	r.Get("/api/questions", b.questions)
	r.Post("/api/evaluate", b.evaluate)
	r.Post("/api/export/pdf", b.exportPDF)
	r.Post("/api/visa/reset", b.reset)
	r.Get("/api/visa/question", b.question)
	r.Post("/api/visa/answer", b.answer)
	r.Get("/api/visa/knowledge", b.knowledge)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Fail makes the next request to path answer with status and an error body.
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = status
}

// Filters returns the visa_types filter of every questions request, in order.
// A request without a filter is recorded as nil.
func (b *Backend) Filters() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.filters)
}

// Answered returns the answered ids of every questions request, in order.
func (b *Backend) Answered() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.answered)
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *Backend) validate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := b.validator.Validate(r); err != nil {
			b.t.Errorf("contract violation: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.calls[r.URL.Path]++
		status, failing := b.failures[r.URL.Path]
		delete(b.failures, r.URL.Path)
		b.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]any{"success": false, "error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) questions(w http.ResponseWriter, r *http.Request) {
	answered := splitList(r.URL.Query().Get("answered"))
	filter := splitList(r.URL.Query().Get("visa_types"))

	b.mu.Lock()
	b.answered = append(b.answered, answered)
	b.filters = append(b.filters, filter)
	b.mu.Unlock()

	var pool []domain.Question
	for _, q := range b.Questions {
		if len(filter) == 0 || q.IsScreening || len(q.VisaTypes) == 0 || intersects(q.VisaTypes, filter) {
			pool = append(pool, q)
		}
	}

	next := []domain.Question{}
	for _, q := range pool {
		if !slices.Contains(answered, q.ID) {
			next = append(next, q)
		}
	}
	size := b.BatchSize
	if size <= 0 {
		size = 1
	}
	if len(next) > size {
		next = next[:size]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions":       next,
		"total_questions": len(pool),
	})
}

func (b *Backend) evaluate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	eval := b.Evaluation
	if eval.ApplicableVisas == nil {
		eval.ApplicableVisas = []domain.ApplicableVisa{}
	}
	eval.AnsweredQuestions = len(body.Answers)
	eval.TotalQuestions = len(b.Questions)
	writeJSON(w, http.StatusOK, eval)
}

func (b *Backend) exportPDF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"pdf_data": base64.StdEncoding.EncodeToString(FakePDF),
		"filename": "visa_evaluation.pdf",
	})
}

func (b *Backend) session(visaType string) (*treeSession, *domain.KnowledgeBase, bool) {
	kb, ok := b.Knowledge[visaType]
	if !ok {
		return nil, nil, false
	}
	s, ok := b.tree[visaType]
	if !ok {
		s = &treeSession{current: kb.DecisionTree.Root, path: []string{kb.DecisionTree.Root}, answers: map[string]any{}}
		b.tree[visaType] = s
	}
	return s, kb, true
}

func (b *Backend) reset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.tree, r.URL.Query().Get("type"))
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) question(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, kb, ok := b.session(r.URL.Query().Get("type"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "unknown visa type"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"current_node": s.current,
		"data":         b.view(kb, s.current),
		"progress":     map[string]any{"answered": len(s.answers), "path": s.path},
	})
}

func (b *Backend) answer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NodeID string `json:"node_id"`
		Answer any    `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, kb, ok := b.session(r.URL.Query().Get("type"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "unknown visa type"})
		return
	}

	next := nextNode(kb, body.NodeID, body.Answer)
	if next == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "No next node found"})
		return
	}
	s.answers[body.NodeID] = body.Answer
	s.path = append(s.path, next)
	s.current = next

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"next_node": next,
		"data":      b.view(kb, next),
		"progress":  map[string]any{"answered": len(s.answers), "path": s.path},
	})
}

func (b *Backend) knowledge(w http.ResponseWriter, r *http.Request) {
	kb, ok := b.Knowledge[r.URL.Query().Get("type")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "unknown visa type"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "knowledge": kb})
}

func (b *Backend) view(kb *domain.KnowledgeBase, id string) map[string]any {
	n, ok := kb.DecisionTree.Node(id)
	if !ok {
		return nil
	}
	if n.IsResult() || !b.QuestionView {
		data := map[string]any{}
		raw, _ := json.Marshal(n)
		_ = json.Unmarshal(raw, &data)
		data["node_id"] = id
		return data
	}
	return map[string]any{
		"type":          "question",
		"node_id":       id,
		"question":      n.Question,
		"question_type": string(n.Type),
		"options":       n.Options,
		"min":           n.Min,
		"max":           n.Max,
	}
}

func nextNode(kb *domain.KnowledgeBase, id string, answer any) string {
	n, ok := kb.DecisionTree.Node(id)
	if !ok {
		return ""
	}
	switch n.Type {
	case domain.NodeTypeBoolean:
		if answer == true || answer == "yes" {
			return n.Yes
		}
		return n.No
	case domain.NodeTypeMultipleChoice:
		for _, opt := range n.Options {
			if opt.Value == answer {
				return opt.Next
			}
		}
	case domain.NodeTypeNumber:
		if _, ok := answer.(float64); ok {
			return n.Next
		}
	}
	return ""
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
