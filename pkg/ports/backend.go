package ports

import (
	"context"

	"github.com/aretw0/visaguide/pkg/domain"
)

// QuestionnaireBackend serves flat-mode questionnaires.
type QuestionnaireBackend interface {
	// ClearSession drops any server-side flat session state.
	ClearSession(ctx context.Context) error

	// Questions returns the next batch of unanswered questions.
	// An empty visaTypes slice means no filter.
	Questions(ctx context.Context, answered []string, visaTypes []string) (*domain.QuestionBatch, error)

	// Evaluate scores the complete answer set.
	Evaluate(ctx context.Context, answers *domain.Answers) (*domain.Evaluation, error)

	// ExportPDF renders the evaluation into a PDF report.
	ExportPDF(ctx context.Context, visas []domain.ApplicableVisa, userInfo map[string]string) (*domain.PDFExport, error)
}

// NodeResponse is the backend's view of the current tree position.
type NodeResponse struct {
	NodeID string
	Node   domain.Node
	Path   []string
}

// DecisionTreeBackend serves tree-mode questionnaires, one node at a time.
type DecisionTreeBackend interface {
	// Reset drops the server-side session for a visa type.
	Reset(ctx context.Context, visaType string) error

	// Current returns the node the server-side session is positioned on.
	Current(ctx context.Context, visaType string) (*NodeResponse, error)

	// Answer submits an answer for nodeID and returns the successor node.
	Answer(ctx context.Context, visaType, nodeID string, answer domain.Value) (*NodeResponse, error)
}

// KnowledgeSource fetches the read-only knowledge base of a visa type.
type KnowledgeSource interface {
	Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error)
}
