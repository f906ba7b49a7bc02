package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/ports"
)

// Endpoint labels, also used as metric label values.
const (
	EndpointClear     = "session_clear"
	EndpointQuestions = "questions"
	EndpointEvaluate  = "evaluate"
	EndpointExportPDF = "export_pdf"
	EndpointReset     = "visa_reset"
	EndpointQuestion  = "visa_question"
	EndpointAnswer    = "visa_answer"
	EndpointKnowledge = "visa_knowledge"
)

// RequestObserver is notified after every backend round trip.
// Status is 0 when the request failed at the transport level.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Client talks to the eligibility backend.
// It implements ports.QuestionnaireBackend, ports.DecisionTreeBackend and ports.KnowledgeSource.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	observer RequestObserver
}

var (
	_ ports.QuestionnaireBackend = (*Client)(nil)
	_ ports.DecisionTreeBackend  = (*Client)(nil)
	_ ports.KnowledgeSource      = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets a per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http = &http.Client{Timeout: d, Jar: newJar()}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// WithObserver registers a request observer, typically Prometheus metrics.
func WithObserver(o RequestObserver) Option {
	return func(cl *Client) {
		cl.observer = o
	}
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: newJar()},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newJar returns a cookie jar. The backend keeps both session kinds in a
// signed cookie, so requests without one start from scratch.
func newJar() http.CookieJar {
	jar, err := cookiejar.New(nil)
	if err != nil {
		// cookiejar.New only fails on a broken PublicSuffixList option.
		panic(fmt.Sprintf("visahttp: cookie jar: %v", err))
	}
	return jar
}

// envelope holds the fields shared by every response.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// ClearSession drops the flat-mode server session.
func (c *Client) ClearSession(ctx context.Context) error {
	var resp envelope
	return c.do(ctx, EndpointClear, http.MethodPost, "/api/session/clear", nil, nil, &resp, &resp)
}

// Questions fetches the next batch of unanswered questions.
func (c *Client) Questions(ctx context.Context, answered []string, visaTypes []string) (*domain.QuestionBatch, error) {
	q := url.Values{}
	q.Set("answered", strings.Join(answered, ","))
	if len(visaTypes) > 0 {
		q.Set("visa_types", strings.Join(visaTypes, ","))
	}

	var resp struct {
		envelope
		Questions      []domain.Question `json:"questions"`
		TotalQuestions int               `json:"total_questions"`
	}
	if err := c.do(ctx, EndpointQuestions, http.MethodGet, "/api/questions", q, nil, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	if resp.Questions == nil {
		return nil, &domain.BackendError{Endpoint: EndpointQuestions, Status: http.StatusOK, Message: "missing questions"}
	}
	return &domain.QuestionBatch{Questions: resp.Questions, TotalQuestions: resp.TotalQuestions}, nil
}

// Evaluate posts the complete answer set for scoring.
func (c *Client) Evaluate(ctx context.Context, answers *domain.Answers) (*domain.Evaluation, error) {
	if answers == nil {
		answers = domain.NewAnswers()
	}
	body := struct {
		Answers *domain.Answers `json:"answers"`
	}{answers}

	var resp struct {
		envelope
		domain.Evaluation
	}
	if err := c.do(ctx, EndpointEvaluate, http.MethodPost, "/api/evaluate", nil, body, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	if resp.ApplicableVisas == nil {
		return nil, &domain.BackendError{Endpoint: EndpointEvaluate, Status: http.StatusOK, Message: "missing applicable_visas"}
	}
	eval := resp.Evaluation
	return &eval, nil
}

// ExportPDF requests a PDF report and decodes its base64 payload.
func (c *Client) ExportPDF(ctx context.Context, visas []domain.ApplicableVisa, userInfo map[string]string) (*domain.PDFExport, error) {
	if visas == nil {
		visas = []domain.ApplicableVisa{}
	}
	body := struct {
		ApplicableVisas []domain.ApplicableVisa `json:"applicable_visas"`
		UserInfo        map[string]string       `json:"user_info,omitempty"`
	}{visas, userInfo}

	var resp struct {
		envelope
		PDFData  string `json:"pdf_data"`
		Filename string `json:"filename"`
	}
	if err := c.do(ctx, EndpointExportPDF, http.MethodPost, "/api/export/pdf", nil, body, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	if resp.Success == nil {
		return nil, &domain.BackendError{Endpoint: EndpointExportPDF, Status: http.StatusOK, Message: "missing success flag"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.PDFData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pdf data: %w", err)
	}
	return &domain.PDFExport{Filename: resp.Filename, Data: data}, nil
}

// Reset drops the tree-mode server session for visaType.
func (c *Client) Reset(ctx context.Context, visaType string) error {
	var resp envelope
	return c.do(ctx, EndpointReset, http.MethodPost, "/api/visa/reset", typeQuery(visaType), nil, &resp, &resp)
}

type nodeEnvelope struct {
	envelope
	CurrentNode string         `json:"current_node"`
	NextNode    string         `json:"next_node"`
	Data        map[string]any `json:"data"`
	Progress    struct {
		Path []string `json:"path"`
	} `json:"progress"`
}

// Current returns the node the tree session is positioned on.
func (c *Client) Current(ctx context.Context, visaType string) (*ports.NodeResponse, error) {
	var resp nodeEnvelope
	if err := c.do(ctx, EndpointQuestion, http.MethodGet, "/api/visa/question", typeQuery(visaType), nil, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	return c.toNodeResponse(EndpointQuestion, resp.CurrentNode, &resp)
}

// Answer submits an answer for nodeID and returns the successor.
func (c *Client) Answer(ctx context.Context, visaType, nodeID string, answer domain.Value) (*ports.NodeResponse, error) {
	body := struct {
		NodeID string       `json:"node_id"`
		Answer domain.Value `json:"answer"`
	}{nodeID, answer}

	var resp nodeEnvelope
	if err := c.do(ctx, EndpointAnswer, http.MethodPost, "/api/visa/answer", typeQuery(visaType), body, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	return c.toNodeResponse(EndpointAnswer, resp.NextNode, &resp)
}

// Knowledge fetches the full knowledge base of a visa type.
func (c *Client) Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	var resp struct {
		envelope
		Knowledge *domain.KnowledgeBase `json:"knowledge"`
	}
	if err := c.do(ctx, EndpointKnowledge, http.MethodGet, "/api/visa/knowledge", typeQuery(visaType), nil, &resp, &resp.envelope); err != nil {
		return nil, err
	}
	if resp.Knowledge == nil {
		return nil, &domain.BackendError{Endpoint: EndpointKnowledge, Status: http.StatusOK, Message: "missing knowledge"}
	}
	return resp.Knowledge, nil
}

func (c *Client) toNodeResponse(endpoint, nodeID string, resp *nodeEnvelope) (*ports.NodeResponse, error) {
	if resp.Data == nil {
		return nil, &domain.BackendError{Endpoint: endpoint, Status: http.StatusOK, Message: "missing node data"}
	}
	node, err := DecodeNode(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if node.ID == "" {
		node.ID = nodeID
	}
	if nodeID == "" {
		nodeID = node.ID
	}
	return &ports.NodeResponse{NodeID: nodeID, Node: node, Path: resp.Progress.Path}, nil
}

func typeQuery(visaType string) url.Values {
	return url.Values{"type": []string{visaType}}
}

// do performs one round trip. Non-2xx statuses and success:false map to
// *domain.BackendError; transport and decode failures are wrapped.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out any, env *envelope) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		c.logger.Warn("backend request failed", "endpoint", endpoint, "error", err)
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer res.Body.Close()
	c.observe(endpoint, res.StatusCode, start)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	c.logger.Debug("backend request", "endpoint", endpoint, "method", method, "status", res.StatusCode, "elapsed", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var failure envelope
		_ = json.Unmarshal(raw, &failure)
		return &domain.BackendError{Endpoint: endpoint, Status: res.StatusCode, Message: failure.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	if env != nil && env.Success != nil && !*env.Success {
		return &domain.BackendError{Endpoint: endpoint, Status: res.StatusCode, Message: env.Error}
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status, time.Since(start))
	}
}
