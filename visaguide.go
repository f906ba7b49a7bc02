package visaguide

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/visaguide/internal/logging"
	visahttp "github.com/aretw0/visaguide/pkg/adapters/http"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/knowledge"
	"github.com/aretw0/visaguide/pkg/ports"
	"github.com/aretw0/visaguide/pkg/runner"
	"github.com/aretw0/visaguide/pkg/session"
	"github.com/aretw0/visaguide/pkg/tree"
)

// Version is the release of the module. Overridden at build time with -ldflags.
var Version = "0.1.0"

// Guide bundles a backend client, a knowledge repository and session defaults.
type Guide struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	cache       ports.KnowledgeCache
	source      ports.KnowledgeSource
	sessionOpts []session.Option

	client    *visahttp.Client
	knowledge *knowledge.Repository
}

// Option configures the Guide.
type Option func(*Guide)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guide) {
		g.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for backend calls.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Guide) {
		g.httpClient = c
	}
}

// WithTimeout bounds every backend request.
func WithTimeout(d time.Duration) Option {
	return func(g *Guide) {
		g.timeout = d
	}
}

// WithLifecycleHooks registers hooks on every session created by the Guide.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Guide) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithKnowledgeCache sets where fetched knowledge bases are kept.
func WithKnowledgeCache(c ports.KnowledgeCache) Option {
	return func(g *Guide) {
		g.cache = c
	}
}

// WithKnowledgeSource reads knowledge bases from s instead of the backend.
func WithKnowledgeSource(s ports.KnowledgeSource) Option {
	return func(g *Guide) {
		g.source = s
	}
}

// WithSessionOptions appends options applied to every new session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(g *Guide) {
		g.sessionOpts = append(g.sessionOpts, opts...)
	}
}

// New creates a Guide for the backend at baseURL.
func New(baseURL string, opts ...Option) *Guide {
	g := &Guide{
		baseURL: baseURL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := []visahttp.Option{
		visahttp.WithLogger(g.logger),
		visahttp.WithTimeout(g.timeout),
	}
	if g.httpClient != nil {
		clientOpts = append(clientOpts, visahttp.WithHTTPClient(g.httpClient))
	}
	g.client = visahttp.NewClient(baseURL, clientOpts...)

	source := g.source
	if source == nil {
		source = g.client
	}
	repoOpts := []knowledge.Option{knowledge.WithLogger(g.logger)}
	if g.cache != nil {
		repoOpts = append(repoOpts, knowledge.WithCache(g.cache))
	}
	g.knowledge = knowledge.New(source, repoOpts...)
	return g
}

// NewSession creates a session controller bound to the backend.
func (g *Guide) NewSession(opts ...session.Option) *session.Controller {
	base := []session.Option{
		session.WithFlatBackend(g.client),
		session.WithTreeBackend(g.client),
		session.WithLogger(g.logger),
		session.WithHooks(g.hooks),
	}
	base = append(base, g.sessionOpts...)
	return session.New(append(base, opts...)...)
}

// Knowledge returns the knowledge base of visaType, fetched once.
func (g *Guide) Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	return g.knowledge.Get(ctx, visaType)
}

// Tree returns the rendered decision tree of visaType.
func (g *Guide) Tree(ctx context.Context, visaType string) (*tree.Entry, error) {
	kb, err := g.Knowledge(ctx, visaType)
	if err != nil {
		return nil, err
	}
	return tree.BuildKnowledge(kb), nil
}

// Run runs an interactive session through handler until the user quits.
// An empty visaType runs the flat questionnaire.
func (g *Guide) Run(ctx context.Context, visaType string, handler runner.IOHandler, opts ...runner.Option) error {
	base := []runner.Option{
		runner.WithInputHandler(handler),
		runner.WithLogger(g.logger),
	}
	return runner.New(g.NewSession(), append(base, opts...)...).Run(ctx, visaType)
}
