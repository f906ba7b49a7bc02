// Package browser serves a read-only view of decision trees over HTTP.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/internal/presentation/graph"
	"github.com/aretw0/visaguide/pkg/adapters/file"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// KnowledgeProvider loads knowledge bases. *knowledge.Repository satisfies it.
type KnowledgeProvider interface {
	Get(ctx context.Context, visaType string) (*domain.KnowledgeBase, error)
}

// ViewObserver records which views are served.
type ViewObserver interface {
	ObserveKnowledgeView(visaType, view string)
}

// Server is the knowledge browser.
type Server struct {
	knowledge   KnowledgeProvider
	visaTypes   []string
	defaultVisa string
	gatherer    prometheus.Gatherer
	observer    ViewObserver
	logger      *slog.Logger
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithVisaTypes lists the visa types linked from the index page.
// The first one is shown when no visa is requested.
func WithVisaTypes(types ...string) Option {
	return func(s *Server) {
		s.visaTypes = types
	}
}

// WithGatherer exposes the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithObserver records served views.
func WithObserver(o ViewObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a browser over provider.
func New(provider KnowledgeProvider, opts ...Option) *Server {
	s := &Server{
		knowledge: provider,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.visaTypes) > 0 {
		s.defaultVisa = s.visaTypes[0]
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/api/knowledge/{type}", s.handleKnowledge)
	r.Get("/tree", s.handleTree)
	r.Get("/nodes", s.handleNodes)
	r.Get("/mermaid", s.handleMermaid)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler of the browser.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("knowledge browser listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("browser request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start))
	})
}

// load resolves the requested visa type and fetches its knowledge base.
func (s *Server) load(w http.ResponseWriter, r *http.Request, visaType, view string) (*domain.KnowledgeBase, bool) {
	if visaType == "" {
		visaType = strings.TrimSpace(r.URL.Query().Get("visa"))
	}
	if visaType == "" {
		visaType = s.defaultVisa
	}
	if visaType == "" {
		http.Error(w, "missing visa type", http.StatusBadRequest)
		return nil, false
	}

	kb, err := s.knowledge.Get(r.Context(), visaType)
	if err != nil {
		status := http.StatusBadGateway
		var berr *domain.BackendError
		if errors.Is(err, file.ErrNotFound) || (errors.As(err, &berr) && berr.Status == http.StatusNotFound) {
			status = http.StatusNotFound
		}
		s.logger.Warn("knowledge unavailable", "visa_type", visaType, "err", err)
		http.Error(w, err.Error(), status)
		return nil, false
	}
	if s.observer != nil {
		s.observer.ObserveKnowledgeView(visaType, view)
	}
	return kb, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	kb, ok := s.load(w, r, chi.URLParam(r, "type"), "knowledge")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, kb)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	kb, ok := s.load(w, r, "", "tree")
	if !ok {
		return
	}
	entry := tree.BuildKnowledge(kb)
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, entry)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := tree.Text(w, entry); err != nil {
		s.logger.Warn("write tree", "err", err)
	}
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	kb, ok := s.load(w, r, "", "nodes")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tree.Filter(tree.Catalog(kb), r.URL.Query().Get("q")))
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	kb, ok := s.load(w, r, "", "mermaid")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(kb, nil)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
