package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the client.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestErrors   *prometheus.CounterVec
	Answers         *prometheus.CounterVec
	Backs           *prometheus.CounterVec
	Results         *prometheus.CounterVec
	Phases          *prometheus.CounterVec
	Progress        *prometheus.GaugeVec
	KnowledgeViews  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visaguide_backend_request_duration_seconds",
				Help:    "Duration of backend requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "status"},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_request_errors_total",
				Help: "Failed session requests by operation and whether they were absorbed",
			},
			[]string{"operation", "absorbed"},
		),
		Answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_answers_total",
				Help: "Recorded answers",
			},
			[]string{"mode"},
		),
		Backs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_back_total",
				Help: "Undone answers",
			},
			[]string{"mode"},
		),
		Results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_results_total",
				Help: "Verdicts reached by decision",
			},
			[]string{"mode", "decision"},
		),
		Phases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_phase_changes_total",
				Help: "Phase transitions",
			},
			[]string{"to"},
		),
		Progress: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "visaguide_answered_questions",
				Help: "Answers held by the most recent session, by mode",
			},
			[]string{"mode"},
		),
		KnowledgeViews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visaguide_knowledge_views_total",
				Help: "Knowledge browser views by visa type and view",
			},
			[]string{"visa_type", "view"},
		),
	}
}

// ObserveRequest records a backend round trip. Status 0 is a transport failure.
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "transport_error"
	}
	m.RequestDuration.WithLabelValues(endpoint, label).Observe(elapsed.Seconds())
}

// ObserveKnowledgeView counts one knowledge browser view.
func (m *Metrics) ObserveKnowledgeView(visaType, view string) {
	m.KnowledgeViews.WithLabelValues(visaType, view).Inc()
}

// Hooks returns lifecycle hooks that record session metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			m.Phases.WithLabelValues(string(e.To)).Inc()
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			m.Answers.WithLabelValues(string(e.Mode)).Inc()
			m.Progress.WithLabelValues(string(e.Mode)).Set(float64(e.Answered))
		},
		OnBack: func(ctx context.Context, e *domain.AnswerEvent) {
			m.Backs.WithLabelValues(string(e.Mode)).Inc()
			m.Progress.WithLabelValues(string(e.Mode)).Set(float64(e.Answered))
		},
		OnResult: func(ctx context.Context, e *domain.ResultEvent) {
			decision := e.Decision
			if decision == "" {
				decision = "evaluated"
			}
			m.Results.WithLabelValues(string(e.Mode), decision).Inc()
		},
		OnRequestError: func(ctx context.Context, e *domain.RequestErrorEvent) {
			m.RequestErrors.WithLabelValues(e.Operation, strconv.FormatBool(e.Absorbed)).Inc()
		},
	}
}
