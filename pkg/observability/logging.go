package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/visaguide/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log session events on logger.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.Info("phase_change", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnAnswer: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.Info("answer", "session_id", e.SessionID, "question_id", e.QuestionID, "value", e.Value.String(), "answered", e.Answered)
		},
		OnBack: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.Info("back", "session_id", e.SessionID, "question_id", e.QuestionID, "answered", e.Answered)
		},
		OnResult: func(ctx context.Context, e *domain.ResultEvent) {
			logger.Info("result", "session_id", e.SessionID, "mode", e.Mode, "decision", e.Decision, "matches", e.Matches)
		},
		OnRequestError: func(ctx context.Context, e *domain.RequestErrorEvent) {
			level := slog.LevelError
			if e.Absorbed {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "request_error", "session_id", e.SessionID, "operation", e.Operation, "absorbed", e.Absorbed, "error", e.Err)
		},
	}
}
