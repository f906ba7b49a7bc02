package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseChange  EventType = "phase_change"
	EventAnswer       EventType = "answer"
	EventBack         EventType = "back"
	EventResult       EventType = "result"
	EventRequestError EventType = "request_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Mode      Mode      `json:"mode"`
}

// PhaseEvent is emitted when the session switches view.
type PhaseEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// AnswerEvent is emitted when an answer is recorded or undone.
type AnswerEvent struct {
	EventBase
	QuestionID string `json:"question_id"`
	Value      Value  `json:"value"`
	Answered   int    `json:"answered"`
}

// ResultEvent is emitted when a verdict is reached.
type ResultEvent struct {
	EventBase
	Decision string `json:"decision,omitempty"`
	Matches  int    `json:"matches"`
}

// RequestErrorEvent is emitted when a backend request fails.
type RequestErrorEvent struct {
	EventBase
	Operation string `json:"operation"`
	Err       error  `json:"-"`
	Absorbed  bool   `json:"absorbed"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnPhaseChange  func(context.Context, *PhaseEvent)
	OnAnswer       func(context.Context, *AnswerEvent)
	OnBack         func(context.Context, *AnswerEvent)
	OnResult       func(context.Context, *ResultEvent)
	OnRequestError func(context.Context, *RequestErrorEvent)
}

// Merge combines hooks so that both are invoked, h first.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseChange:  chain(h.OnPhaseChange, o.OnPhaseChange),
		OnAnswer:       chain(h.OnAnswer, o.OnAnswer),
		OnBack:         chain(h.OnBack, o.OnBack),
		OnResult:       chain(h.OnResult, o.OnResult),
		OnRequestError: chain(h.OnRequestError, o.OnRequestError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
