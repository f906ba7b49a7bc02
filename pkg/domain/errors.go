package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a session operation is already in flight.
	ErrBusy = errors.New("session busy")

	// ErrNotStarted is returned by operations that need an active questionnaire.
	ErrNotStarted = errors.New("questionnaire not started")

	// ErrFinished is returned when answering after a verdict was reached.
	ErrFinished = errors.New("questionnaire already finished")

	// ErrQuestionMismatch is returned when an answer targets a question that is not displayed.
	ErrQuestionMismatch = errors.New("answer does not target the current question")

	// ErrNoSelection is returned when an answer carries no value.
	ErrNoSelection = errors.New("no option selected")

	// ErrInvalidAnswer is wrapped by ValidationError.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrNothingToUndo is returned by Back when no answer has been recorded.
	ErrNothingToUndo = errors.New("no answers to undo")

	// ErrNotFlatMode is returned by flat-only operations in tree mode.
	ErrNotFlatMode = errors.New("operation requires flat mode")

	// ErrNoEvaluation is returned when exporting before results exist.
	ErrNoEvaluation = errors.New("no evaluation results")

	// ErrNoBackend is returned when the controller lacks the backend for the requested mode.
	ErrNoBackend = errors.New("no backend configured for mode")

	// ErrOutOfSync is returned when the backend session could not be brought
	// back to the local position. Only Restart recovers from it.
	ErrOutOfSync = errors.New("session out of sync with the backend")

	// ErrCacheMiss is returned by knowledge caches for unknown visa types.
	ErrCacheMiss = errors.New("knowledge base not cached")
)

// ValidationError describes why an answer was rejected.
type ValidationError struct {
	QuestionID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.QuestionID, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAnswer
}

// BackendError is a logical failure reported by the backend
// (success:false or a non-2xx status with an error body).
type BackendError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
}
