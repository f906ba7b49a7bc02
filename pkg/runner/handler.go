package runner

import (
	"context"

	"github.com/aretw0/visaguide/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text, JSON and form based frontends.
type IOHandler interface {
	// Question presents a prompt: a question or a command menu.
	Question(ctx context.Context, p Prompt) error

	// Input reads the response to p. Handlers may return either an answer
	// or one of the runner commands.
	Input(ctx context.Context, p Prompt) (string, error)

	// Result presents the outcome of a finished session.
	Result(ctx context.Context, st *domain.State) error

	// SystemOutput presents a meta-message to the user (errors, status updates).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

func render(r ContentRenderer, md string) string {
	if r == nil {
		return md
	}
	out, err := r(md)
	if err != nil {
		return md
	}
	return out
}
