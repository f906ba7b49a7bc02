package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/visaguide/pkg/domain"
	"golang.org/x/term"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	source      io.Reader
	interactive bool // true if reading from a terminal, where EOF may follow a signal
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source:      r,
		Writer:      w,
		interactive: isTerminal(r),
	}
	h.Reader = bufio.NewReader(h.source)

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				if h.interactive {
					// A terminal read can be interrupted by a signal without the
					// stream ending; report it but keep the channel open.
					h.inputChan <- inputResult{err: io.EOF}
					time.Sleep(50 * time.Millisecond)
					continue
				}
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// PromptMarkdown renders p as markdown for text frontends.
func PromptMarkdown(p Prompt) string {
	var sb strings.Builder
	if p.IsMenu() {
		fmt.Fprintf(&sb, "**%s**\n\n", p.Text)
	} else {
		fmt.Fprintf(&sb, "### Question %d (%.0f%%)\n\n%s\n\n", p.Number, p.Progress, p.Text)
	}
	if p.Note != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", p.Note)
	}

	switch p.Type {
	case domain.NodeTypeMultipleChoice:
		for i, opt := range p.Options {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, opt.Text)
		}
	case domain.NodeTypeBoolean:
		sb.WriteString("Answer yes or no.\n")
	case domain.NodeTypeNumber:
		sb.WriteString(rangeHint(p))
	}
	if p.CanBack && !p.IsMenu() {
		sb.WriteString("\nType `back` to change your previous answer.\n")
	}
	return sb.String()
}

func rangeHint(p Prompt) string {
	switch {
	case p.Min != nil && p.Max != nil:
		return fmt.Sprintf("Enter a number between %g and %g.\n", *p.Min, *p.Max)
	case p.Min != nil:
		return fmt.Sprintf("Enter a number of at least %g.\n", *p.Min)
	case p.Max != nil:
		return fmt.Sprintf("Enter a number of at most %g.\n", *p.Max)
	}
	return "Enter a number.\n"
}

func (h *TextHandler) Question(ctx context.Context, p Prompt) error {
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(render(h.Renderer, PromptMarkdown(p))))
	return err
}

func (h *TextHandler) Result(ctx context.Context, st *domain.State) error {
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(render(h.Renderer, ResultMarkdown(st))))
	return err
}

func (h *TextHandler) Input(ctx context.Context, p Prompt) (string, error) {
	h.initPump()

	for {
		// Only show prompt if context is not yet done
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(res.text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}
