package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/runner"
	"github.com/charmbracelet/huh"
)

const backLabel = "← Back"

// FormHandler is a runner.IOHandler that asks questions with huh forms.
type FormHandler struct {
	in       io.Reader
	out      io.Writer
	renderer runner.ContentRenderer
	width    int
}

// NewFormHandler creates a form handler on the given terminal streams.
func NewFormHandler(in io.Reader, out io.Writer, renderer runner.ContentRenderer) *FormHandler {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &FormHandler{in: in, out: out, renderer: renderer, width: 30}
}

func (h *FormHandler) Question(ctx context.Context, p runner.Prompt) error {
	if p.IsMenu() {
		return nil
	}
	_, err := fmt.Fprintf(h.out, "\n%s  %s\n", Title(fmt.Sprintf("Question %d", p.Number)), ProgressBar(p.Progress, h.width))
	return err
}

func (h *FormHandler) Result(ctx context.Context, st *domain.State) error {
	if st.Result != nil {
		if _, err := fmt.Fprintln(h.out, ResultCard(st.Result)); err != nil {
			return err
		}
	}
	md := runner.ResultMarkdown(st)
	if h.renderer != nil {
		if out, err := h.renderer(md); err == nil {
			md = out
		}
	}
	_, err := fmt.Fprintln(h.out, strings.TrimSpace(md))
	return err
}

func (h *FormHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintln(h.out, warnStyle.Render("! "+msg))
	return err
}

func (h *FormHandler) Input(ctx context.Context, p runner.Prompt) (string, error) {
	var value string
	field := h.field(p, &value)

	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(h.in).
		WithOutput(h.out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", io.EOF
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

func (h *FormHandler) field(p runner.Prompt, value *string) huh.Field {
	switch p.Type {
	case domain.NodeTypeNumber:
		return huh.NewInput().
			Title(p.Text).
			Description(numberHint(p)).
			Validate(func(s string) error {
				if _, ok := runner.Command(s); ok {
					return nil
				}
				if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
					return errors.New("please enter a number")
				}
				return nil
			}).
			Value(value)

	case domain.NodeTypeBoolean:
		opts := []huh.Option[string]{
			huh.NewOption("Yes", "yes"),
			huh.NewOption("No", "no"),
		}
		return h.selectField(p, opts, value)
	}

	opts := make([]huh.Option[string], 0, len(p.Options)+1)
	for _, o := range p.Options {
		text := o.Text
		if text == "" {
			text = o.Value
		}
		opts = append(opts, huh.NewOption(text, o.Value))
	}
	return h.selectField(p, opts, value)
}

func (h *FormHandler) selectField(p runner.Prompt, opts []huh.Option[string], value *string) huh.Field {
	if p.CanBack && !p.IsMenu() {
		opts = append(opts, huh.NewOption(backLabel, runner.CommandBack))
	}
	return huh.NewSelect[string]().
		Title(p.Text).
		Description(p.Note).
		Options(opts...).
		Value(value)
}

func numberHint(p runner.Prompt) string {
	var parts []string
	if p.Note != "" {
		parts = append(parts, p.Note)
	}
	switch {
	case p.Min != nil && p.Max != nil:
		parts = append(parts, fmt.Sprintf("Between %g and %g.", *p.Min, *p.Max))
	case p.Min != nil:
		parts = append(parts, fmt.Sprintf("At least %g.", *p.Min))
	case p.Max != nil:
		parts = append(parts, fmt.Sprintf("At most %g.", *p.Max))
	}
	if p.CanBack {
		parts = append(parts, "Type back to change your previous answer.")
	}
	return strings.Join(parts, " ")
}
