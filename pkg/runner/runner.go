package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/visaguide/internal/logging"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/session"
)

// ErrInterrupted is returned by Run when a signal stops the session.
var ErrInterrupted = errors.New("interrupted")

// DefaultReportName is used when the backend does not name the PDF report.
const DefaultReportName = "visa-assessment.pdf"

// Runner drives a session controller through an IOHandler until the user quits.
type Runner struct {
	controller *session.Controller
	handler    IOHandler
	logger     *slog.Logger
	renderer   ContentRenderer
	input      io.Reader
	output     io.Writer
	reportDir  string
	signals    bool
}

// New creates a Runner for c. Without WithInputHandler, a TextHandler
// on stdin and stdout is used.
func New(c *session.Controller, opts ...Option) *Runner {
	r := &Runner{
		controller: c,
		logger:     logging.NewNop(),
		reportDir:  ".",
		signals:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.handler != nil {
		return r.handler
	}
	r.handler = NewTextHandler(r.input, r.output, WithTextHandlerRenderer(r.renderer))
	return r.handler
}

// Run starts a session for visaType (empty selects the flat questionnaire)
// and loops until the user quits or input ends. A controller that is
// already past the welcome view is resumed; whenever it is back on the
// welcome view (after restart) a new session is started. Answer and
// backend errors are reported through the handler and do not stop the loop.
func (r *Runner) Run(ctx context.Context, visaType string) error {
	handler := r.resolveHandler()

	var signals *SignalManager
	if r.signals {
		signals = NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	for {
		st := r.controller.State()
		if st.Phase == domain.PhaseWelcome {
			// First pass, or the user asked to start over.
			if err := r.controller.Start(ctx, visaType); err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			continue
		}

		var p Prompt
		switch {
		case st.Terminal():
			if err := handler.Result(ctx, st); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			p = ResultMenu(st)
		case st.PendingEvaluation:
			p = PendingMenu(st)
		default:
			var ok bool
			if p, ok = PromptFor(st); !ok {
				return fmt.Errorf("session %s has no question to display", st.ID)
			}
		}

		if err := handler.Question(ctx, p); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		raw, err := handler.Input(ctx, p)
		if err != nil {
			if (signals != nil && signals.Interrupted()) || ctx.Err() != nil {
				r.logger.Debug("runner input cancelled", "err", ctx.Err())
				return ErrInterrupted
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		quit, err := r.dispatch(ctx, handler, p, raw)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// dispatch applies one line of input. It returns true when the user quits.
func (r *Runner) dispatch(ctx context.Context, h IOHandler, p Prompt, raw string) (bool, error) {
	cmd, isCmd := Command(raw)
	if !isCmd && p.IsMenu() {
		v, err := ParseAnswer(p, raw)
		if err != nil {
			return false, r.notify(ctx, h, err.Error())
		}
		cmd, _ = v.AsText()
		isCmd = true
	}

	if isCmd {
		return r.command(ctx, h, cmd)
	}

	v, err := ParseAnswer(p, raw)
	if err != nil {
		return false, r.notify(ctx, h, err.Error())
	}
	if err := r.controller.Submit(ctx, p.ID, v); err != nil {
		return false, r.report(ctx, h, err)
	}
	return false, nil
}

func (r *Runner) command(ctx context.Context, h IOHandler, cmd string) (bool, error) {
	switch cmd {
	case CommandQuit:
		return true, nil
	case CommandBack:
		if err := r.controller.Back(ctx); err != nil {
			return false, r.report(ctx, h, err)
		}
	case CommandRestart:
		if err := r.controller.Restart(ctx); err != nil {
			return false, r.report(ctx, h, err)
		}
		return false, r.notify(ctx, h, "Starting a new assessment.")
	case CommandRetry:
		if err := r.controller.Evaluate(ctx); err != nil {
			return false, r.report(ctx, h, err)
		}
	case CommandExport:
		path, err := r.export(ctx)
		if err != nil {
			return false, r.report(ctx, h, err)
		}
		return false, r.notify(ctx, h, "Report saved to "+path)
	}
	return false, nil
}

func (r *Runner) export(ctx context.Context) (string, error) {
	pdf, err := r.controller.ExportPDF(ctx, nil)
	if err != nil {
		return "", err
	}
	name := filepath.Base(pdf.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = DefaultReportName
	}
	path := filepath.Join(r.reportDir, name)
	if err := os.WriteFile(path, pdf.Data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	r.logger.Info("report exported", "path", path, "bytes", len(pdf.Data))
	return path, nil
}

// report turns a controller error into a user-facing message.
func (r *Runner) report(ctx context.Context, h IOHandler, err error) error {
	var verr *domain.ValidationError
	var berr *domain.BackendError
	switch {
	case errors.As(err, &verr):
		return r.notify(ctx, h, verr.Reason)
	case errors.Is(err, domain.ErrNothingToUndo):
		return r.notify(ctx, h, "There is no previous answer to change.")
	case errors.Is(err, domain.ErrOutOfSync):
		r.logger.Warn("session out of sync", "err", err)
		return r.notify(ctx, h, "The service lost track of your answers. Type `restart` to start over.")
	case errors.Is(err, domain.ErrBusy):
		return r.notify(ctx, h, "Still working on your last answer.")
	case errors.As(err, &berr):
		r.logger.Warn("backend request failed", "endpoint", berr.Endpoint, "status", berr.Status, "err", berr.Message)
		return r.notify(ctx, h, "The service returned an error: "+berr.Message)
	case ctx.Err() != nil:
		return ErrInterrupted
	}
	r.logger.Warn("request failed", "err", err)
	return r.notify(ctx, h, "Something went wrong: "+err.Error())
}

func (r *Runner) notify(ctx context.Context, h IOHandler, msg string) error {
	if err := h.SystemOutput(ctx, msg); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
