package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/visaguide/internal/presentation/tui"
	"github.com/aretw0/visaguide/pkg/runner"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	// VisaType selects the decision tree. Empty runs the flat questionnaire.
	VisaType string
	JSON     bool
	// Plain forces line based prompts even on a terminal.
	Plain bool
	Quiet bool
}

// Run starts an interactive questionnaire on in and out.
// Forms are used on a terminal, plain text otherwise, and JSON-Lines with
// opts.JSON.
func Run(ctx context.Context, app *App, opts RunOptions, in io.Reader, out io.Writer) error {
	c, err := app.NewController()
	if err != nil {
		return err
	}

	interactive := isTerminal(in) && isTerminal(out)
	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(in, out)
	case interactive && !opts.Plain:
		handler = tui.NewFormHandler(in, out, tui.NewRenderer(terminalWidth(out)))
	case isTerminal(out):
		handler = runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(tui.NewRenderer(terminalWidth(out))))
	default:
		handler = runner.NewTextHandler(in, out)
	}

	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(out)
		if opts.VisaType == "" {
			printSystemMessage(out, "Starting the general eligibility questionnaire.")
		} else {
			printSystemMessage(out, "Starting the %s visa assessment.", opts.VisaType)
		}
	}

	r := runner.New(c,
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithReportDir(app.Config.ReportDir),
	)
	err = r.Run(ctx, opts.VisaType)
	if isInterrupted(err) && !opts.JSON && !opts.Quiet {
		fmt.Fprintln(out)
		printSystemMessage(out, "Interrupted.")
	}
	return handleExecutionError(err)
}
