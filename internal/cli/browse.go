package cli

import (
	"context"

	"github.com/aretw0/visaguide/internal/presentation/browser"
)

// Browse serves the knowledge browser until ctx is cancelled.
// Configured visa types are prefetched first; a failure there is logged
// and the page fetches on demand instead.
func Browse(ctx context.Context, app *App, addr string) error {
	if addr == "" {
		addr = app.Config.BrowseAddr
	}
	visaTypes := app.VisaTypes(ctx)
	if err := app.Knowledge.Prefetch(ctx, visaTypes...); err != nil {
		app.Logger.Warn("prefetch failed", "err", err)
	}

	s := browser.New(app.Knowledge,
		browser.WithVisaTypes(visaTypes...),
		browser.WithGatherer(app.Registry),
		browser.WithObserver(app.Metrics),
		browser.WithLogger(app.Logger),
	)
	return handleExecutionError(s.ListenAndServe(ctx, addr))
}
