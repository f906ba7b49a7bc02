package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/visaguide/internal/presentation/graph"
	"github.com/aretw0/visaguide/internal/presentation/tui"
	"github.com/aretw0/visaguide/pkg/tree"
)

// Render formats.
const (
	FormatText    = "text"
	FormatMermaid = "mermaid"
	FormatJSON    = "json"
)

// RenderKnowledge writes the decision tree of visaType in format.
func RenderKnowledge(ctx context.Context, app *App, visaType, format string, out io.Writer) error {
	kb, err := app.Knowledge.Get(ctx, visaType)
	if err != nil {
		return err
	}
	app.Metrics.ObserveKnowledgeView(visaType, format)

	switch format {
	case "", FormatText:
		entry := tree.BuildKnowledge(kb)
		if !isTerminal(out) {
			return tree.Text(out, entry)
		}
		fmt.Fprintln(out, tui.Title(kb.VisaType.Name))
		for _, line := range tui.TreeLines(entry) {
			fmt.Fprintln(out, line)
		}
		return nil
	case FormatMermaid:
		_, err := io.WriteString(out, graph.GenerateMermaid(kb, nil))
		return err
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(tree.BuildKnowledge(kb))
	}
	return fmt.Errorf("unknown format %q (want text, mermaid or json)", format)
}

// SearchKnowledge lists the nodes of visaType whose id or text contains term.
func SearchKnowledge(ctx context.Context, app *App, visaType, term string, out io.Writer) error {
	kb, err := app.Knowledge.Get(ctx, visaType)
	if err != nil {
		return err
	}
	app.Metrics.ObserveKnowledgeView(visaType, "search")

	views := tree.Filter(tree.Catalog(kb), term)
	if len(views) == 0 {
		printSystemMessage(out, "No node matches %q.", term)
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(out, "%s [%s] %s\n", v.ID, v.Type, v.Text)
		for _, e := range v.Edges {
			fmt.Fprintf(out, "  %s -> %s\n", e.Label, e.To)
		}
		if len(v.Missing) > 0 {
			fmt.Fprintf(out, "  (!) missing: %s\n", strings.Join(v.Missing, ", "))
		}
	}
	return nil
}
