package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
)

// Line is one row of the plain-text rendering.
type Line struct {
	Depth int
	// Label is the incoming edge label; empty at the root.
	Label  string
	ID     string
	Type   string
	Text   string
	Marker Marker
	// Decision is set on result rows.
	Decision string
}

// Lines flattens an entry tree into rows in depth-first order.
func Lines(e *Entry) []Line {
	var out []Line
	var visit func(*Entry)
	visit = func(e *Entry) {
		l := Line{Depth: e.Depth, ID: e.ID, Marker: e.Marker}
		if e.Via != nil {
			l.Label = e.Via.Label
		}
		if e.Node != nil {
			l.Type = TypeLabel(*e.Node)
			l.Text = firstLine(e.Node.Text())
			l.Decision = e.Node.Decision
		}
		out = append(out, l)
		for _, c := range e.Children {
			visit(c)
		}
	}
	if e != nil {
		visit(e)
	}
	return out
}

// MarkerText is the warning shown for a marker.
func MarkerText(m Marker, id string) string {
	switch m {
	case MarkerCycle:
		return fmt.Sprintf("cycle detected: back to %s", id)
	case MarkerDepthExceeded:
		return fmt.Sprintf("depth limit %d exceeded at %s", MaxDepth, id)
	case MarkerNotFound:
		return fmt.Sprintf("node not found: %s", id)
	default:
		return ""
	}
}

// String renders a line without indentation.
func (l Line) String() string {
	var sb strings.Builder
	if l.Label != "" {
		sb.WriteString(l.Label)
		sb.WriteString(" -> ")
	}
	if l.Marker != MarkerNone {
		sb.WriteString("(!) ")
		sb.WriteString(MarkerText(l.Marker, l.ID))
		return sb.String()
	}
	fmt.Fprintf(&sb, "%s [%s]", l.ID, l.Type)
	if l.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(l.Text)
	}
	if l.Decision != "" {
		fmt.Fprintf(&sb, " (%s)", l.Decision)
	}
	return sb.String()
}

// Text writes the indented plain-text rendering of e.
func Text(w io.Writer, e *Entry) error {
	for _, l := range Lines(e) {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", l.Depth), l.String()); err != nil {
			return err
		}
	}
	return nil
}

// TypeLabel is "result" for result nodes, else the node type, else "question".
func TypeLabel(n domain.Node) string {
	switch {
	case n.IsResult():
		return string(domain.NodeTypeResult)
	case n.Type != "":
		return string(n.Type)
	default:
		return "question"
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}
