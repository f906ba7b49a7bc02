package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/tree"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	noteStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("241"))

	barFilled = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	barEmpty  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	approvedCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 1)

	rejectedCard = approvedCard.
			BorderForeground(lipgloss.Color("9"))

	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ProgressBar renders percent (0..100) as a bar of the given width.
func ProgressBar(percent float64, width int) string {
	if width <= 0 {
		width = 30
	}
	percent = math.Max(0, math.Min(100, percent))
	filled := int(math.Round(percent / 100 * float64(width)))
	bar := barFilled.Render(strings.Repeat("█", filled)) +
		barEmpty.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, percent)
}

// ResultCard frames the headline of a tree result.
func ResultCard(n *domain.Node) string {
	style := rejectedCard
	verdict := "Not eligible"
	if n.Approved() {
		style = approvedCard
		verdict = "Eligible"
	}
	body := titleStyle.Render(n.Title) + "\n" + verdict
	if n.Message != "" {
		body += "\n" + n.Message
	}
	return style.Render(body)
}

// Title renders a heading line.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Note renders help text under a question.
func Note(s string) string {
	return noteStyle.Render(s)
}

// TreeLines renders the decision tree with coloured markers and results.
func TreeLines(e *tree.Entry) []string {
	var out []string
	for _, l := range tree.Lines(e) {
		indent := strings.Repeat("  ", l.Depth)
		prefix := ""
		if l.Label != "" {
			prefix = labelStyle.Render(l.Label+" -> ")
		}
		var body string
		switch {
		case l.Marker != tree.MarkerNone:
			body = warnStyle.Render("(!) " + tree.MarkerText(l.Marker, l.ID))
		case l.Decision != "":
			text := fmt.Sprintf("%s [%s] %s (%s)", l.ID, l.Type, l.Text, l.Decision)
			if l.Decision == domain.DecisionApproved {
				body = resultStyle.Render(text)
			} else {
				body = warnStyle.Render(text)
			}
		default:
			body = fmt.Sprintf("%s [%s] %s", l.ID, l.Type, l.Text)
		}
		out = append(out, indent+prefix+body)
	}
	return out
}
