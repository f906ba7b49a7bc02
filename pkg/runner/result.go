package runner

import (
	"fmt"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
)

// ResultMarkdown renders the outcome of a finished session as markdown.
// Tree results list next steps when approved and alternatives otherwise;
// flat evaluations list the ranked visas with their conditions.
func ResultMarkdown(st *domain.State) string {
	var sb strings.Builder
	switch {
	case st.Result != nil:
		writeTreeResult(&sb, st.Result)
	case st.Evaluation != nil:
		writeEvaluation(&sb, st.Evaluation)
	default:
		sb.WriteString("No result available.\n")
	}
	return sb.String()
}

func writeTreeResult(sb *strings.Builder, n *domain.Node) {
	verdict := "Not eligible"
	if n.Approved() {
		verdict = "Eligible"
	}
	title := n.Title
	if title == "" {
		title = verdict
	}
	fmt.Fprintf(sb, "# %s\n\n", title)
	fmt.Fprintf(sb, "**%s**\n\n", verdict)
	if n.Message != "" {
		fmt.Fprintf(sb, "%s\n\n", n.Message)
	}

	if n.Approved() {
		if len(n.NextSteps) > 0 {
			sb.WriteString("## Next steps\n\n")
			for i, step := range n.NextSteps {
				fmt.Fprintf(sb, "%d. %s\n", i+1, step)
			}
			sb.WriteString("\n")
		}
		return
	}
	if len(n.Alternatives) > 0 {
		sb.WriteString("## Alternatives\n\n")
		for _, alt := range n.Alternatives {
			fmt.Fprintf(sb, "- %s\n", alt)
		}
		sb.WriteString("\n")
	}
}

func writeEvaluation(sb *strings.Builder, e *domain.Evaluation) {
	sb.WriteString("# Your visa options\n\n")
	if len(e.ApplicableVisas) == 0 {
		sb.WriteString("No visa matched your answers. Consider speaking with an immigration attorney.\n")
		return
	}
	for i, v := range e.ApplicableVisas {
		fmt.Fprintf(sb, "## %d. %s (%d%%, %s confidence)\n\n", i+1, v.Name, v.ConfidencePercent(), v.ConfidenceBand())
		if v.Description != "" {
			fmt.Fprintf(sb, "%s\n\n", v.Description)
		}
		writeConditions(sb, "Requirements met", v.SatisfiedConditions)
		writeConditions(sb, "Requirements to review", v.MissingConditions)
	}
	if e.EvaluationDate != "" {
		fmt.Fprintf(sb, "_Evaluated on %s._\n", e.EvaluationDate)
	}
}

func writeConditions(sb *strings.Builder, heading string, conds []domain.Condition) {
	if len(conds) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s**\n\n", heading)
	for _, c := range conds {
		text := c.Question
		if text == "" {
			text = c.Condition
		}
		if c.Answer.IsZero() {
			fmt.Fprintf(sb, "- %s\n", text)
			continue
		}
		fmt.Fprintf(sb, "- %s (%s)\n", text, c.Answer)
	}
	sb.WriteString("\n")
}

// Menu identifiers for prompts that are not questions.
const (
	MenuResult  = "_result"
	MenuPending = "_pending"
)

// ResultMenu is the prompt offered once a session has finished.
func ResultMenu(st *domain.State) Prompt {
	opts := []domain.Option{{Value: CommandRestart, Text: "Start over"}}
	if st.Answers.Len() > 0 {
		opts = append(opts, domain.Option{Value: CommandBack, Text: "Change my last answer"})
	}
	if st.Evaluation != nil && len(st.Evaluation.ApplicableVisas) > 0 {
		opts = append(opts, domain.Option{Value: CommandExport, Text: "Download PDF report"})
	}
	opts = append(opts, domain.Option{Value: CommandQuit, Text: "Quit"})
	return Prompt{
		ID:       MenuResult,
		Type:     domain.NodeTypeMultipleChoice,
		Text:     "What would you like to do next?",
		Options:  opts,
		Number:   st.Answers.Len(),
		Progress: 100,
		CanBack:  st.Answers.Len() > 0,
	}
}

// PendingMenu is the prompt offered while an evaluation has to be retried.
func PendingMenu(st *domain.State) Prompt {
	return Prompt{
		ID:   MenuPending,
		Type: domain.NodeTypeMultipleChoice,
		Text: "We could not evaluate your answers.",
		Note: "The evaluation service did not respond. Your answers are kept.",
		Options: []domain.Option{
			{Value: CommandRetry, Text: "Try again"},
			{Value: CommandBack, Text: "Change my last answer"},
			{Value: CommandQuit, Text: "Quit"},
		},
		Number:  st.Answers.Len(),
		CanBack: true,
	}
}

// IsMenu reports whether p is a command menu rather than a question.
func (p Prompt) IsMenu() bool {
	return p.ID == MenuResult || p.ID == MenuPending
}
