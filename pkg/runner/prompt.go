package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/session"
)

// Commands recognised by the runner in place of an answer.
const (
	CommandBack    = "back"
	CommandRestart = "restart"
	CommandQuit    = "quit"
	CommandExport  = "export"
	CommandRetry   = "retry"
)

// Prompt is the presentation view of the displayed question.
type Prompt struct {
	ID       string          `json:"id"`
	Type     domain.NodeType `json:"type"`
	Text     string          `json:"text"`
	Note     string          `json:"note,omitempty"`
	Options  []domain.Option `json:"options,omitempty"`
	Min      *float64        `json:"min,omitempty"`
	Max      *float64        `json:"max,omitempty"`
	Number   int             `json:"number"`
	Progress float64         `json:"progress"`
	CanBack  bool            `json:"can_back"`
}

// PromptFor builds the prompt of the question displayed by st.
// It returns false when no question is displayed.
func PromptFor(st *domain.State) (Prompt, bool) {
	var node domain.Node
	switch {
	case st.Phase != domain.PhaseInProgress:
		return Prompt{}, false
	case st.Mode == domain.ModeTree:
		if st.Current == nil {
			return Prompt{}, false
		}
		node = *st.Current
		node.ID = st.CurrentNodeID
	default:
		q, ok := st.CurrentQuestion()
		if !ok {
			return Prompt{}, false
		}
		node = q.AsNode()
	}

	answered := st.Answers.Len()
	return Prompt{
		ID:       node.ID,
		Type:     node.Type,
		Text:     node.Question,
		Note:     node.Note,
		Options:  node.Options,
		Min:      node.Min,
		Max:      node.Max,
		Number:   answered + 1,
		Progress: session.Progress(answered, false),
		CanBack:  answered > 0,
	}, true
}

// Command returns the runner command spelled by raw, if any.
func Command(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "back", "b", "<":
		return CommandBack, true
	case "restart":
		return CommandRestart, true
	case "quit", "exit", "q":
		return CommandQuit, true
	case "export", "pdf":
		return CommandExport, true
	case "retry":
		return CommandRetry, true
	}
	return "", false
}

// ParseAnswer converts typed input into a value for p.
// Multiple choice prompts accept the 1-based option number, the option
// value or its text. Range checks are left to the session controller.
func ParseAnswer(p Prompt, raw string) (domain.Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Value{}, domain.ErrNoSelection
	}

	switch p.Type {
	case domain.NodeTypeBoolean:
		b, ok := domain.ParseBool(s)
		if !ok {
			return domain.Value{}, fmt.Errorf("please answer yes or no")
		}
		return domain.Bool(b), nil

	case domain.NodeTypeMultipleChoice:
		if i, err := strconv.Atoi(s); err == nil {
			if i < 1 || i > len(p.Options) {
				return domain.Value{}, fmt.Errorf("choose a number between 1 and %d", len(p.Options))
			}
			return domain.Text(p.Options[i-1].Value), nil
		}
		for _, opt := range p.Options {
			if strings.EqualFold(opt.Value, s) || strings.EqualFold(opt.Text, s) {
				return domain.Text(opt.Value), nil
			}
		}
		return domain.Value{}, fmt.Errorf("unknown option %q", s)

	case domain.NodeTypeNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Value{}, fmt.Errorf("please enter a number")
		}
		return domain.Number(n), nil
	}
	return domain.Text(s), nil
}
