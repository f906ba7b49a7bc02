package domain

import "encoding/json"

// NodeType defines how a node is answered.
type NodeType string

const (
	// NodeTypeBoolean is answered with yes/no and branches on Yes or No.
	NodeTypeBoolean NodeType = "boolean"
	// NodeTypeMultipleChoice is answered with one option value.
	NodeTypeMultipleChoice NodeType = "multiple_choice"
	// NodeTypeNumber is answered with a number within optional bounds.
	NodeTypeNumber NodeType = "number"
	// NodeTypeResult is terminal and carries the verdict.
	NodeTypeResult NodeType = "result"
)

// DecisionApproved marks a positive verdict. Any other decision is treated as a rejection.
const DecisionApproved = "approved"

// Option is one answer choice of a multiple choice node or question.
type Option struct {
	Value     string   `json:"value" yaml:"value" mapstructure:"value"`
	Text      string   `json:"text" yaml:"text" mapstructure:"text"`
	Next      string   `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	VisaTypes []string `json:"visa_types,omitempty" yaml:"visa_types,omitempty" mapstructure:"visa_types"`
}

// UnmarshalJSON accepts both "next" and "next_node_id" for the successor.
func (o *Option) UnmarshalJSON(data []byte) error {
	type plain Option
	var aux struct {
		plain
		NextNodeID string `json:"next_node_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = Option(aux.plain)
	if o.Next == "" {
		o.Next = aux.NextNodeID
	}
	return nil
}

// Node is a logical unit of a decision tree: a question or a result.
type Node struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"node_id"`
	Type     NodeType `json:"type" yaml:"type" mapstructure:"type"`
	Question string   `json:"question,omitempty" yaml:"question,omitempty" mapstructure:"question"`
	Note     string   `json:"note,omitempty" yaml:"note,omitempty" mapstructure:"note"`

	// Options is used by multiple choice nodes, in display order.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`

	// Yes and No are the successors of a boolean node.
	Yes string `json:"yes,omitempty" yaml:"yes,omitempty" mapstructure:"yes"`
	No  string `json:"no,omitempty" yaml:"no,omitempty" mapstructure:"no"`

	// Min and Max bound a number node when set.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	// Next is the successor of a number node. Without it the node is a leaf.
	Next string `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`

	// Result fields.
	Decision     string   `json:"decision,omitempty" yaml:"decision,omitempty" mapstructure:"decision"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Message      string   `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
	NextSteps    []string `json:"next_steps,omitempty" yaml:"next_steps,omitempty" mapstructure:"next_steps"`
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty" mapstructure:"alternatives"`
}

// IsResult reports whether the node is terminal.
func (n Node) IsResult() bool {
	return n.Type == NodeTypeResult
}

// Approved reports whether a result node carries a positive verdict.
func (n Node) Approved() bool {
	return n.IsResult() && n.Decision == DecisionApproved
}

// Text returns the display text: question, else title, else message.
func (n Node) Text() string {
	switch {
	case n.Question != "":
		return n.Question
	case n.Title != "":
		return n.Title
	default:
		return n.Message
	}
}

// Edge is an outgoing reference from a question node.
type Edge struct {
	Label string `json:"label"`
	Value string `json:"value"`
	To    string `json:"to"`
}

// Edges lists the outgoing references in display order.
// Boolean nodes yield "yes" then "no"; multiple choice nodes yield one edge per option;
// number nodes yield their single successor. Empty references are skipped.
func (n Node) Edges() []Edge {
	var edges []Edge
	switch n.Type {
	case NodeTypeBoolean:
		if n.Yes != "" {
			edges = append(edges, Edge{Label: "yes", Value: "yes", To: n.Yes})
		}
		if n.No != "" {
			edges = append(edges, Edge{Label: "no", Value: "no", To: n.No})
		}
	case NodeTypeMultipleChoice:
		for _, opt := range n.Options {
			if opt.Next == "" {
				continue
			}
			label := opt.Text
			if label == "" {
				label = opt.Value
			}
			edges = append(edges, Edge{Label: label, Value: opt.Value, To: opt.Next})
		}
	case NodeTypeNumber:
		if n.Next != "" {
			edges = append(edges, Edge{Label: "next", To: n.Next})
		}
	}
	return edges
}

// Option returns the option with the given value.
func (n Node) Option(value string) (Option, bool) {
	return findOption(n.Options, value)
}

func findOption(options []Option, value string) (Option, bool) {
	for _, opt := range options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}
