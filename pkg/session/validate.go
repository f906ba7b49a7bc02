package session

import (
	"strconv"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
)

// Normalize checks v against the node it answers and returns the value
// that is recorded and sent to the backend.
//
// Boolean nodes accept a Bool or a yes/no Text. Multiple choice nodes need
// a Text naming one of the options. Number nodes accept a Number, or a Text
// that parses as one, within the declared bounds.
func Normalize(node domain.Node, v domain.Value) (domain.Value, error) {
	if v.IsZero() {
		return domain.Value{}, domain.ErrNoSelection
	}
	invalid := func(reason string) error {
		return &domain.ValidationError{QuestionID: node.ID, Reason: reason}
	}

	switch node.Type {
	case domain.NodeTypeBoolean:
		if b, ok := v.AsBool(); ok {
			return domain.Bool(b), nil
		}
		if s, ok := v.AsText(); ok {
			if b, ok := domain.ParseBool(s); ok {
				return domain.Bool(b), nil
			}
		}
		return domain.Value{}, invalid("expected yes or no")

	case domain.NodeTypeMultipleChoice:
		s, ok := v.AsText()
		if !ok {
			return domain.Value{}, invalid("expected one of the listed options")
		}
		if len(node.Options) == 0 {
			return domain.Text(s), nil
		}
		if _, ok := node.Option(s); !ok {
			return domain.Value{}, invalid("unknown option " + strconv.Quote(s))
		}
		return domain.Text(s), nil

	case domain.NodeTypeNumber:
		n, ok := v.AsNumber()
		if !ok {
			s, isText := v.AsText()
			if !isText {
				return domain.Value{}, invalid("expected a number")
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return domain.Value{}, invalid("expected a number")
			}
			n = parsed
		}
		if node.Min != nil && n < *node.Min {
			return domain.Value{}, invalid("below minimum " + strconv.FormatFloat(*node.Min, 'f', -1, 64))
		}
		if node.Max != nil && n > *node.Max {
			return domain.Value{}, invalid("above maximum " + strconv.FormatFloat(*node.Max, 'f', -1, 64))
		}
		return domain.Number(n), nil

	case domain.NodeTypeResult:
		return domain.Value{}, invalid("result nodes take no answer")
	}

	// Unknown types are passed through untouched.
	return v, nil
}
