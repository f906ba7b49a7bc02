package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// KindNone is the zero Value: nothing selected.
	KindNone ValueKind = iota
	KindBool
	KindText
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "none"
	}
}

// Value is a submitted answer: exactly one of Bool, Text or Number.
type Value struct {
	kind ValueKind
	b    bool
	s    string
	n    float64
}

// Bool creates a boolean answer.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Text creates a text answer (multiple choice option value).
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Number creates a numeric answer.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsZero reports whether no variant is set.
func (v Value) IsZero() bool { return v.kind == KindNone }

// AsBool returns the boolean and whether the value is a Bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsText returns the text and whether the value is a Text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsNumber returns the number and whether the value is a Number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindText:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "yes"
		}
		return "no"
	case KindText:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	}
	return ""
}

// Any returns the payload as a plain Go value (bool, string, float64 or nil).
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindText:
		return v.s
	case KindNumber:
		return v.n
	}
	return nil
}

// MarshalJSON encodes the raw scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON bool, string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a plain Go scalar into a Value.
func ValueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(f), nil
	}
	return Value{}, fmt.Errorf("unsupported answer type %T", raw)
}

// ParseBool interprets common yes/no spellings.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0":
		return false, true
	}
	return false, false
}
