package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answers maps question or node ids to values, remembering insertion order.
// The order drives Back (most recent first) and path display.
// The zero value is ready to use.
type Answers struct {
	order  []string
	values map[string]Value
}

// NewAnswers creates an empty answer set.
func NewAnswers() *Answers {
	return &Answers{values: make(map[string]Value)}
}

// Set records a value. Updating an existing id keeps its original position.
func (a *Answers) Set(id string, v Value) {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	if _, ok := a.values[id]; !ok {
		a.order = append(a.order, id)
	}
	a.values[id] = v
}

// Get returns the value for id.
func (a *Answers) Get(id string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	v, ok := a.values[id]
	return v, ok
}

// Has reports whether id has been answered.
func (a *Answers) Has(id string) bool {
	_, ok := a.Get(id)
	return ok
}

// Delete removes id, returning whether it was present.
func (a *Answers) Delete(id string) bool {
	if a == nil {
		return false
	}
	if _, ok := a.values[id]; !ok {
		return false
	}
	delete(a.values, id)
	for i, k := range a.order {
		if k == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Last returns the most recently inserted id.
func (a *Answers) Last() (string, Value, bool) {
	if a == nil || len(a.order) == 0 {
		return "", Value{}, false
	}
	id := a.order[len(a.order)-1]
	return id, a.values[id], true
}

// PopLast removes and returns the most recently inserted answer.
func (a *Answers) PopLast() (string, Value, bool) {
	id, v, ok := a.Last()
	if ok {
		a.Delete(id)
	}
	return id, v, ok
}

// Len returns the number of answers.
func (a *Answers) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}

// IDs returns the answered ids in insertion order.
func (a *Answers) IDs() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Clone returns an independent copy.
func (a *Answers) Clone() *Answers {
	c := NewAnswers()
	if a == nil {
		return c
	}
	for _, id := range a.order {
		c.Set(id, a.values[id])
	}
	return c
}

// Equal compares ids, order and values.
func (a *Answers) Equal(o *Answers) bool {
	if a.Len() != o.Len() {
		return false
	}
	for i, id := range a.IDs() {
		if o.order[i] != id || !a.values[id].Equal(o.values[id]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes an object whose keys follow insertion order.
func (a *Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range a.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.values[id])
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, preserving the key order of the document.
func (a *Answers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("answers: expected object, got %v", tok)
	}
	*a = Answers{values: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("answers: expected key, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		v, err := ValueOf(raw)
		if err != nil {
			return fmt.Errorf("answer %q: %w", key, err)
		}
		a.Set(key, v)
	}
	_, err = dec.Token()
	return err
}
