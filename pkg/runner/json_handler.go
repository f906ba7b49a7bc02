package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
)

// Message types emitted by JSONHandler.
const (
	MessageQuestion = "question"
	MessageResult   = "result"
	MessageSystem   = "system"
)

// Message is one JSON line written by JSONHandler.
type Message struct {
	Type     string        `json:"type"`
	Prompt   *Prompt       `json:"prompt,omitempty"`
	State    *domain.State `json:"state,omitempty"`
	Markdown string        `json:"markdown,omitempty"`
	Text     string        `json:"message,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Every prompt, result and system message is written as one JSON object.
// Input lines may be a JSON string, boolean or number, or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Question(ctx context.Context, p Prompt) error {
	return h.Encoder.Encode(Message{Type: MessageQuestion, Prompt: &p})
}

func (h *JSONHandler) Result(ctx context.Context, st *domain.State) error {
	return h.Encoder.Encode(Message{Type: MessageResult, State: st, Markdown: ResultMarkdown(st)})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Message{Type: MessageSystem, Text: msg})
}

func (h *JSONHandler) Input(ctx context.Context, p Prompt) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		// Plain text input
		return SanitizeInput(text)
	}
	switch v := raw.(type) {
	case string:
		return SanitizeInput(v)
	case bool:
		if v {
			return "yes", nil
		}
		return "no", nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return SanitizeInput(text)
}
