package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EnvMaxAnswerSize overrides DefaultMaxAnswerSize.
const EnvMaxAnswerSize = "VISAGUIDE_MAX_ANSWER_SIZE"

// DefaultMaxAnswerSize bounds a single answer line in bytes. Answers are
// option numbers, yes/no or short figures, so 1KB is generous.
var DefaultMaxAnswerSize = 1024

var (
	ErrAnswerTooLarge = errors.New("answer is too long")
	ErrInvalidUTF8    = errors.New("answer contains invalid UTF-8")
)

// SanitizeInput turns one line of user input into a clean answer: it rejects
// oversized or non UTF-8 input, drops control characters (escape sequences
// would otherwise reach the terminal and the logs), turns tabs into spaces,
// collapses runs of spaces and trims the result.
func SanitizeInput(input string) (string, error) {
	if limit := maxAnswerSize(); len(input) > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrAnswerTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, input)
	return strings.Join(strings.Fields(cleaned), " "), nil
}

func maxAnswerSize() int {
	if v := os.Getenv(EnvMaxAnswerSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultMaxAnswerSize
}
