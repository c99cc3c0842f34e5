package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/bimmerbailey/quell/internal/dedup"
)

// Mode selects the task the model is asked to perform.
type Mode string

const (
	// ModeExplain asks for a short plain-language explanation of the log.
	ModeExplain Mode = "explain"

	// ModeRootCause asks the model to diagnose the cause of failures.
	ModeRootCause Mode = "root_cause"

	// ModeQuestion asks the model to answer Options.Question.
	ModeQuestion Mode = "question"
)

// Modes returns every supported mode.
func Modes() []Mode {
	return []Mode{ModeExplain, ModeRootCause, ModeQuestion}
}

var (
	// ErrMissingField is returned by Build when a required option is absent.
	ErrMissingField = errors.New("prompt: missing required field")

	// ErrUnknownMode is returned for a mode name ParseMode does not know.
	ErrUnknownMode = errors.New("prompt: unknown mode")
)

func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// ParseMode resolves a mode name case-insensitively. Empty means ModeExplain.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeExplain, nil
	}
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options holds the log context a prompt is built from.
type Options struct {
	// Rows is the deduplicated log, in order. Required.
	Rows []dedup.Row

	// Labels are optional label breakdowns appended after the runs.
	Labels []analyzer.LabelBreakdown

	// MaxRows caps the rendered runs; 0 means no cap.
	MaxRows int

	// Strategy is the dedup strategy that produced Rows.
	Strategy dedup.Strategy

	// Question is required for ModeQuestion.
	Question string

	// Files, Pattern and Level describe how the input was selected.
	Files   []string
	Pattern string
	Level   string
}
