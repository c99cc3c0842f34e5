package dedup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Strategy selects the equivalence rule used to compare adjacent entries.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyExact
	StrategyNumbers
	StrategySignature
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown dedup strategy")

var strategyNames = [...]string{
	StrategyNone:      "none",
	StrategyExact:     "exact",
	StrategyNumbers:   "numbers",
	StrategySignature: "signature",
}

// Strategies lists every strategy in order of increasing coarseness.
func Strategies() []Strategy {
	return []Strategy{StrategyNone, StrategyExact, StrategyNumbers, StrategySignature}
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy converts a name to a Strategy, ignoring case and surrounding
// whitespace. An empty name selects StrategyNone.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StrategyNone, nil
	}
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return StrategyNone, fmt.Errorf("%w: %q (must be one of %s)", ErrUnknownStrategy, name, strings.Join(strategyNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

var (
	// numberPattern matches a digit run with an optional fractional part.
	// Signs and exponents are left in place.
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// wordPattern matches letters, digits and underscores. Erasing it leaves
	// the structural skeleton of a line.
	wordPattern = regexp.MustCompile(`\w+`)
)

// Key returns the comparison key of text under s. Two entries are
// equivalent under s exactly when their keys are equal.
func Key(text string, s Strategy) string {
	switch s {
	case StrategyNumbers:
		return numberPattern.ReplaceAllLiteralString(text, "")
	case StrategySignature:
		return wordPattern.ReplaceAllLiteralString(text, "")
	default:
		return text
	}
}

// Equivalent reports whether two texts would be merged under s.
// Under StrategyNone nothing is ever merged.
func Equivalent(a, b string, s Strategy) bool {
	if s == StrategyNone {
		return false
	}
	return Key(a, s) == Key(b, s)
}
