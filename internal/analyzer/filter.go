package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bimmerbailey/quell/internal/config"
)

// FilterOptions defines the criteria for selecting log entries. Zero values
// disable the corresponding check.
type FilterOptions struct {
	Pattern     *regexp.Regexp
	Invert      bool
	Level       config.LogLevel
	LevelActive bool
	Since       time.Time
	Until       time.Time
	Labels      map[string]string
}

// Matches reports whether a single entry passes the filter.
func (o FilterOptions) Matches(e config.LogEntry) bool {
	if o.LevelActive && e.Level != o.Level {
		return false
	}

	if !o.Since.IsZero() && !e.Timestamp.IsZero() && e.Timestamp.Before(o.Since) {
		return false
	}
	if !o.Until.IsZero() && !e.Timestamp.IsZero() && e.Timestamp.After(o.Until) {
		return false
	}

	for name, want := range o.Labels {
		if got, ok := e.Label(name); !ok || got != want {
			return false
		}
	}

	if o.Pattern != nil {
		matched := o.Pattern.MatchString(e.Raw)
		if o.Invert {
			matched = !matched
		}
		if !matched {
			return false
		}
	}

	return true
}

// Filter returns the entries matching opts, in order.
func Filter(entries []config.LogEntry, opts FilterOptions) []config.LogEntry {
	result := make([]config.LogEntry, 0, len(entries))
	for _, e := range entries {
		if opts.Matches(e) {
			result = append(result, e)
		}
	}
	return result
}

// ParseLabelMatchers parses "key=value" pairs as given to --label.
func ParseLabelMatchers(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	matchers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid label matcher %q (want key=value)", pair)
		}
		matchers[key] = value
	}
	return matchers, nil
}
