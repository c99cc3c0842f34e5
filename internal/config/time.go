package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// absoluteLayouts are tried in order by ParseTimeRef.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var durationPart = regexp.MustCompile(`(\d+)([dhms])`)

// ParseTimeRef parses an absolute timestamp or a relative duration.
// Relative values are subtracted from now (e.g. "1h", "30m", "1d2h").
func ParseTimeRef(s string) (time.Time, error) {
	return parseTimeRefAt(s, time.Now())
}

func parseTimeRefAt(s string, now time.Time) (time.Time, error) {
	input := strings.TrimSpace(s)
	if input == "" {
		return time.Time{}, fmt.Errorf("time reference is empty")
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}

	d, err := ParseDuration(input)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

// ParseDuration parses a Go duration, additionally accepting "d" for days.
// Examples: "5m", "1h30m", "2d".
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	matches := durationPart.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid relative duration: %s", s)
	}

	consumed := 0
	var total time.Duration
	for _, m := range matches {
		if m[0] != consumed {
			return 0, fmt.Errorf("invalid relative duration: %s", s)
		}
		consumed = m[1]

		value, err := strconv.ParseInt(s[m[2]:m[3]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid relative duration: %s", s)
		}

		switch s[m[4]:m[5]] {
		case "d":
			total += 24 * time.Hour * time.Duration(value)
		case "h":
			total += time.Hour * time.Duration(value)
		case "m":
			total += time.Minute * time.Duration(value)
		case "s":
			total += time.Second * time.Duration(value)
		}
	}

	if consumed != len(s) {
		return 0, fmt.Errorf("invalid relative duration: %s", s)
	}
	return total, nil
}
