package analyzer

import (
	"regexp"
	"testing"
	"time"

	"github.com/bimmerbailey/quell/internal/config"
)

func TestFilter(t *testing.T) {
	base := time.Date(2025, 1, 26, 10, 0, 0, 0, time.UTC)
	entries := []config.LogEntry{
		{Raw: "GET /health 200", Level: config.LevelInfo, Timestamp: base, Labels: map[string]string{"app": "api"}},
		{Raw: "db timeout", Level: config.LevelError, Timestamp: base.Add(time.Minute), Labels: map[string]string{"app": "api"}},
		{Raw: "render failed", Level: config.LevelError, Timestamp: base.Add(2 * time.Minute), Labels: map[string]string{"app": "web"}},
		{Raw: "no timestamp", Level: config.LevelWarn},
	}

	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{"no filters", FilterOptions{}, []string{"GET /health 200", "db timeout", "render failed", "no timestamp"}},
		{"pattern", FilterOptions{Pattern: regexp.MustCompile("time")}, []string{"db timeout", "no timestamp"}},
		{"inverted", FilterOptions{Pattern: regexp.MustCompile("time"), Invert: true}, []string{"GET /health 200", "render failed"}},
		{"level", FilterOptions{Level: config.LevelError, LevelActive: true}, []string{"db timeout", "render failed"}},
		{"since keeps untimed", FilterOptions{Since: base.Add(90 * time.Second)}, []string{"render failed", "no timestamp"}},
		{"until", FilterOptions{Until: base}, []string{"GET /health 200", "no timestamp"}},
		{"label", FilterOptions{Labels: map[string]string{"app": "api"}}, []string{"GET /health 200", "db timeout"}},
		{"label and level", FilterOptions{Labels: map[string]string{"app": "api"}, Level: config.LevelError, LevelActive: true}, []string{"db timeout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(entries, tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].Raw != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, got[i].Raw, tt.want[i])
				}
			}
		})
	}
}

func TestParseLabelMatchers(t *testing.T) {
	got, err := ParseLabelMatchers([]string{"app=api", "empty=", "url=a=b"})
	if err != nil {
		t.Fatalf("ParseLabelMatchers() error = %v", err)
	}
	if got["app"] != "api" || got["empty"] != "" || got["url"] != "a=b" {
		t.Errorf("ParseLabelMatchers() = %v", got)
	}

	if got, err := ParseLabelMatchers(nil); err != nil || got != nil {
		t.Errorf("ParseLabelMatchers(nil) = %v, %v", got, err)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseLabelMatchers([]string{bad}); err == nil {
			t.Errorf("ParseLabelMatchers(%q) expected error", bad)
		}
	}
}
