package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/bimmerbailey/quell/internal/config"
)

func TestColorizeLine(t *testing.T) {
	tests := []struct {
		name  string
		level config.LogLevel
		want  string
	}{
		{"debug gray", config.LevelDebug, colorGray},
		{"info plain", config.LevelInfo, ""},
		{"warn yellow", config.LevelWarn, colorYellow},
		{"error red", config.LevelError, colorRed},
		{"fatal bold red", config.LevelFatal, colorBold + colorRed},
		{"unknown plain", config.LevelUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColorizeLine(tt.level, "message")
			if tt.want == "" {
				if got != "message" {
					t.Errorf("ColorizeLine() = %q, want uncolored", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.want) || !strings.HasSuffix(got, colorReset) {
				t.Errorf("ColorizeLine() = %q, want prefix %q and reset suffix", got, tt.want)
			}
			if !strings.Contains(got, "message") {
				t.Errorf("ColorizeLine() lost content: %q", got)
			}
		})
	}
}

func TestShouldColorize(t *testing.T) {
	var buf bytes.Buffer

	if !ShouldColorize(ColorAlways, &buf) {
		t.Error("ColorAlways should colorize any writer")
	}
	if ShouldColorize(ColorNever, os.Stdout) {
		t.Error("ColorNever should never colorize")
	}
	if ShouldColorize(ColorAuto, &buf) {
		t.Error("ColorAuto should not colorize a buffer")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	defer f.Close()
	if ShouldColorize(ColorAuto, f) {
		t.Error("ColorAuto should not colorize a regular file")
	}
}

func TestParseColorMode(t *testing.T) {
	tests := map[string]ColorMode{
		"always": ColorAlways,
		"NEVER":  ColorNever,
		"auto":   ColorAuto,
		"":       ColorAuto,
		"bogus":  ColorAuto,
	}
	for input, want := range tests {
		if got := ParseColorMode(input); got != want {
			t.Errorf("ParseColorMode(%q) = %v, want %v", input, got, want)
		}
	}
}
