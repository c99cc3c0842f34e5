package output

import (
	"io"
	"os"
	"strings"

	"github.com/bimmerbailey/quell/internal/config"
	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "auto", "always" or "never"; anything else is auto.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ShouldColorize resolves mode against the destination writer.
func ShouldColorize(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
	}
	return false
}

// ColorizeLine applies color to an entire log line based on its level.
func ColorizeLine(level config.LogLevel, line string) string {
	switch level {
	case config.LevelDebug:
		return colorGray + line + colorReset
	case config.LevelWarn:
		return colorYellow + line + colorReset
	case config.LevelError:
		return colorRed + line + colorReset
	case config.LevelFatal:
		return colorBold + colorRed + line + colorReset
	default:
		return line // INFO and UNKNOWN use default color
	}
}

// colorizeBadge highlights a duplicate-count badge.
func colorizeBadge(badge string) string {
	return colorCyan + badge + colorReset
}
