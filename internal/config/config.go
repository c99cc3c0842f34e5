// Package config provides configuration types and the shared log entry model
// for quell.
package config

import (
	"encoding/json"
	"strings"
	"time"
)

// Config holds the application-wide configuration.
type Config struct {
	Format           string       `mapstructure:"format"`
	Verbose          bool         `mapstructure:"verbose"`
	NoColor          bool         `mapstructure:"no_color"`
	TimestampFormats []string     `mapstructure:"timestamp_formats"`
	Dedup            DedupConfig  `mapstructure:"dedup"`
	Labels           LabelsConfig `mapstructure:"labels"`
	LLM              LLMConfig    `mapstructure:"llm"`
}

// DedupConfig holds defaults for adjacent-run deduplication.
type DedupConfig struct {
	// Strategy is one of "none", "exact", "numbers", "signature".
	Strategy string `mapstructure:"strategy"`
}

// LabelsConfig holds defaults for label statistics.
type LabelsConfig struct {
	Top int `mapstructure:"top"`
}

// LLMConfig holds configuration for the explain command.
type LLMConfig struct {
	// Provider selects which LLM to use. Only "ollama" is supported.
	Provider string `mapstructure:"provider"`

	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// MaxRows caps how many deduplicated runs are sent in a prompt.
	MaxRows int `mapstructure:"max_rows"`

	Ollama OllamaConfig `mapstructure:"ollama"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`  // API endpoint
	Model string `mapstructure:"model"` // Default model name
}

// LogLevel represents a standard log severity level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelUnknown
)

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements json.Marshaler for LogLevel.
func (l LogLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler for LogLevel.
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLevel(s)
	return nil
}

// MarshalYAML renders the level by name.
func (l LogLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// ParseLevel converts a string to a LogLevel.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	case "fatal", "critical", "crit":
		return LevelFatal
	default:
		return LevelUnknown
	}
}

// LogEntry represents a single retrieved log line.
//
// Entries are treated as immutable once built; the dedup and label
// computations never modify them.
type LogEntry struct {
	Raw       string            `json:"raw" yaml:"raw"`
	Timestamp time.Time         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Level     LogLevel          `json:"level" yaml:"level"`
	Message   string            `json:"message" yaml:"message"`
	Source    string            `json:"source,omitempty" yaml:"source,omitempty"`
	Labels    map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Line      int               `json:"line" yaml:"line"`
}

// Text returns the text used for comparisons: the message, falling back to
// the raw line. An entry with neither yields "".
func (e LogEntry) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Raw
}

// Label returns the value of the named label and whether the entry defines it.
func (e LogEntry) Label(name string) (string, bool) {
	if e.Labels == nil {
		return "", false
	}
	v, ok := e.Labels[name]
	return v, ok
}
