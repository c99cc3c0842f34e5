package config

import (
	"encoding/json"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"DBG", LevelDebug},
		{"info", LevelInfo},
		{"Warning", LevelWarn},
		{"WARN", LevelWarn},
		{"err", LevelError},
		{"ERROR", LevelError},
		{"critical", LevelFatal},
		{"fatal", LevelFatal},
		{"", LevelUnknown},
		{"trace", LevelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogLevelJSON(t *testing.T) {
	got, err := json.Marshal(LevelWarn)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(got) != `"WARN"` {
		t.Errorf("Marshal() = %s, want \"WARN\"", got)
	}

	var level LogLevel
	if err := json.Unmarshal([]byte(`"fatal"`), &level); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if level != LevelFatal {
		t.Errorf("Unmarshal() = %v, want FATAL", level)
	}

	if LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("out of range level should print UNKNOWN")
	}
}

func TestLogEntryText(t *testing.T) {
	tests := []struct {
		name  string
		entry LogEntry
		want  string
	}{
		{"message wins", LogEntry{Raw: `{"msg":"hi"}`, Message: "hi"}, "hi"},
		{"raw fallback", LogEntry{Raw: "plain line"}, "plain line"},
		{"empty", LogEntry{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogEntryLabel(t *testing.T) {
	e := LogEntry{Labels: map[string]string{"app": "api", "empty": ""}}

	if v, ok := e.Label("app"); !ok || v != "api" {
		t.Errorf("Label(app) = %q, %v", v, ok)
	}
	if v, ok := e.Label("empty"); !ok || v != "" {
		t.Errorf("Label(empty) = %q, %v; an empty value still counts as defined", v, ok)
	}
	if _, ok := e.Label("missing"); ok {
		t.Error("Label(missing) should not be defined")
	}
	if _, ok := (LogEntry{}).Label("app"); ok {
		t.Error("nil labels should define nothing")
	}
}
