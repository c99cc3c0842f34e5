package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/spf13/viper"
)

func TestDedupCommandText(t *testing.T) {
	tests := []struct {
		strategy string
		want     []string
	}{
		{"none", retryLog},
		{"exact", []string{
			"WARN retry 1 of 5",
			"WARN retry 2 of 5",
			"WARN retry 3 of 5",
			"INFO connected (×2)",
			"ERROR lost connection",
			"ERROR disk full",
		}},
		{"numbers", []string{
			"WARN retry 1 of 5 (×3)",
			"INFO connected (×2)",
			"ERROR lost connection",
			"ERROR disk full",
		}},
		{"signature", []string{
			"WARN retry 1 of 5 (×3)",
			"INFO connected (×2)",
			"ERROR lost connection (×2)",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			resetConfig(t)
			file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

			var out bytes.Buffer
			cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
			setFlag(t, cmd, "strategy", tt.strategy)

			if err := runDedup(cmd, []string{file}); err != nil {
				t.Fatalf("runDedup() error = %v", err)
			}
			if got, want := out.String(), joinLines(tt.want)+"\n"; got != want {
				t.Errorf("output =\n%s\nwant\n%s", got, want)
			}
		})
	}
}

func TestDedupCommandStrategyFromConfig(t *testing.T) {
	resetConfig(t)
	viper.Set("dedup.strategy", "numbers")
	file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

	var out bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
	if err := runDedup(cmd, []string{file}); err != nil {
		t.Fatalf("runDedup() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "WARN retry 1 of 5 (×3)\n") {
		t.Errorf("config strategy not applied:\n%s", out.String())
	}
}

func TestDedupCommandUnknownStrategy(t *testing.T) {
	resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

	var out bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
	setFlag(t, cmd, "strategy", "fuzzy")

	err := runDedup(cmd, []string{file})
	if !errors.Is(err, dedup.ErrUnknownStrategy) {
		t.Errorf("runDedup() error = %v, want ErrUnknownStrategy", err)
	}
}

func TestDedupCommandFiltersBeforeDedup(t *testing.T) {
	resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

	var out, errOut bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, &errOut)
	setFlag(t, cmd, "strategy", "exact")
	setFlag(t, cmd, "pattern", "connect")
	setFlag(t, cmd, "summary", "true")

	if err := runDedup(cmd, []string{file}); err != nil {
		t.Fatalf("runDedup() error = %v", err)
	}

	want := "INFO connected (×2)\nERROR lost connection\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if got := errOut.String(); got != "3 lines, 2 rows, 1 suppressed (strategy exact)\n" {
		t.Errorf("summary = %q", got)
	}
}

func TestDedupCommandLabelMatcher(t *testing.T) {
	resetConfig(t)
	file := writeTempFile(t, t.TempDir(), "app.log", serviceLog)

	var out bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
	setFlag(t, cmd, "label", "service=api")
	setFlag(t, cmd, "strategy", "numbers")

	if err := runDedup(cmd, []string{file}); err != nil {
		t.Fatalf("runDedup() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], " (×3)") {
		t.Errorf("output = %q, want one row with (×3)", out.String())
	}
}

func TestDedupCommandJSON(t *testing.T) {
	resetConfig(t)
	viper.Set("format", "json")
	file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

	var out bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
	setFlag(t, cmd, "strategy", "numbers")

	if err := runDedup(cmd, []string{file}); err != nil {
		t.Fatalf("runDedup() error = %v", err)
	}

	var rows []dedup.Row
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}

	total := 0
	for _, r := range rows {
		total += r.Count()
	}
	if len(rows) != 4 || total != len(retryLog) {
		t.Errorf("got %d rows covering %d lines", len(rows), total)
	}
	if rows[0].Duplicates != 2 || rows[0].Entry.Line != 1 {
		t.Errorf("first row = %+v", rows[0])
	}
}

func TestDedupCommandInvalidFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{"invert without pattern", map[string]string{"invert": "true"}},
		{"bad pattern", map[string]string{"pattern": "("}},
		{"bad level", map[string]string{"level": "loud"}},
		{"bad since", map[string]string{"since": "yesterday-ish"}},
		{"bad label matcher", map[string]string{"label": "service"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetConfig(t)
			file := writeTempFile(t, t.TempDir(), "app.log", retryLog)

			var out bytes.Buffer
			cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
			for k, v := range tt.flags {
				setFlag(t, cmd, k, v)
			}
			if err := runDedup(cmd, []string{file}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDedupCommandMultipleFilesKeepOrder(t *testing.T) {
	resetConfig(t)
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.log", []string{"tick", "tick"})
	b := writeTempFile(t, dir, "b.log", []string{"tick", "tock"})

	var out bytes.Buffer
	cmd := newTestCmd("dedup", setupDedupFlags, &out, nil)
	if err := runDedup(cmd, []string{a, b}); err != nil {
		t.Fatalf("runDedup() error = %v", err)
	}

	// runs continue across file boundaries
	if want := "tick (×3)\ntock\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
