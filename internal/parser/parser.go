// Package parser turns log files into config.LogEntry values.
//
// It understands JSON lines, logfmt-style key=value lines and free text.
// Structured fields other than the message, level and timestamp become
// labels on the entry.
package parser

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bimmerbailey/quell/internal/config"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds a single log line.
const maxLineSize = 1024 * 1024

// DefaultTimestampFormats are used when the caller configures none.
var DefaultTimestampFormats = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"Jan 02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
}

var (
	messageKeys   = []string{"msg", "message", "text", "log"}
	levelKeys     = []string{"level", "severity", "lvl"}
	timestampKeys = []string{"time", "timestamp", "ts", "@timestamp"}
)

// Parser reads and parses log files into structured entries.
type Parser struct {
	timestampFormats []string
}

// New creates a Parser with the given timestamp layouts.
func New(timestampFormats []string) *Parser {
	if len(timestampFormats) == 0 {
		timestampFormats = DefaultTimestampFormats
	}
	return &Parser{timestampFormats: timestampFormats}
}

// ParseFile reads every entry of the file at path.
func (p *Parser) ParseFile(path string) ([]config.LogEntry, error) {
	var entries []config.LogEntry
	err := p.ParseFileStream(path, func(e config.LogEntry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// ParseFileStream calls fn for every entry of the file at path, stopping at
// the first error fn returns.
func (p *Parser) ParseFileStream(path string, fn func(config.LogEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.ParseStream(f, func(e config.LogEntry) error {
		e.Source = path
		return fn(e)
	})
}

// Parse reads all entries from r.
func (p *Parser) Parse(r io.Reader) ([]config.LogEntry, error) {
	var entries []config.LogEntry
	err := p.ParseStream(r, func(e config.LogEntry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// ParseStream calls fn for every non-blank line of r.
func (p *Parser) ParseStream(r io.Reader, fn func(config.LogEntry) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(p.ParseLine(line, lineNum)); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// ParseFiles parses several files concurrently and returns their entries
// concatenated in the order of paths.
func (p *Parser) ParseFiles(ctx context.Context, paths []string) ([]config.LogEntry, error) {
	results := make([][]config.LogEntry, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			var entries []config.LogEntry
			err := p.ParseFileStream(path, func(e config.LogEntry) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return fmt.Errorf("error parsing %s: %w", path, err)
			}
			results[i] = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]config.LogEntry, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// ParseLine parses a single log line.
func (p *Parser) ParseLine(line string, lineNum int) config.LogEntry {
	entry := config.LogEntry{
		Raw:   line,
		Line:  lineNum,
		Level: config.LevelUnknown,
	}

	if p.tryParseJSON(line, &entry) {
		return entry
	}

	entry.Message = line
	entry.Timestamp = p.extractTimestamp(line)
	entry.Level = extractLevel(line)

	if fields := parseLogfmt(line); len(fields) > 0 {
		p.applyFields(fields, &entry)
	}

	return entry
}

// tryParseJSON attempts to parse the line as a JSON object.
func (p *Parser) tryParseJSON(line string, entry *config.LogEntry) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return false
	}

	fields := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := scalarString(v); ok {
			fields[k] = s
		}
	}
	p.applyFields(fields, entry)
	return true
}

// applyFields moves the well-known keys onto the entry and keeps the rest as
// labels.
func (p *Parser) applyFields(fields map[string]string, entry *config.LogEntry) {
	if v, ok := firstOf(fields, messageKeys); ok {
		entry.Message = v
	}
	if v, ok := firstOf(fields, levelKeys); ok {
		entry.Level = config.ParseLevel(v)
	}
	if v, ok := firstOf(fields, timestampKeys); ok {
		if ts := p.parseTimestamp(v); !ts.IsZero() {
			entry.Timestamp = ts
		}
	}

	labels := make(map[string]string, len(fields))
	for k, v := range fields {
		if isReserved(k) {
			continue
		}
		labels[k] = v
	}
	if len(labels) > 0 {
		entry.Labels = labels
	}
}

func firstOf(fields map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v, true
		}
	}
	return "", false
}

func isReserved(key string) bool {
	for _, group := range [][]string{messageKeys, levelKeys, timestampKeys} {
		for _, k := range group {
			if k == key {
				return true
			}
		}
	}
	return false
}

// scalarString renders JSON scalars as label values. Objects, arrays and
// nulls are not labels.
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// logfmtPair matches key=value, key="quoted value" pairs.
var logfmtPair = regexp.MustCompile(`(?:^|\s)([A-Za-z_][A-Za-z0-9_.\-]*)=("(?:[^"\\]|\\.)*"|[^\s"]*)`)

// parseLogfmt extracts key=value pairs. Lines with fewer than two pairs are
// treated as free text so a stray "a=b" in a sentence does not become a label.
func parseLogfmt(line string) map[string]string {
	matches := logfmtPair.FindAllStringSubmatch(line, -1)
	if len(matches) < 2 {
		return nil
	}

	fields := make(map[string]string, len(matches))
	for _, m := range matches {
		value := m[2]
		if strings.HasPrefix(value, `"`) {
			if unquoted, err := strconv.Unquote(value); err == nil {
				value = unquoted
			} else {
				value = strings.Trim(value, `"`)
			}
		}
		fields[m[1]] = value
	}
	return fields
}

// levelPattern matches common log level strings.
var levelPattern = regexp.MustCompile(`(?i)\b(DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|CRITICAL)\b`)

func extractLevel(line string) config.LogLevel {
	match := levelPattern.FindString(line)
	if match == "" {
		return config.LevelUnknown
	}
	return config.ParseLevel(match)
}

// extractTimestamp tries each layout against the leading words of the line,
// taking as many words as the layout has.
func (p *Parser) extractTimestamp(line string) time.Time {
	words := strings.Fields(line)
	for _, layout := range p.timestampFormats {
		n := strings.Count(layout, " ") + 1
		if len(words) < n {
			continue
		}
		candidate := strings.Trim(strings.Join(words[:n], " "), "[]")
		if t, err := time.Parse(layout, candidate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseTimestamp parses a complete timestamp value.
func (p *Parser) parseTimestamp(s string) time.Time {
	for _, layout := range p.timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
