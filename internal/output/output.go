// Package output renders deduplicated rows, label statistics and summaries
// as text, JSON, table or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// barWidth is the width of a full-scale proportion bar.
const barWidth = 30

// maxTableMessage truncates messages in table output.
const maxTableMessage = 80

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	colorize bool
}

// New creates a Writer. Colors are off until WithColor is used.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// WithColor enables level colors in text output according to mode.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.colorize = ShouldColorize(mode, wr.w)
	return wr
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteValue outputs v as YAML when the format is yaml and as JSON
// otherwise.
func (wr *Writer) WriteValue(v interface{}) error {
	if wr.format == FormatYAML {
		return wr.WriteYAML(v)
	}
	return wr.WriteJSON(v)
}

// writeStructured handles the two formats that serialise v directly.
func (wr *Writer) writeStructured(v interface{}) (bool, error) {
	switch wr.format {
	case FormatJSON:
		return true, wr.WriteJSON(v)
	case FormatYAML:
		return true, wr.WriteYAML(v)
	}
	return false, nil
}

// Badge returns the " (×N)" marker shown after a row that stands for N
// entries, or "" for a row without duplicates.
func Badge(r dedup.Row) string {
	if r.Duplicates == 0 {
		return ""
	}
	return fmt.Sprintf(" (×%d)", r.Count())
}

// FormatRow renders one row as a text line.
func FormatRow(r dedup.Row, colorize bool) string {
	line := r.Entry.Raw
	if line == "" {
		line = r.Entry.Text()
	}
	badge := Badge(r)
	if !colorize {
		return line + badge
	}
	if badge != "" {
		badge = colorizeBadge(badge)
	}
	return ColorizeLine(r.Entry.Level, line) + badge
}

// WriteRow writes a single row as text. Used for streaming output.
func (wr *Writer) WriteRow(r dedup.Row) error {
	_, err := fmt.Fprintln(wr.w, FormatRow(r, wr.colorize))
	return err
}

// WriteRows outputs deduplicated rows in the configured format.
func (wr *Writer) WriteRows(rows []dedup.Row) error {
	if ok, err := wr.writeStructured(rows); ok {
		return err
	}

	if wr.format == FormatTable {
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LINE\tCOUNT\tLEVEL\tTIMESTAMP\tMESSAGE")
		fmt.Fprintln(tw, "----\t-----\t-----\t---------\t-------")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
				r.Entry.Line, r.Count(), r.Entry.Level, clock(r.Entry), truncate(r.Entry.Text(), maxTableMessage))
		}
		return tw.Flush()
	}

	for _, r := range rows {
		if err := wr.WriteRow(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEntries outputs raw entries in the configured format.
func (wr *Writer) WriteEntries(entries []config.LogEntry) error {
	if ok, err := wr.writeStructured(entries); ok {
		return err
	}
	rows := make([]dedup.Row, len(entries))
	for i, e := range entries {
		rows[i] = dedup.Row{Entry: e}
	}
	return wr.WriteRows(rows)
}

// LabelReport is the structured form of a label breakdown.
type LabelReport struct {
	Label string               `json:"label" yaml:"label"`
	Stats []analyzer.LabelStat `json:"stats" yaml:"stats"`
}

// WriteLabelStats outputs the value breakdown of one label.
func (wr *Writer) WriteLabelStats(label string, stats []analyzer.LabelStat) error {
	if stats == nil {
		stats = []analyzer.LabelStat{}
	}
	if ok, err := wr.writeStructured(LabelReport{Label: label, Stats: stats}); ok {
		return err
	}

	if len(stats) == 0 {
		_, err := fmt.Fprintf(wr.w, "No entries define label %q.\n", label)
		return err
	}

	if wr.format == FormatTable {
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\tCOUNT\tPERCENT\n", strings.ToUpper(label))
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", displayValue(s.Value), s.Count, s.Percent())
		}
		return tw.Flush()
	}

	fmt.Fprintf(wr.w, "%s:\n", label)
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	for _, s := range stats {
		fmt.Fprintf(tw, "  %s\t%6.2f%%\t%s\t%d\n", displayValue(s.Value), s.Percent(), Bar(s.Proportion, barWidth), s.Count)
	}
	return tw.Flush()
}

// WriteLabelNames outputs the labels present in a set of entries.
func (wr *Writer) WriteLabelNames(names []analyzer.LabelName) error {
	if names == nil {
		names = []analyzer.LabelName{}
	}
	if ok, err := wr.writeStructured(names); ok {
		return err
	}

	if len(names) == 0 {
		_, err := fmt.Fprintln(wr.w, "No labels found.")
		return err
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tENTRIES\tVALUES")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", n.Name, n.Entries, n.Values)
	}
	return tw.Flush()
}

// WriteSummary outputs a dedup summary.
func (wr *Writer) WriteSummary(sum analyzer.Summary) error {
	if ok, err := wr.writeStructured(sum); ok {
		return err
	}

	fmt.Fprintf(wr.w, "Total Lines: %d\n", sum.TotalLines)
	fmt.Fprintf(wr.w, "Strategy: %s\n", sum.Strategy)
	fmt.Fprintf(wr.w, "Rows: %d\n", sum.Rows)
	fmt.Fprintf(wr.w, "Suppressed: %d (%.2f%%)\n", sum.Suppressed, sum.Reduction*100)
	if !sum.FirstEntry.IsZero() {
		fmt.Fprintf(wr.w, "Time Range: %s .. %s\n", sum.FirstEntry.Format("2006-01-02 15:04:05"), sum.LastEntry.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintln(wr.w, "\nLevels:")
	for level := config.LevelDebug; level <= config.LevelUnknown; level++ {
		if n := sum.Levels[level.String()]; n > 0 {
			fmt.Fprintf(wr.w, "  %-7s %d\n", level, n)
		}
	}

	if len(sum.TopRuns) > 0 {
		fmt.Fprintln(wr.w, "\nLongest Runs:")
		for _, r := range sum.TopRuns {
			fmt.Fprintf(wr.w, "  [%d] %s\n", r.Count(), truncate(r.Entry.Text(), maxTableMessage))
		}
	}

	for _, lb := range sum.Labels {
		fmt.Fprintln(wr.w)
		if err := wr.WriteLabelStats(lb.Name, lb.Stats); err != nil {
			return err
		}
	}
	return nil
}

// Bar renders a proportion in [0,1] as a bar of up to width cells.
func Bar(proportion float64, width int) string {
	if proportion < 0 {
		proportion = 0
	}
	if proportion > 1 {
		proportion = 1
	}
	n := int(proportion*float64(width) + 0.5)
	if n == 0 && proportion > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func displayValue(v string) string {
	if v == "" {
		return `""`
	}
	return v
}

func clock(e config.LogEntry) string {
	if e.Timestamp.IsZero() {
		return ""
	}
	return e.Timestamp.Format("15:04:05")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
