package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/quell/internal/analyzer"
	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
	"github.com/bimmerbailey/quell/internal/llm"
)

// Build returns a system message for mode followed by one user message
// carrying the rendered log context.
func Build(mode Mode, opts Options) ([]llm.Message, error) {
	if len(opts.Rows) == 0 {
		return nil, missingField("Rows")
	}
	if mode == ModeQuestion && strings.TrimSpace(opts.Question) == "" {
		return nil, missingField("Question")
	}

	var sb strings.Builder
	switch mode {
	case ModeRootCause:
		sb.WriteString("Perform a root cause analysis of this log.\n\n")
	case ModeQuestion:
		fmt.Fprintf(&sb, "Question: %s\n\n", opts.Question)
	default:
		sb.WriteString("Explain this log.\n\n")
	}

	writeHeader(&sb, opts)
	sb.WriteString(RenderRuns(opts.Rows, opts.MaxRows))
	if len(opts.Labels) > 0 {
		sb.WriteString("\n")
		sb.WriteString(RenderLabels(opts.Labels))
	}

	return []llm.Message{
		{Role: "system", Content: systemPrompt(mode)},
		{Role: "user", Content: sb.String()},
	}, nil
}

func writeHeader(sb *strings.Builder, opts Options) {
	total := 0
	for _, r := range opts.Rows {
		total += r.Count()
	}
	fmt.Fprintf(sb, "Lines: %d, runs: %d, dedup strategy: %s\n", total, len(opts.Rows), opts.Strategy)

	switch len(opts.Files) {
	case 0:
	case 1:
		fmt.Fprintf(sb, "Source file: %s\n", opts.Files[0])
	default:
		fmt.Fprintf(sb, "Source files (%d): %s\n", len(opts.Files), strings.Join(opts.Files, ", "))
	}

	var notes []string
	if opts.Pattern != "" {
		notes = append(notes, "pattern "+opts.Pattern)
	}
	if opts.Level != "" {
		notes = append(notes, "level "+opts.Level)
	}
	if len(notes) > 0 {
		fmt.Fprintf(sb, "Filtered by: %s\n", strings.Join(notes, ", "))
	}
	sb.WriteString("\n")
}

// RenderRuns lists rows as "[xN] LEVEL text" lines in log order. When
// maxRows > 0 and there are more rows, the runs with the highest counts are
// kept (ties go to the earlier run) and the omission is noted.
func RenderRuns(rows []dedup.Row, maxRows int) string {
	keep := rows
	if maxRows > 0 && len(rows) > maxRows {
		keep = largestRuns(rows, maxRows)
	}

	var sb strings.Builder
	sb.WriteString("Runs:\n")
	for _, r := range keep {
		level := r.Entry.Level
		if level == config.LevelUnknown {
			fmt.Fprintf(&sb, "[x%d] %s\n", r.Count(), r.Entry.Text())
			continue
		}
		fmt.Fprintf(&sb, "[x%d] %s %s\n", r.Count(), level, r.Entry.Text())
	}
	if omitted := len(rows) - len(keep); omitted > 0 {
		fmt.Fprintf(&sb, "(%d smaller runs omitted)\n", omitted)
	}
	return sb.String()
}

// largestRuns picks the n rows with the highest counts and returns them in
// their original order.
func largestRuns(rows []dedup.Row, n int) []dedup.Row {
	chosen := make([]bool, len(rows))
	for k := 0; k < n; k++ {
		best := -1
		for i := range rows {
			if chosen[i] {
				continue
			}
			if best < 0 || rows[i].Count() > rows[best].Count() {
				best = i
			}
		}
		chosen[best] = true
	}

	out := make([]dedup.Row, 0, n)
	for i, ok := range chosen {
		if ok {
			out = append(out, rows[i])
		}
	}
	return out
}

// RenderLabels lists each label's value distribution.
func RenderLabels(labels []analyzer.LabelBreakdown) string {
	var sb strings.Builder
	sb.WriteString("Label values:\n")
	for _, l := range labels {
		parts := make([]string, len(l.Stats))
		for i, s := range l.Stats {
			parts[i] = fmt.Sprintf("%s=%d (%.1f%%)", s.Value, s.Count, s.Percent())
		}
		fmt.Fprintf(&sb, "- %s: %s\n", l.Name, strings.Join(parts, ", "))
	}
	return sb.String()
}
