// Package analyzer computes label statistics and dedup summaries over parsed
// log entries.
package analyzer

import (
	"sort"
	"time"

	"github.com/bimmerbailey/quell/internal/config"
	"github.com/bimmerbailey/quell/internal/dedup"
)

// Summary holds aggregate numbers for one dedup pass over a set of entries.
type Summary struct {
	TotalLines  int                     `json:"total_lines" yaml:"total_lines"`
	Strategy    string                  `json:"strategy" yaml:"strategy"`
	Rows        int                     `json:"rows" yaml:"rows"`
	Suppressed  int                     `json:"suppressed" yaml:"suppressed"`
	Reduction   float64                 `json:"reduction" yaml:"reduction"`
	LevelCounts map[config.LogLevel]int `json:"-" yaml:"-"`
	Levels      map[string]int          `json:"levels" yaml:"levels"`
	FirstEntry  time.Time               `json:"first_entry,omitempty" yaml:"first_entry,omitempty"`
	LastEntry   time.Time               `json:"last_entry,omitempty" yaml:"last_entry,omitempty"`
	TopRuns     []dedup.Row             `json:"top_runs,omitempty" yaml:"top_runs,omitempty"`
	Labels      []LabelBreakdown        `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// LabelBreakdown pairs a label name with its value statistics.
type LabelBreakdown struct {
	Name  string      `json:"name" yaml:"name"`
	Stats []LabelStat `json:"stats" yaml:"stats"`
}

// Summarize deduplicates entries with s and reports the result, including
// the topN longest runs and the value breakdown of the topN most common
// labels.
func Summarize(entries []config.LogEntry, s dedup.Strategy, topN int) Summary {
	rows := dedup.Dedup(entries, s)

	sum := Summary{
		TotalLines:  len(entries),
		Strategy:    s.String(),
		Rows:        len(rows),
		Suppressed:  dedup.Suppressed(rows),
		LevelCounts: make(map[config.LogLevel]int),
		Levels:      make(map[string]int),
	}

	if len(entries) == 0 {
		return sum
	}
	sum.Reduction = float64(sum.Suppressed) / float64(sum.TotalLines)

	for _, e := range entries {
		sum.LevelCounts[e.Level]++
		sum.Levels[e.Level.String()]++

		if e.Timestamp.IsZero() {
			continue
		}
		if sum.FirstEntry.IsZero() || e.Timestamp.Before(sum.FirstEntry) {
			sum.FirstEntry = e.Timestamp
		}
		if sum.LastEntry.IsZero() || e.Timestamp.After(sum.LastEntry) {
			sum.LastEntry = e.Timestamp
		}
	}

	sum.TopRuns = topRuns(rows, topN)

	names := LabelNames(entries)
	if topN > 0 && len(names) > topN {
		names = names[:topN]
	}
	for _, n := range names {
		sum.Labels = append(sum.Labels, LabelBreakdown{
			Name:  n.Name,
			Stats: TopLabelStats(LabelStats(entries, n.Name), topN),
		})
	}

	return sum
}

// topRuns returns the n rows with the most duplicates, longest first,
// skipping rows that suppressed nothing.
func topRuns(rows []dedup.Row, n int) []dedup.Row {
	runs := make([]dedup.Row, 0)
	for _, r := range rows {
		if r.Duplicates > 0 {
			runs = append(runs, r)
		}
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Duplicates > runs[j].Duplicates
	})

	if n > 0 && len(runs) > n {
		runs = runs[:n]
	}
	return runs
}
