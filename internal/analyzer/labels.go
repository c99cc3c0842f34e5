package analyzer

import (
	"sort"

	"github.com/bimmerbailey/quell/internal/config"
)

// LabelStat describes how often one value of a label occurs.
type LabelStat struct {
	Value      string  `json:"value" yaml:"value"`
	Count      int     `json:"count" yaml:"count"`
	Proportion float64 `json:"proportion" yaml:"proportion"`
}

// Percent returns the proportion scaled to 0..100.
func (s LabelStat) Percent() float64 {
	return s.Proportion * 100
}

// LabelName is a label defined by at least one entry, with the number of
// entries that define it.
type LabelName struct {
	Name    string `json:"name" yaml:"name"`
	Entries int    `json:"entries" yaml:"entries"`
	Values  int    `json:"values" yaml:"values"`
}

// LabelStats counts the values of label across entries.
//
// Only entries that define the label take part; the proportions are relative
// to that number. The result is ordered by descending count, with ties kept
// in the order the values were first seen. It is empty when no entry defines
// the label.
func LabelStats(entries []config.LogEntry, label string) []LabelStat {
	counts := make(map[string]int)
	var order []string
	total := 0

	for _, e := range entries {
		value, ok := e.Label(label)
		if !ok {
			continue
		}
		if _, seen := counts[value]; !seen {
			order = append(order, value)
		}
		counts[value]++
		total++
	}

	if total == 0 {
		return []LabelStat{}
	}

	stats := make([]LabelStat, len(order))
	for i, value := range order {
		stats[i] = LabelStat{
			Value:      value,
			Count:      counts[value],
			Proportion: float64(counts[value]) / float64(total),
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})

	return stats
}

// TopLabelStats returns at most n stats. A non-positive n returns all of them.
func TopLabelStats(stats []LabelStat, n int) []LabelStat {
	if n <= 0 || len(stats) <= n {
		return stats
	}
	return stats[:n]
}

// LabelNames lists every label defined across entries, most common first,
// then by name.
func LabelNames(entries []config.LogEntry) []LabelName {
	defined := make(map[string]int)
	values := make(map[string]map[string]struct{})

	for _, e := range entries {
		for name, value := range e.Labels {
			defined[name]++
			if values[name] == nil {
				values[name] = make(map[string]struct{})
			}
			values[name][value] = struct{}{}
		}
	}

	names := make([]LabelName, 0, len(defined))
	for name, n := range defined {
		names = append(names, LabelName{Name: name, Entries: n, Values: len(values[name])})
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i].Entries != names[j].Entries {
			return names[i].Entries > names[j].Entries
		}
		return names[i].Name < names[j].Name
	})

	return names
}
