package dedup

import (
	"github.com/bimmerbailey/quell/internal/config"
)

// Row is a surviving entry and the number of equivalent entries that
// immediately followed it and were suppressed.
type Row struct {
	Entry      config.LogEntry `json:"entry" yaml:"entry"`
	Duplicates int             `json:"duplicates" yaml:"duplicates"`
}

// Count returns how many input entries the row stands for.
func (r Row) Count() int {
	return r.Duplicates + 1
}

// Dedup collapses runs of adjacent equivalent entries into their first
// entry. The input is not modified and the output keeps input order.
//
// For every strategy the counts add up: the sum of Count() over the result
// equals len(entries).
func Dedup(entries []config.LogEntry, s Strategy) []Row {
	if len(entries) == 0 {
		return []Row{}
	}

	if s == StrategyNone {
		rows := make([]Row, len(entries))
		for i, e := range entries {
			rows[i] = Row{Entry: e}
		}
		return rows
	}

	d := NewDeduper(s)
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if row, ok := d.Push(e); ok {
			rows = append(rows, row)
		}
	}
	if row, ok := d.Flush(); ok {
		rows = append(rows, row)
	}
	return rows
}

// Suppressed returns the total number of entries hidden across rows.
func Suppressed(rows []Row) int {
	n := 0
	for _, r := range rows {
		n += r.Duplicates
	}
	return n
}

// Deduper runs the dedup pass one entry at a time. It holds the current
// run's first entry and comparison key, so each entry is normalised once.
//
// A Deduper is not safe for concurrent use.
type Deduper struct {
	strategy Strategy
	pending  *Row
	key      string
}

// NewDeduper returns a Deduper using s.
func NewDeduper(s Strategy) *Deduper {
	return &Deduper{strategy: s}
}

// Strategy returns the strategy the Deduper was built with.
func (d *Deduper) Strategy() Strategy {
	return d.strategy
}

// Push feeds the next entry. When the entry starts a new run, the run it
// closes is returned with ok set.
func (d *Deduper) Push(e config.LogEntry) (closed Row, ok bool) {
	if d.strategy == StrategyNone {
		prev, had := d.take()
		d.pending = &Row{Entry: e}
		return prev, had
	}

	key := Key(e.Text(), d.strategy)
	if d.pending != nil && key == d.key {
		d.pending.Duplicates++
		return Row{}, false
	}

	prev, had := d.take()
	d.pending = &Row{Entry: e}
	d.key = key
	return prev, had
}

// Pending returns the run currently being accumulated without closing it.
func (d *Deduper) Pending() (Row, bool) {
	if d.pending == nil {
		return Row{}, false
	}
	return *d.pending, true
}

// Flush closes and returns the pending run, leaving the Deduper empty.
func (d *Deduper) Flush() (Row, bool) {
	return d.take()
}

func (d *Deduper) take() (Row, bool) {
	if d.pending == nil {
		return Row{}, false
	}
	row := *d.pending
	d.pending = nil
	d.key = ""
	return row, true
}
