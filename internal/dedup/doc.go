// Package dedup collapses runs of adjacent, equivalent log entries.
//
// Equivalence is decided by a Strategy:
//
//	none       every entry is kept
//	exact      texts are byte-for-byte equal
//	numbers    texts are equal once numbers like 42 or 1.25 are erased
//	signature  texts share the same punctuation and whitespace skeleton
//
// Only neighbours are compared, so a repeated line separated by a different
// one starts a new run:
//
//	rows := dedup.Dedup(entries, dedup.StrategyExact)
//	for _, r := range rows {
//	    fmt.Println(r.Entry.Text(), r.Duplicates)
//	}
//
// Deduper offers the same pass incrementally for live streams.
package dedup
