package dedup

import (
	"reflect"
	"testing"
)

func TestDeduperMatchesDedup(t *testing.T) {
	inputs := [][]string{
		{"a", "a", "b", "a"},
		mixed,
		{"only"},
		{"n=1", "n=2", "n=3", "m", "m"},
	}

	for _, texts := range inputs {
		for _, s := range Strategies() {
			in := entries(texts...)

			d := NewDeduper(s)
			var got []Row
			for _, e := range in {
				if row, ok := d.Push(e); ok {
					got = append(got, row)
				}
			}
			if row, ok := d.Flush(); ok {
				got = append(got, row)
			}

			if want := Dedup(in, s); !reflect.DeepEqual(got, want) {
				t.Errorf("%s over %q:\n got  %+v\n want %+v", s, texts, got, want)
			}
		}
	}
}

func TestDeduperPending(t *testing.T) {
	d := NewDeduper(StrategyExact)
	if _, ok := d.Pending(); ok {
		t.Fatal("new Deduper should have nothing pending")
	}

	in := entries("x", "x", "x")
	for _, e := range in {
		if _, ok := d.Push(e); ok {
			t.Fatal("a run of identical entries should not close")
		}
	}

	row, ok := d.Pending()
	if !ok || row.Duplicates != 2 {
		t.Fatalf("Pending() = %+v, %v; want 2 duplicates", row, ok)
	}

	if _, ok := d.Flush(); !ok {
		t.Fatal("Flush() should return the pending run")
	}
	if _, ok := d.Flush(); ok {
		t.Error("second Flush() should be empty")
	}
	if d.Strategy() != StrategyExact {
		t.Errorf("Strategy() = %s", d.Strategy())
	}
}
