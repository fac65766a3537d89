package domain

import "sort"

// WatchEntry is the per-symbol scheduling configuration: the fetch
// interval plus any coarser intervals derived by aggregation.
type WatchEntry struct {
	Interval     Interval
	Aggregations []Interval
}

// WatchList maps symbols to their watch configuration. It is built once
// at setup and treated as read-only afterwards.
type WatchList map[string]WatchEntry

// Validate checks every entry's intervals.
func (w WatchList) Validate() error {
	for _, entry := range w {
		if err := entry.Interval.Validate(); err != nil {
			return err
		}
		for _, agg := range entry.Aggregations {
			if err := agg.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// DistinctIntervals returns the distinct fetch intervals across all
// entries, sorted from finest to coarsest.
func (w WatchList) DistinctIntervals() []Interval {
	seen := make(map[Interval]struct{})
	var out []Interval
	for _, entry := range w {
		if _, ok := seen[entry.Interval]; ok {
			continue
		}
		seen[entry.Interval] = struct{}{}
		out = append(out, entry.Interval)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SymbolsFor returns the symbols watched at the given fetch interval,
// sorted for deterministic iteration.
func (w WatchList) SymbolsFor(iv Interval) []string {
	var out []string
	for sym, entry := range w {
		if entry.Interval == iv {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
