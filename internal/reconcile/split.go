package reconcile

import "sort"

// dedupKey identifies a fact across filings. The same value reported in
// consecutive filings collapses to one row.
type dedupKey struct {
	label   string
	segment string
	start   string
	end     string
	instant string
	value   string
}

func keyOf(r Row) dedupKey {
	return dedupKey{
		label:   r.LabelText,
		segment: flattenSegment(r.Segment),
		start:   r.StartDate,
		end:     r.EndDate,
		instant: r.Instant,
		value:   r.Value,
	}
}

// Deduplicate collapses rows sharing a dedup key, keeping the last
// occurrence: later filings supersede earlier ones. Relative order of
// the surviving rows is preserved.
func Deduplicate(rows []Row) []Row {
	last := make(map[dedupKey]int, len(rows))
	for i, r := range rows {
		last[keyOf(r)] = i
	}

	out := make([]Row, 0, len(last))
	for i, r := range rows {
		if last[keyOf(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

// SplitByShape separates duration rows (start and end dates present) from
// instant rows, each sorted by label, segment, and date for stable output.
func SplitByShape(rows []Row) (durations, instants []Row) {
	for _, r := range rows {
		switch {
		case r.StartDate != "" && r.EndDate != "":
			durations = append(durations, r)
		case r.Instant != "":
			instants = append(instants, r)
		}
	}

	sort.SliceStable(durations, func(i, j int) bool {
		a, b := durations[i], durations[j]
		if a.LabelText != b.LabelText {
			return a.LabelText < b.LabelText
		}
		if sa, sb := flattenSegment(a.Segment), flattenSegment(b.Segment); sa != sb {
			return sa < sb
		}
		if a.StartDate != b.StartDate {
			return a.StartDate < b.StartDate
		}
		return a.EndDate < b.EndDate
	})

	sort.SliceStable(instants, func(i, j int) bool {
		a, b := instants[i], instants[j]
		if a.LabelText != b.LabelText {
			return a.LabelText < b.LabelText
		}
		if sa, sb := flattenSegment(a.Segment), flattenSegment(b.Segment); sa != sb {
			return sa < sb
		}
		return a.Instant < b.Instant
	})

	return durations, instants
}
