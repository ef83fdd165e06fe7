// Package reconcile joins extracted facts with their contexts and labels
// and normalizes the result into reporting rows.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/sells-group/edgar-sync/internal/xbrl"
)

// Row is one fact joined with its context and display label. Join fields
// stay empty when the fact had no matching context or label.
type Row struct {
	AccessionNumber string

	FactName string
	FactID   string
	UnitRef  string
	Decimals string
	Value    string
	// Numeric is set by CleanValues when Value parses as a number.
	Numeric *float64

	ContextID string
	Entity    string
	StartDate string
	EndDate   string
	Instant   string
	Segment   []xbrl.SegmentMember

	LabelText string

	// Derived columns.
	SegmentAxis  string
	SegmentValue string
	PeriodMonths int
	MonthsEnded  string
	StandardName string
}

// MergeError reports a merge that could not produce any rows.
type MergeError struct {
	AccessionNumber string
	Reason          string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("reconcile: merge %s: %s", e.AccessionNumber, e.Reason)
}

// Merge left-joins facts against contexts and label resources. Every fact
// yields exactly one row: contexts join on ContextRef, first-seen context
// winning on duplicate IDs; labels join on the lowercased fact name
// against the normalized key, "label"-role resources only. Contexts
// without a usable period are left out of the join index.
func Merge(accession string, facts []xbrl.Fact, contexts []xbrl.Context, labels []xbrl.Label) ([]Row, error) {
	if len(facts) == 0 {
		return nil, &MergeError{AccessionNumber: accession, Reason: "no facts to merge"}
	}

	ctxByID := make(map[string]xbrl.Context, len(contexts))
	for _, c := range contexts {
		if !c.Usable() {
			continue
		}
		if _, seen := ctxByID[c.ID]; seen {
			continue
		}
		ctxByID[c.ID] = c
	}

	labelByKey := make(map[string]string, len(labels))
	for _, l := range labels {
		if l.Role != "label" {
			continue
		}
		if _, seen := labelByKey[l.Key]; seen {
			continue
		}
		labelByKey[l.Key] = l.Text
	}

	rows := make([]Row, 0, len(facts))
	for _, f := range facts {
		row := Row{
			AccessionNumber: accession,
			FactName:        f.Name,
			FactID:          f.ID,
			UnitRef:         f.UnitRef,
			Decimals:        f.Decimals,
			Value:           f.Value,
		}
		if c, ok := ctxByID[f.ContextRef]; ok {
			row.ContextID = c.ID
			row.Entity = c.Entity
			row.StartDate = c.StartDate
			row.EndDate = c.EndDate
			row.Instant = c.Instant
			row.Segment = c.Segment
		}
		row.LabelText = labelByKey[strings.ToLower(f.Name)]
		rows = append(rows, row)
	}
	return rows, nil
}

// FilterLabeled separates rows that resolved a display label from those
// that did not. Unlabeled rows are kept for diagnostics, not output.
func FilterLabeled(rows []Row) (kept, dropped []Row) {
	for _, r := range rows {
		if r.LabelText == "" {
			dropped = append(dropped, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

// flattenSegment renders segment members into a stable dedup key part.
func flattenSegment(segment []xbrl.SegmentMember) string {
	if len(segment) == 0 {
		return ""
	}
	parts := make([]string, len(segment))
	for i, m := range segment {
		parts[i] = m.Dimension + "=" + m.Member
	}
	return strings.Join(parts, ";")
}
