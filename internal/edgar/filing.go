package edgar

import (
	"sort"
	"strings"
	"time"
)

// Filing identifies one regulatory document. The accession number is the
// archive's globally unique key for the submission. Filings are built once
// from the retrieved history and never mutated afterwards.
type Filing struct {
	AccessionNumber string
	CIK             string
	Form            string
	FilingDate      time.Time
	ReportDate      time.Time
	PrimaryDocument string
	Size            int
	IsXBRL          bool

	// FolderURL is the archive directory holding every document of the
	// submission; DocumentURL is the full submission text file inside it.
	FolderURL   string
	DocumentURL string
}

// SearchOpts filters a filing list. Zero values mean "no constraint".
type SearchOpts struct {
	// Form matches the form type case-insensitively (e.g. "10-K").
	Form string

	// Start and End bound the filing date. When both are set the range is
	// closed; a single bound is half-open.
	Start time.Time
	End   time.Time

	// Extra matches named columns verbatim (e.g. "accessionNumber").
	Extra map[string]string
}

// Search applies opts to an ordered filing list, preserving order. With no
// constraints the input is returned unchanged, so on a filing-date
// descending list the first match is always the latest filing.
func Search(filings []Filing, opts SearchOpts) []Filing {
	if opts.Form == "" && opts.Start.IsZero() && opts.End.IsZero() && len(opts.Extra) == 0 {
		return filings
	}

	var out []Filing
	for _, f := range filings {
		if opts.Form != "" && !strings.EqualFold(f.Form, opts.Form) {
			continue
		}
		if !opts.Start.IsZero() && f.FilingDate.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && f.FilingDate.After(opts.End) {
			continue
		}
		if !matchExtra(f, opts.Extra) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Latest returns the most recent filing matching opts, or false when none
// match.
func Latest(filings []Filing, opts SearchOpts) (Filing, bool) {
	matches := Search(filings, opts)
	if len(matches) == 0 {
		return Filing{}, false
	}
	return matches[0], true
}

func matchExtra(f Filing, extra map[string]string) bool {
	for col, want := range extra {
		if columnValue(f, col) != want {
			return false
		}
	}
	return true
}

func columnValue(f Filing, col string) string {
	switch col {
	case "accessionNumber":
		return f.AccessionNumber
	case "cik":
		return f.CIK
	case "form":
		return f.Form
	case "primaryDocument":
		return f.PrimaryDocument
	case "filingDate":
		return f.FilingDate.Format("2006-01-02")
	case "reportDate":
		return f.ReportDate.Format("2006-01-02")
	default:
		return ""
	}
}

// sortByFilingDateDesc orders filings most recent first. The sort is
// stable so the archive's own ordering breaks ties.
func sortByFilingDateDesc(filings []Filing) {
	sort.SliceStable(filings, func(i, j int) bool {
		return filings[i].FilingDate.After(filings[j].FilingDate)
	})
}
