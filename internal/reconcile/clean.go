package reconcile

import (
	"regexp"
	"strconv"
)

// numericValue matches plain decimal numbers, optionally signed. Scientific
// notation, thousands separators, and parenthesized negatives stay textual.
var numericValue = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// CleanValues parses numeric fact values into Numeric. A value qualifies
// only when it is a plain decimal number; empty values and a bare "-"
// placeholder stay opaque text.
func CleanValues(rows []Row) []Row {
	for i := range rows {
		v := rows[i].Value
		if v == "" || v == "-" || !numericValue.MatchString(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		rows[i].Numeric = &f
	}
	return rows
}
