// Package mapping holds the canonical-name vocabulary used to
// standardize filer-specific label text.
package mapping

// Table maps a canonical name to the raw display names filers use for
// it. The vocabulary is data, not code: it ships with a built-in default
// and can be replaced from a YAML or XLSX file.
type Table map[string][]string

// Invert produces the raw-name to canonical-name lookup the reconciler
// consumes. Empty raw names are placeholders and skipped. When two
// canonical names claim the same raw name the last one wins; the table
// is expected not to overlap.
func (t Table) Invert() map[string]string {
	out := make(map[string]string)
	for standard, raws := range t {
		for _, raw := range raws {
			if raw == "" {
				continue
			}
			out[raw] = standard
		}
	}
	return out
}

// Default returns the built-in vocabulary covering the common income
// statement, balance sheet, and segment-axis names.
func Default() Table {
	return Table{
		"Revenue": {
			"Revenue from Contract with Customer, Excluding Assessed Tax",
			"Revenues",
			"Revenue, Net",
			"Sales Revenue Net",
			"Sales Revenue, Net",
		},
		"Cost of Goods Sold": {
			"Cost of Goods Sold",
			"Cost Of Goods Sold",
		},
		"Cost of Services": {
			"Cost of Services",
			"Cost Of Services",
		},
		"Cost of Revenue": {
			"Cost of sales",
			"Cost of Revenue",
			"Cost Of Revenue",
			"Cost of Goods and Services Sold",
			"Cost Of Goods And Services Sold",
		},
		"Operating Expenses": {
			"Operating Expenses",
		},
		"Income Tax Expense": {
			"Income Taxes Paid, Net",
			"Income Taxes Paid Net",
		},
		"Net Income": {
			"Net Income (Loss)",
			"Net income",
			"Net sales",
			"Net Income Loss",
		},
		"Accounts Receivable": {
			"Accounts Receivable Net Current",
			"Accounts Receivable, Net, Current",
		},
		"Accounts Payable": {
			"Accounts Payable Current",
			"Accounts Payable, Current",
		},
		"Geographical": {
			"Statement Geographical [Axis]",
			"Statement, Geographical [Axis]",
			"Geographical [Axis]",
		},
		"Product and Service": {
			"Product Or Service [Axis]",
			"Products and Services [Axis]",
			"Product and Service [Axis]",
		},
		"Business Segment": {
			"Statement Business Segments [Axis]",
			"Segment [Axis]",
		},
	}
}
