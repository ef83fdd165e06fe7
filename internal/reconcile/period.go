package reconcile

import (
	"math"
	"time"
)

// monthsEndedLabels names the standard fiscal reporting periods. Other
// durations get no label.
var monthsEndedLabels = map[int]string{
	3:  "Three Months Ended",
	6:  "Six Months Ended",
	9:  "Nine Months Ended",
	12: "Twelve Months Ended",
}

// DerivePeriod computes each duration row's length in months and labels
// the standard fiscal periods. Months are derived as round(days / 30.25),
// which absorbs the 90-to-92-day spread of real fiscal quarters.
func DerivePeriod(rows []Row) []Row {
	for i := range rows {
		r := &rows[i]
		if r.StartDate == "" || r.EndDate == "" {
			continue
		}
		start, err1 := time.Parse("2006-01-02", r.StartDate)
		end, err2 := time.Parse("2006-01-02", r.EndDate)
		if err1 != nil || err2 != nil {
			continue
		}
		days := end.Sub(start).Hours() / 24
		r.PeriodMonths = int(math.Round(days / 30.25))
		r.MonthsEnded = monthsEndedLabels[r.PeriodMonths]
	}
	return rows
}
