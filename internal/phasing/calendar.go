// Package phasing turns cost lines and resources into a month-by-month plan
// and derives totals and reconciliation reports from it. Every function is
// pure: inputs are never mutated and results are fresh values.
package phasing

import (
	"fmt"

	"github.com/theirongolddev/finphase/internal/model"
)

// BuildMonthKeys returns the financial year's months in order.
// An invalid config yields no months.
func BuildMonthKeys(cfg model.FYConfig) []model.MonthKey {
	if !cfg.Valid() {
		return []model.MonthKey{}
	}
	keys := make([]model.MonthKey, 0, cfg.NumMonths)
	year, month := cfg.StartYear, cfg.StartMonth
	for i := 0; i < cfg.NumMonths; i++ {
		keys = append(keys, model.MonthKeyOf(year, month))
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return keys
}

// BuildQuarters chunks keys into groups of up to three, labelled with
// fiscal-year naming relative to fyStartMonth.
func BuildQuarters(keys []model.MonthKey, fyStartMonth int) []model.Quarter {
	quarters := make([]model.Quarter, 0, (len(keys)+2)/3)
	for i := 0; i < len(keys); i += 3 {
		end := min(i+3, len(keys))
		months := make([]model.MonthKey, end-i)
		copy(months, keys[i:end])

		first := months[0]
		fy := first.Year()
		if first.Month() < fyStartMonth {
			fy--
		}
		quarters = append(quarters, model.Quarter{
			Label:  fmt.Sprintf("Q%d FY%d/%02d", i/3+1, fy, (fy+1)%100),
			Months: months,
		})
	}
	return quarters
}

// IndexOf returns the position of mk in keys, or -1.
func IndexOf(keys []model.MonthKey, mk model.MonthKey) int {
	for i, k := range keys {
		if k == mk {
			return i
		}
	}
	return -1
}
