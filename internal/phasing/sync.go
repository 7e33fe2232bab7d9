package phasing

import "github.com/theirongolddev/finphase/internal/model"

// Merge applies proposals to a copy of monthly. Actual, customer rate and
// the locked flag of existing cells are preserved, and cells without a
// proposal are kept as they are.
func Merge(monthly model.MonthlyData, proposals Proposals) model.MonthlyData {
	out := monthly.Clone()
	for lineID, months := range proposals {
		for mk, p := range months {
			e, _ := out.Entry(lineID, mk)
			e.Forecast = model.Amount(p.Forecast)
			if p.Budget.Valid {
				e.Budget = p.Budget
			}
			out.Set(lineID, mk, e)
		}
	}
	return out
}
