package phasing

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

// DaysPerMonth is the working-day count used to derive a day-rate resource's duration.
const DaysPerMonth = 20

// Amortization is one resource's cost spread over the financial year.
type Amortization struct {
	MonthlyCost    decimal.Decimal
	DurationMonths int
	TotalCost      decimal.Decimal
	StartIndex     int
	Schedule       map[model.MonthKey]decimal.Decimal
	// Clipped is set when the duration runs past the last month of the window.
	Clipped       bool
	ClippedAmount decimal.Decimal
}

// Scheduled returns the sum of the amounts placed in the window.
func (a Amortization) Scheduled() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range a.Schedule {
		sum = sum.Add(v)
	}
	return sum
}

// Amortize spreads r's cost across keys. It returns false when the resource
// lacks a positive rate or quantity. A start month that is unset or outside
// keys schedules from the first month.
func Amortize(r model.Resource, keys []model.MonthKey) (Amortization, bool) {
	var a Amortization
	switch r.RateType {
	case model.RateMonthly:
		if !model.IsPositive(r.MonthlyCost) || r.PlannedMonths <= 0 {
			return a, false
		}
		a.MonthlyCost = r.MonthlyCost.Decimal
		a.DurationMonths = r.PlannedMonths
		a.TotalCost = a.MonthlyCost.Mul(decimal.NewFromInt(int64(a.DurationMonths)))
	case model.RateDay:
		if !model.IsPositive(r.DayRate) || !r.PlannedDays.IsPositive() {
			return a, false
		}
		a.TotalCost = r.DayRate.Decimal.Mul(r.PlannedDays)
		a.DurationMonths = r.PlannedMonths
		if a.DurationMonths <= 0 {
			a.DurationMonths = max(1, int(r.PlannedDays.Div(decimal.NewFromInt(DaysPerMonth)).Ceil().IntPart()))
		}
		// Rounded down so the last month's remainder is never negative.
		a.MonthlyCost = a.TotalCost.Div(decimal.NewFromInt(int64(a.DurationMonths))).RoundFloor(2)
	default:
		return a, false
	}

	a.Schedule = make(map[model.MonthKey]decimal.Decimal)
	if len(keys) == 0 {
		a.Clipped = true
		a.ClippedAmount = a.TotalCost
		return a, true
	}

	if r.StartMonth != "" {
		if idx := IndexOf(keys, r.StartMonth); idx >= 0 {
			a.StartIndex = idx
		}
	}
	last := min(a.StartIndex+a.DurationMonths-1, len(keys)-1)
	included := last - a.StartIndex + 1
	a.Clipped = included < a.DurationMonths

	for i := a.StartIndex; i <= last; i++ {
		amount := a.MonthlyCost
		// A clipped schedule keeps the flat amount; the shortfall is ClippedAmount.
		if i == last && !a.Clipped {
			amount = a.TotalCost.Sub(a.MonthlyCost.Mul(decimal.NewFromInt(int64(included - 1))))
		}
		a.Schedule[keys[i]] = amount
	}
	if a.Clipped {
		a.ClippedAmount = a.TotalCost.Sub(a.Scheduled())
	}
	return a, true
}
