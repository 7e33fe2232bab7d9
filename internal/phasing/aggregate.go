package phasing

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Totals is a per-field sum of monthly entries. A field stays unset when
// none of the summed entries had it set.
type Totals struct {
	Budget       model.Money
	Actual       model.Money
	Forecast     model.Money
	CustomerRate model.Money
}

// Add accumulates an entry.
func (t Totals) Add(e model.MonthlyEntry) Totals {
	t.Budget = addMoney(t.Budget, e.Budget)
	t.Actual = addMoney(t.Actual, e.Actual)
	t.Forecast = addMoney(t.Forecast, e.Forecast)
	t.CustomerRate = addMoney(t.CustomerRate, e.CustomerRate)
	return t
}

// Plus combines two totals.
func (t Totals) Plus(o Totals) Totals {
	return t.Add(model.MonthlyEntry{
		Budget:       o.Budget,
		Actual:       o.Actual,
		Forecast:     o.Forecast,
		CustomerRate: o.CustomerRate,
	})
}

func addMoney(a, b model.Money) model.Money {
	switch {
	case !b.Valid:
		return a
	case !a.Valid:
		return b
	}
	return model.Amount(a.Decimal.Add(b.Decimal))
}

// MonthTotal sums every line's entry for mk.
func MonthTotal(monthly model.MonthlyData, mk model.MonthKey) Totals {
	var t Totals
	for _, months := range monthly {
		if e, ok := months[mk]; ok {
			t = t.Add(e)
		}
	}
	return t
}

// QuarterTotal sums the month totals of q.
func QuarterTotal(monthly model.MonthlyData, q model.Quarter) Totals {
	return RangeTotal(monthly, q.Months)
}

// RangeTotal sums the month totals of keys.
func RangeTotal(monthly model.MonthlyData, keys []model.MonthKey) Totals {
	var t Totals
	for _, mk := range keys {
		t = t.Plus(MonthTotal(monthly, mk))
	}
	return t
}

// GrandTotal sums across the whole visible window.
func GrandTotal(monthly model.MonthlyData, keys []model.MonthKey) Totals {
	return RangeTotal(monthly, keys)
}

// LineTotal sums one line's entries over keys. Entries outside keys are ignored.
func LineTotal(monthly model.MonthlyData, lineID string, keys []model.MonthKey) Totals {
	var t Totals
	months := monthly[lineID]
	for _, mk := range keys {
		if e, ok := months[mk]; ok {
			t = t.Add(e)
		}
	}
	return t
}

// ForecastMovement is the change in total forecast from the previous visible
// month. It is unset for the first month and for months outside keys.
func ForecastMovement(monthly model.MonthlyData, keys []model.MonthKey, mk model.MonthKey) model.Money {
	idx := IndexOf(keys, mk)
	if idx <= 0 {
		return model.Unset
	}
	cur := model.OrZero(MonthTotal(monthly, mk).Forecast)
	prev := model.OrZero(MonthTotal(monthly, keys[idx-1]).Forecast)
	return model.Amount(cur.Sub(prev))
}

// Margin returns (revenue-cost)/revenue as a percentage, or unset when
// revenue is not positive.
func Margin(revenue, cost decimal.Decimal) model.Money {
	if !revenue.IsPositive() {
		return model.Unset
	}
	return model.Amount(revenue.Sub(cost).Div(revenue).Mul(hundred))
}

// Utilization returns actual as a percentage of budget, or unset when the
// budget is unset or not positive.
func Utilization(actual, budget model.Money) model.Money {
	if !model.IsPositive(budget) {
		return model.Unset
	}
	return model.Amount(model.OrZero(actual).Div(budget.Decimal).Mul(hundred))
}

// Overrun returns (forecast-budget)/budget when budget is positive and
// forecast exceeds it.
func Overrun(forecast, budget decimal.Decimal) (decimal.Decimal, bool) {
	if !budget.IsPositive() || !forecast.GreaterThan(budget) {
		return decimal.Zero, false
	}
	return forecast.Sub(budget).Div(budget), true
}
