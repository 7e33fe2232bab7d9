package phasing

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

// DefaultTolerance is the absolute drift, in currency units, accepted
// between a line total and its phased sum.
var DefaultTolerance = decimal.NewFromInt(1)

// ReconciliationRow compares a cost line's totals with its monthly entries.
type ReconciliationRow struct {
	LineID         string
	Line           model.CostLine
	CBBudget       model.Money
	CBForecast     model.Money
	PhasedBudget   decimal.Decimal
	PhasedForecast decimal.Decimal
	BudgetDiff     decimal.Decimal
	ForecastDiff   decimal.Decimal
	AllOK          bool
}

// Reconcile checks every line against its phasing with DefaultTolerance.
func Reconcile(lines []model.CostLine, monthly model.MonthlyData, fy model.FYConfig) []ReconciliationRow {
	return ReconcileWithin(DefaultTolerance, lines, monthly, fy)
}

// ReconcileWithin is Reconcile with an explicit tolerance.
func ReconcileWithin(tolerance decimal.Decimal, lines []model.CostLine, monthly model.MonthlyData, fy model.FYConfig) []ReconciliationRow {
	keys := BuildMonthKeys(fy)
	rows := make([]ReconciliationRow, 0, len(lines))
	for _, l := range lines {
		t := LineTotal(monthly, l.ID, keys)
		row := ReconciliationRow{
			LineID:         l.ID,
			Line:           l,
			CBBudget:       l.Budgeted,
			CBForecast:     l.Forecast,
			PhasedBudget:   model.OrZero(t.Budget),
			PhasedForecast: model.OrZero(t.Forecast),
		}
		row.BudgetDiff = row.PhasedBudget.Sub(model.OrZero(l.Budgeted))
		row.ForecastDiff = row.PhasedForecast.Sub(model.OrZero(l.Forecast))
		row.AllOK = within(l.Budgeted, row.BudgetDiff, tolerance) && within(l.Forecast, row.ForecastDiff, tolerance)
		rows = append(rows, row)
	}
	return rows
}

func within(cb model.Money, diff, tolerance decimal.Decimal) bool {
	if !model.IsSetNonZero(cb) {
		return true
	}
	return diff.Abs().LessThanOrEqual(tolerance)
}

// HasTarget reports whether the row has a nonzero line-level budget or forecast.
func (r ReconciliationRow) HasTarget() bool {
	return model.IsSetNonZero(r.CBBudget) || model.IsSetNonZero(r.CBForecast)
}

// DistributeEvenly rewrites a line's monthly budget and forecast so each
// line total is spread over every month of the financial year. Amounts are
// floored to the cent and the remainder goes to the final month. A field
// whose line total is zero or unset is phased as zeros. It is a no-op when
// both totals are zero.
func DistributeEvenly(lineID string, lines []model.CostLine, monthly model.MonthlyData, fy model.FYConfig) model.MonthlyData {
	out := monthly.Clone()
	line, ok := model.LineIndex(lines)[lineID]
	if !ok {
		return out
	}
	if !model.IsSetNonZero(line.Budgeted) && !model.IsSetNonZero(line.Forecast) {
		return out
	}
	keys := BuildMonthKeys(fy)
	if len(keys) == 0 {
		return out
	}
	budget := splitEvenly(model.OrZero(line.Budgeted), len(keys))
	forecast := splitEvenly(model.OrZero(line.Forecast), len(keys))
	for i, mk := range keys {
		e, _ := out.Entry(lineID, mk)
		e.Budget = model.Amount(budget[i])
		e.Forecast = model.Amount(forecast[i])
		out.Set(lineID, mk, e)
	}
	return out
}

// splitEvenly returns n > 0 parts summing exactly to total.
func splitEvenly(total decimal.Decimal, n int) []decimal.Decimal {
	per := total.Div(decimal.NewFromInt(int64(n))).RoundFloor(2)
	parts := make([]decimal.Decimal, n)
	for i := range n - 1 {
		parts[i] = per
	}
	parts[n-1] = total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	return parts
}
