package phasing

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/finphase/internal/model"
)

func TestDistributeEvenly_ReproducesTotalsToTheCent(t *testing.T) {
	totals := []string{"100", "1000000", "12345.67", "0.05", "99999.99", "7"}
	for _, n := range []int{1, 3, 7, 12, 13} {
		for _, total := range totals {
			t.Run(fmt.Sprintf("%s over %d", total, n), func(t *testing.T) {
				fy := model.FYConfig{StartMonth: 1, StartYear: 2025, NumMonths: n}
				line := model.CostLine{
					ID:       "l",
					Category: model.CategoryOther,
					Budgeted: model.Amount(dec(t, total)),
					Forecast: model.Amount(dec(t, total).Add(dec(t, "0.01"))),
				}
				out := DistributeEvenly("l", []model.CostLine{line}, model.MonthlyData{}, fy)
				sum := LineTotal(out, "l", BuildMonthKeys(fy))
				assertAmount(t, "phased budget", sum.Budget, line.Budgeted.Decimal.String())
				assertAmount(t, "phased forecast", sum.Forecast, line.Forecast.Decimal.String())

				rows := Reconcile([]model.CostLine{line}, out, fy)
				if !rows[0].AllOK {
					t.Fatalf("reconcile after distribute: %+v", rows[0])
				}
			})
		}
	}
}

func TestDistributeEvenly_RemainderOnFinalMonth(t *testing.T) {
	fy := model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 3}
	line := model.CostLine{ID: "l", Category: model.CategoryOther, Budgeted: money(100)}
	out := DistributeEvenly("l", []model.CostLine{line}, nil, fy)

	keys := BuildMonthKeys(fy)
	for i, want := range []string{"33.33", "33.33", "33.34"} {
		e, _ := out.Entry("l", keys[i])
		assertAmount(t, "budget "+string(keys[i]), e.Budget, want)
		assertAmount(t, "forecast "+string(keys[i]), e.Forecast, "0")
	}
}

func TestDistributeEvenly_TouchesOnlyBudgetAndForecast(t *testing.T) {
	fy := model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 2}
	existing := model.MonthlyData{}
	existing.Set("l", "2024-04", model.MonthlyEntry{Actual: money(40), CustomerRate: money(90), Locked: true, Forecast: money(3)})
	line := model.CostLine{ID: "l", Category: model.CategoryOther, Budgeted: money(200)}

	out := DistributeEvenly("l", []model.CostLine{line}, existing, fy)
	e, _ := out.Entry("l", "2024-04")
	assertAmount(t, "budget", e.Budget, "100")
	assertAmount(t, "actual", e.Actual, "40")
	assertAmount(t, "customer rate", e.CustomerRate, "90")
	assertAmount(t, "forecast", e.Forecast, "0")
	if !e.Locked {
		t.Fatal("locked flag lost")
	}
}

func TestDistributeEvenly_ZeroTotalClearsStalePhasing(t *testing.T) {
	fy := model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 2}
	existing := model.MonthlyData{}
	existing.Set("l", "2024-04", model.MonthlyEntry{Forecast: money(500)})
	line := model.CostLine{ID: "l", Category: model.CategoryOther, Budgeted: money(200), Forecast: money(0)}

	out := DistributeEvenly("l", []model.CostLine{line}, existing, fy)
	sum := LineTotal(out, "l", BuildMonthKeys(fy))
	assertAmount(t, "phased budget", sum.Budget, "200")
	assertAmount(t, "phased forecast", sum.Forecast, "0")
	if rows := Reconcile([]model.CostLine{line}, out, fy); !rows[0].AllOK {
		t.Fatalf("reconcile after distribute: %+v", rows[0])
	}
}

func TestDistributeEvenly_NoOps(t *testing.T) {
	existing := model.MonthlyData{}
	existing.Set("l", "2024-04", model.MonthlyEntry{Budget: money(5)})

	tests := []struct {
		name   string
		lineID string
		lines  []model.CostLine
		fy     model.FYConfig
	}{
		{"both totals zero", "l", []model.CostLine{{ID: "l", Budgeted: money(0)}}, fy2024()},
		{"both totals unset", "l", []model.CostLine{{ID: "l"}}, fy2024()},
		{"unknown line", "missing", []model.CostLine{{ID: "l", Budgeted: money(10)}}, fy2024()},
		{"no months", "l", []model.CostLine{{ID: "l", Budgeted: money(10)}}, model.FYConfig{StartMonth: 4, NumMonths: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DistributeEvenly(tt.lineID, tt.lines, existing, tt.fy)
			if !out.Equal(existing) {
				t.Fatalf("DistributeEvenly changed data: %v", out)
			}
		})
	}
}

func TestReconcile_Tolerance(t *testing.T) {
	fy := model.FYConfig{StartMonth: 1, StartYear: 2025, NumMonths: 2}
	monthly := model.MonthlyData{}
	monthly.Set("ok", "2025-01", model.MonthlyEntry{Budget: money(500), Forecast: money(600)})
	monthly.Set("ok", "2025-02", model.MonthlyEntry{Budget: model.Amount(dec(t, "500.99"))})
	monthly.Set("drift", "2025-01", model.MonthlyEntry{Budget: money(400)})
	monthly.Set("drift", "2025-06", model.MonthlyEntry{Budget: money(600)})

	lines := []model.CostLine{
		{ID: "ok", Budgeted: money(1000), Forecast: money(600)},
		{ID: "drift", Budgeted: money(1000)},
		{ID: "empty", Budgeted: money(0)},
		{ID: "unset"},
	}
	rows := Reconcile(lines, monthly, fy)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if !rows[0].AllOK {
		t.Fatalf("ok line flagged: %+v", rows[0])
	}
	if rows[1].AllOK {
		t.Fatal("drifted line reported OK")
	}
	if !rows[1].BudgetDiff.Equal(dec(t, "-600")) {
		t.Fatalf("BudgetDiff = %s, want -600 (entries outside the FY ignored)", rows[1].BudgetDiff)
	}
	if !rows[2].AllOK || !rows[3].AllOK {
		t.Fatal("lines without targets must reconcile")
	}
	if rows[2].HasTarget() || rows[3].HasTarget() {
		t.Fatal("HasTarget true for zero/unset totals")
	}
}
