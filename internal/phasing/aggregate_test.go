package phasing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

func sampleMonthly() model.MonthlyData {
	m := model.MonthlyData{}
	m.Set("a", "2024-04", model.MonthlyEntry{Budget: money(100), Forecast: money(120), CustomerRate: money(200)})
	m.Set("b", "2024-04", model.MonthlyEntry{Budget: money(50), Actual: money(40)})
	m.Set("a", "2024-05", model.MonthlyEntry{Budget: money(100), Forecast: money(90)})
	m.Set("b", "2024-06", model.MonthlyEntry{Forecast: money(10)})
	return m
}

func TestMonthTotal(t *testing.T) {
	tot := MonthTotal(sampleMonthly(), "2024-04")
	assertAmount(t, "budget", tot.Budget, "150")
	assertAmount(t, "forecast", tot.Forecast, "120")
	assertAmount(t, "actual", tot.Actual, "40")
	assertAmount(t, "customer rate", tot.CustomerRate, "200")

	empty := MonthTotal(sampleMonthly(), "2024-09")
	if empty.Budget.Valid || empty.Forecast.Valid {
		t.Fatalf("empty month totals should be unset: %+v", empty)
	}
}

func TestQuarterAndGrandTotal(t *testing.T) {
	keys := BuildMonthKeys(fy2024())
	qs := BuildQuarters(keys, 4)
	q := QuarterTotal(sampleMonthly(), qs[0])
	assertAmount(t, "quarter budget", q.Budget, "250")
	assertAmount(t, "quarter forecast", q.Forecast, "220")

	g := GrandTotal(sampleMonthly(), keys)
	assertAmount(t, "grand forecast", g.Forecast, "220")
	if q2 := QuarterTotal(sampleMonthly(), qs[1]); q2.Forecast.Valid {
		t.Fatal("second quarter should have no forecast")
	}
}

func TestForecastMovement(t *testing.T) {
	keys := BuildMonthKeys(fy2024())
	m := sampleMonthly()
	if got := ForecastMovement(m, keys, "2024-04"); got.Valid {
		t.Fatalf("first month movement = %s, want unset", got.Decimal)
	}
	assertAmount(t, "May movement", ForecastMovement(m, keys, "2024-05"), "-30")
	assertAmount(t, "June movement", ForecastMovement(m, keys, "2024-06"), "-80")
	assertAmount(t, "July movement", ForecastMovement(m, keys, "2024-07"), "-10")
	if got := ForecastMovement(m, keys, "2030-01"); got.Valid {
		t.Fatal("movement outside window should be unset")
	}
}

func TestMargin(t *testing.T) {
	tests := []struct {
		name    string
		revenue int64
		cost    int64
		want    string
	}{
		{"profit", 200, 150, "25"},
		{"loss", 100, 130, "-30"},
		{"zero revenue", 0, 10, ""},
		{"negative revenue", -5, 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Margin(decimal.NewFromInt(tt.revenue), decimal.NewFromInt(tt.cost))
			if tt.want == "" {
				if got.Valid {
					t.Fatalf("Margin = %s, want unset", got.Decimal)
				}
				return
			}
			assertAmount(t, "margin", got, tt.want)
		})
	}
}

func TestUtilization(t *testing.T) {
	assertAmount(t, "utilization", Utilization(money(50), money(200)), "25")
	if got := Utilization(money(50), money(0)); got.Valid {
		t.Fatal("utilization against zero budget should be unset")
	}
	if got := Utilization(money(50), model.Unset); got.Valid {
		t.Fatal("utilization against unset budget should be unset")
	}
}

func TestOverrun(t *testing.T) {
	r, ok := Overrun(decimal.NewFromInt(120), decimal.NewFromInt(100))
	if !ok || !r.Equal(dec(t, "0.2")) {
		t.Fatalf("Overrun = %s/%v, want 0.2/true", r, ok)
	}
	if _, ok := Overrun(decimal.NewFromInt(100), decimal.NewFromInt(100)); ok {
		t.Fatal("equal forecast is not an overrun")
	}
	if _, ok := Overrun(decimal.NewFromInt(10), decimal.Zero); ok {
		t.Fatal("zero budget cannot overrun")
	}
}
