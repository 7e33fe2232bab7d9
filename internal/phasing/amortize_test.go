package phasing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

func TestAmortize_DayRateDerivesDuration(t *testing.T) {
	r := model.Resource{
		ID:          "r1",
		RateType:    model.RateDay,
		DayRate:     money(500),
		PlannedDays: decimal.NewFromInt(40),
	}
	a, ok := Amortize(r, BuildMonthKeys(fy2024()))
	if !ok {
		t.Fatal("Amortize returned !ok for costable resource")
	}
	if a.DurationMonths != 2 {
		t.Fatalf("DurationMonths = %d, want 2", a.DurationMonths)
	}
	if !a.MonthlyCost.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("MonthlyCost = %s, want 10000", a.MonthlyCost)
	}
	if !a.Scheduled().Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("schedule sum = %s, want 20000", a.Scheduled())
	}
	if a.Clipped {
		t.Fatal("schedule unexpectedly clipped")
	}
	if len(a.Schedule) != 2 {
		t.Fatalf("schedule months = %d, want 2", len(a.Schedule))
	}
}

func TestAmortize_DayRateExplicitMonthsAbsorbsRounding(t *testing.T) {
	r := model.Resource{
		ID:            "r1",
		RateType:      model.RateDay,
		DayRate:       money(100),
		PlannedDays:   decimal.NewFromInt(1),
		PlannedMonths: 3,
	}
	keys := BuildMonthKeys(fy2024())
	a, ok := Amortize(r, keys)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if !a.MonthlyCost.Equal(dec(t, "33.33")) {
		t.Fatalf("MonthlyCost = %s, want 33.33", a.MonthlyCost)
	}
	if got := a.Schedule[keys[2]]; !got.Equal(dec(t, "33.34")) {
		t.Fatalf("last month = %s, want 33.34", got)
	}
	if !a.Scheduled().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("schedule sum = %s, want 100", a.Scheduled())
	}
}

func TestAmortize_TinyDayRateNeverNegative(t *testing.T) {
	r := model.Resource{
		ID:            "r1",
		RateType:      model.RateDay,
		DayRate:       model.Amount(dec(t, "0.01")),
		PlannedDays:   decimal.NewFromInt(2),
		PlannedMonths: 4,
	}
	keys := BuildMonthKeys(fy2024())
	a, ok := Amortize(r, keys)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	for mk, v := range a.Schedule {
		if v.IsNegative() {
			t.Errorf("month %s = %s, want non-negative", mk, v)
		}
	}
	if got := a.Schedule[keys[3]]; !got.Equal(dec(t, "0.02")) {
		t.Errorf("last month = %s, want 0.02", got)
	}
	if !a.Scheduled().Equal(dec(t, "0.02")) {
		t.Fatalf("schedule sum = %s, want 0.02", a.Scheduled())
	}
}

func TestAmortize_FractionalDaysRoundUpDuration(t *testing.T) {
	r := model.Resource{
		ID:          "r1",
		RateType:    model.RateDay,
		DayRate:     money(400),
		PlannedDays: dec(t, "20.5"),
	}
	a, ok := Amortize(r, BuildMonthKeys(fy2024()))
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if a.DurationMonths != 2 {
		t.Fatalf("DurationMonths = %d, want 2", a.DurationMonths)
	}
	if !a.Scheduled().Equal(decimal.NewFromInt(8200)) {
		t.Fatalf("schedule sum = %s, want 8200", a.Scheduled())
	}
}

func TestAmortize_MonthlyCostFromStartMonth(t *testing.T) {
	keys := BuildMonthKeys(fy2024())
	a, ok := Amortize(monthlyResource("r1", "", 1500, 3, "2024-06"), keys)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if a.StartIndex != 2 {
		t.Fatalf("StartIndex = %d, want 2", a.StartIndex)
	}
	for _, mk := range []model.MonthKey{"2024-06", "2024-07", "2024-08"} {
		if got := a.Schedule[mk]; !got.Equal(decimal.NewFromInt(1500)) {
			t.Fatalf("schedule[%s] = %s, want 1500", mk, got)
		}
	}
	if _, ok := a.Schedule["2024-05"]; ok {
		t.Fatal("month before start scheduled")
	}
}

func TestAmortize_StartOutsideWindowDefaultsToFirstMonth(t *testing.T) {
	keys := BuildMonthKeys(fy2024())
	a, ok := Amortize(monthlyResource("r1", "", 1000, 2, "2023-01"), keys)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if a.StartIndex != 0 {
		t.Fatalf("StartIndex = %d, want 0", a.StartIndex)
	}
	if _, ok := a.Schedule["2024-04"]; !ok {
		t.Fatal("first FY month not scheduled")
	}
}

func TestAmortize_ClippedTailIsUnderAllocated(t *testing.T) {
	keys := BuildMonthKeys(fy2024())
	a, ok := Amortize(monthlyResource("r1", "", 1000, 4, "2025-02"), keys)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if !a.Clipped {
		t.Fatal("Clipped = false, want true")
	}
	if len(a.Schedule) != 2 {
		t.Fatalf("schedule months = %d, want 2", len(a.Schedule))
	}
	if !a.Scheduled().Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("schedule sum = %s, want 2000", a.Scheduled())
	}
	if !a.ClippedAmount.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("ClippedAmount = %s, want 2000", a.ClippedAmount)
	}
}

func TestAmortize_NotCostable(t *testing.T) {
	tests := []struct {
		name string
		r    model.Resource
	}{
		{"monthly without cost", model.Resource{RateType: model.RateMonthly, PlannedMonths: 3}},
		{"monthly without months", model.Resource{RateType: model.RateMonthly, MonthlyCost: money(100)}},
		{"day without rate", model.Resource{RateType: model.RateDay, PlannedDays: decimal.NewFromInt(5)}},
		{"day without days", model.Resource{RateType: model.RateDay, DayRate: money(500)}},
		{"zero rate", model.Resource{RateType: model.RateDay, DayRate: money(0), PlannedDays: decimal.NewFromInt(5)}},
		{"unknown rate type", model.Resource{RateType: "hourly", DayRate: money(500), PlannedDays: decimal.NewFromInt(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Amortize(tt.r, BuildMonthKeys(fy2024())); ok {
				t.Fatal("Amortize returned ok for non-costable resource")
			}
			if tt.r.Costable() {
				t.Fatal("Costable() = true, want false")
			}
		})
	}
}

func TestAmortize_EmptyWindow(t *testing.T) {
	a, ok := Amortize(monthlyResource("r1", "", 1000, 2, ""), nil)
	if !ok {
		t.Fatal("Amortize returned !ok")
	}
	if len(a.Schedule) != 0 {
		t.Fatalf("schedule = %v, want empty", a.Schedule)
	}
}
