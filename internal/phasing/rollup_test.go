package phasing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/theirongolddev/finphase/internal/model"
)

func peopleLine(id string, override bool) model.CostLine {
	return model.CostLine{ID: id, Category: model.CategoryPeople, Override: override}
}

func TestRollup_TwoResourcesSameLine(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false)}
	resources := []model.Resource{
		monthlyResource("a", "people", 1000, 3, "2024-04"),
		monthlyResource("b", "people", 2000, 2, "2024-04"),
	}
	out := Rollup(resources, lines, model.MonthlyData{}, fy2024())

	for mk, want := range map[model.MonthKey]string{"2024-04": "3000", "2024-05": "3000", "2024-06": "1000"} {
		e, ok := out.Entry("people", mk)
		if !ok {
			t.Fatalf("entry %s missing", mk)
		}
		assertAmount(t, "forecast "+string(mk), e.Forecast, want)
		assertAmount(t, "budget "+string(mk), e.Budget, want)
	}
	if _, ok := out.Entry("people", "2024-07"); ok {
		t.Fatal("entry created for month without contribution")
	}
}

func TestRollup_NeverWritesOverrideLine(t *testing.T) {
	lines := []model.CostLine{peopleLine("manual", true), peopleLine("auto", false)}
	existing := model.MonthlyData{}
	existing.Set("manual", "2024-04", model.MonthlyEntry{Budget: money(7), Forecast: money(9)})
	resources := []model.Resource{
		monthlyResource("a", "manual", 1000, 12, ""),
		monthlyResource("b", "auto", 500, 1, ""),
	}

	out := Rollup(resources, lines, existing, fy2024())
	if diff := cmp.Diff(existing["manual"], out["manual"], decimalComparer); diff != "" {
		t.Fatalf("override line changed (-want +got):\n%s", diff)
	}
	if len(out["manual"]) != 1 {
		t.Fatalf("override line has %d entries, want 1", len(out["manual"]))
	}
	if _, ok := out.Entry("auto", "2024-04"); !ok {
		t.Fatal("non-override line not rolled up")
	}
}

func TestRollup_PreservesIndependentFields(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false)}
	existing := model.MonthlyData{}
	existing.Set("people", "2024-04", model.MonthlyEntry{
		Budget:       money(800),
		Actual:       money(950),
		Forecast:     money(100),
		CustomerRate: money(1500),
		Locked:       true,
	})
	out := Rollup([]model.Resource{monthlyResource("a", "people", 1000, 1, "")}, lines, existing, fy2024())

	e, _ := out.Entry("people", "2024-04")
	assertAmount(t, "forecast", e.Forecast, "1000")
	assertAmount(t, "budget", e.Budget, "800")
	assertAmount(t, "actual", e.Actual, "950")
	assertAmount(t, "customer rate", e.CustomerRate, "1500")
	if !e.Locked {
		t.Fatal("locked flag lost")
	}

	orig, _ := existing.Entry("people", "2024-04")
	assertAmount(t, "input forecast", orig.Forecast, "100")
}

func TestRollup_FillsZeroBudget(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false)}
	existing := model.MonthlyData{}
	existing.Set("people", "2024-04", model.MonthlyEntry{Budget: money(0)})
	out := Rollup([]model.Resource{monthlyResource("a", "people", 1000, 1, "")}, lines, existing, fy2024())
	e, _ := out.Entry("people", "2024-04")
	assertAmount(t, "budget", e.Budget, "1000")
}

func TestRollup_SkipsUnlinkedAndDanglingResources(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false)}
	resources := []model.Resource{
		monthlyResource("unlinked", "", 1000, 2, ""),
		monthlyResource("dangling", "gone", 1000, 2, ""),
		{ID: "broken", RateType: model.RateDay, CostLineID: "people"},
	}
	existing := model.MonthlyData{}
	existing.Set("other", "2024-04", model.MonthlyEntry{Actual: money(5)})

	out := Rollup(resources, lines, existing, fy2024())
	if !out.Equal(existing) {
		t.Fatalf("rollup changed data with no contributing resources: %v", out)
	}
	if _, ok := out["gone"]; ok {
		t.Fatal("entries created for unknown line")
	}
}

func TestRollup_Idempotent(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false), peopleLine("kit", false)}
	resources := []model.Resource{
		monthlyResource("a", "people", 1000, 3, "2024-05"),
		{ID: "b", RateType: model.RateDay, DayRate: money(333), PlannedDays: dec(t, "17.5"), PlannedMonths: 4, CostLineID: "people"},
		monthlyResource("c", "kit", 250, 20, "2025-01"),
	}
	existing := model.MonthlyData{}
	existing.Set("people", "2024-05", model.MonthlyEntry{Actual: money(1200)})

	once := Rollup(resources, lines, existing, fy2024())
	twice := Rollup(resources, lines, once, fy2024())
	if diff := cmp.Diff(once, twice, decimalComparer); diff != "" {
		t.Fatalf("second rollup drifted (-once +twice):\n%s", diff)
	}
}

func TestRollup_InvalidFYIsNoOp(t *testing.T) {
	lines := []model.CostLine{peopleLine("people", false)}
	out := Rollup([]model.Resource{monthlyResource("a", "people", 1000, 3, "")}, lines, nil, model.FYConfig{})
	if len(out) != 0 {
		t.Fatalf("rollup with no months produced %v", out)
	}
}
