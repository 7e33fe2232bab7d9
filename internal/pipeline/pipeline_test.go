package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/plan"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/store"
)

var (
	fy2024   = model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 12}
	testOpts = source.Options{DefaultFY: fy2024}
	fixedNow = time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
)

func testEngine() *signals.Engine {
	return signals.NewEngine(signals.DefaultConfig(), func() time.Time { return fixedNow })
}

func money(s string) model.Money {
	return model.Amount(decimal.RequireFromString(s))
}

func samplePlan(id string, budget int64) plan.Plan {
	p := plan.Plan{
		ID:            id,
		Name:          "Plan " + id,
		Currency:      "GBP",
		FY:            fy2024,
		LastUpdatedAt: fixedNow.Add(-24 * time.Hour),
		Lines: []model.CostLine{
			{ID: "people", Category: model.CategoryPeople, Budgeted: model.AmountFromInt(budget)},
			{ID: "kit", Category: model.CategoryHardware},
		},
		Monthly: model.MonthlyData{},
	}
	p.Monthly.Set("people", "2024-04", model.MonthlyEntry{Forecast: money("100")})
	p.Monthly.Set("people", "2024-05", model.MonthlyEntry{Forecast: money("300"), CustomerRate: money("400")})
	p.Monthly.Set("kit", "2024-05", model.MonthlyEntry{Actual: money("50")})
	return p
}

func writePlans(t *testing.T, dir string, plans ...plan.Plan) {
	t.Helper()
	for _, p := range plans {
		if err := source.WriteFile(filepath.Join(dir, p.ID+".toml"), p); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writePlans(t, dir, samplePlan("beta", 1200), samplePlan("alpha", 600))
	if err := os.WriteFile(filepath.Join(dir, "broken.toml"), []byte("fy_start_month = \"April\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls int
	res, err := Load(dir, testOpts, func(cur, total int) {
		calls++
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls != 3 {
		t.Errorf("progress calls = %d, want 3", calls)
	}
	if res.ParsedFiles != 2 || len(res.FileErrors) != 1 {
		t.Fatalf("parsed=%d errors=%v", res.ParsedFiles, res.FileErrors)
	}
	if res.Plans[0].Plan.ID != "alpha" || res.Plans[1].Plan.ID != "beta" {
		t.Fatalf("plans not sorted by ID: %s, %s", res.Plans[0].Plan.ID, res.Plans[1].Plan.ID)
	}
	if _, ok := res.Find("beta"); !ok {
		t.Fatal("Find(beta) failed")
	}
}

func TestLoad_DuplicatePlanID(t *testing.T) {
	dir := t.TempDir()
	writePlans(t, dir, samplePlan("alpha", 600))
	if err := source.WriteFile(filepath.Join(dir, "copy.yaml"), samplePlan("alpha", 900)); err != nil {
		t.Fatal(err)
	}
	res, err := Load(dir, testOpts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Plans) != 1 || len(res.FileErrors) != 1 || res.ParsedFiles != 1 {
		t.Fatalf("plans=%d errors=%d parsed=%d", len(res.Plans), len(res.FileErrors), res.ParsedFiles)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "missing"), testOpts, nil)
	if err != nil || res.TotalFiles != 0 {
		t.Fatalf("Load(missing) = %+v, %v", res, err)
	}
}

func TestLoadWithCache(t *testing.T) {
	dir := t.TempDir()
	writePlans(t, dir, samplePlan("alpha", 600), samplePlan("beta", 1200))
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	first, err := LoadWithCache(dir, testOpts, st, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.Reparsed != 2 || first.CacheHits != 0 {
		t.Fatalf("first: reparsed=%d hits=%d", first.Reparsed, first.CacheHits)
	}

	second, err := LoadWithCache(dir, testOpts, st, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.Reparsed != 0 || second.CacheHits != 2 || len(second.Plans) != 2 {
		t.Fatalf("second: reparsed=%d hits=%d plans=%d", second.Reparsed, second.CacheHits, len(second.Plans))
	}
	cached, _ := second.Find("alpha")
	if !cached.Plan.Monthly.Equal(samplePlan("alpha", 600).Monthly) {
		t.Fatalf("cached monthly = %v", cached.Plan.Monthly)
	}

	// Touch beta with a new mtime and delete alpha.
	changed := samplePlan("beta", 1500)
	writePlans(t, dir, changed)
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "beta.toml"), later, later); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "alpha.toml")); err != nil {
		t.Fatal(err)
	}

	third, err := LoadWithCache(dir, testOpts, st, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Reparsed != 1 || third.Removed != 1 || len(third.Plans) != 1 {
		t.Fatalf("third: reparsed=%d removed=%d plans=%d", third.Reparsed, third.Removed, len(third.Plans))
	}
	beta := third.Plans[0].Plan
	if l, _ := beta.Line("people"); !l.Budgeted.Decimal.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("beta budget = %s, want 1500", l.Budgeted.Decimal)
	}
	if n, _ := st.PlanCount(); n != 1 {
		t.Fatalf("stored plans = %d, want 1", n)
	}
}

func TestLoadWithCache_DuplicateIDKeepsFirstFile(t *testing.T) {
	dir := t.TempDir()
	first := samplePlan("same", 1000)
	first.Name = "from-a"
	second := samplePlan("same", 9999)
	second.Name = "from-b"
	if err := source.WriteFile(filepath.Join(dir, "a.toml"), first); err != nil {
		t.Fatal(err)
	}
	if err := source.WriteFile(filepath.Join(dir, "b.toml"), second); err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	for run := 1; run <= 3; run++ {
		res, err := LoadWithCache(dir, testOpts, st, nil)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if len(res.Plans) != 1 || len(res.FileErrors) != 1 {
			t.Fatalf("run %d: plans=%d errors=%d", run, len(res.Plans), len(res.FileErrors))
		}
		lp := res.Plans[0]
		if filepath.Base(lp.Path) != "a.toml" || lp.Plan.Name != "from-a" {
			t.Fatalf("run %d: got %s %q, want a.toml \"from-a\"", run, filepath.Base(lp.Path), lp.Plan.Name)
		}
		if l, _ := lp.Plan.Line("people"); !l.Budgeted.Decimal.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("run %d: budget = %s, want 1000", run, l.Budgeted.Decimal)
		}
		if filepath.Base(res.FileErrors[0].Path) != "b.toml" {
			t.Fatalf("run %d: rejected %s, want b.toml", run, res.FileErrors[0].Path)
		}
	}

	stored, err := st.LoadPlan("same")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "from-a" {
		t.Fatalf("stored name = %q, want from-a", stored.Name)
	}
	if owner, _ := st.SourcePath("same"); filepath.Base(owner) != "a.toml" {
		t.Fatalf("stored source = %s, want a.toml", owner)
	}
}

func TestLoadWithCache_RemovedDuplicateKeepsOwner(t *testing.T) {
	dir := t.TempDir()
	writePlans(t, dir, samplePlan("alpha", 600))
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := LoadWithCache(dir, testOpts, st, nil); err != nil {
		t.Fatal(err)
	}

	// A file sorting first takes over the ID; alpha.toml stays tracked.
	if err := source.WriteFile(filepath.Join(dir, "0-alpha.toml"), samplePlan("alpha", 900)); err != nil {
		t.Fatal(err)
	}
	res, err := LoadWithCache(dir, testOpts, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Plans) != 1 || filepath.Base(res.Plans[0].Path) != "0-alpha.toml" {
		t.Fatalf("plans = %+v", res.Plans)
	}

	if err := os.Remove(filepath.Join(dir, "alpha.toml")); err != nil {
		t.Fatal(err)
	}
	res, err = LoadWithCache(dir, testOpts, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 || res.CacheHits != 1 || len(res.Plans) != 1 || len(res.FileErrors) != 0 {
		t.Fatalf("removed=%d hits=%d plans=%d errors=%v", res.Removed, res.CacheHits, len(res.Plans), res.FileErrors)
	}
	if l, _ := res.Plans[0].Plan.Line("people"); !l.Budgeted.Decimal.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("budget = %s, want 900", l.Budgeted.Decimal)
	}
	if n, _ := st.PlanCount(); n != 1 {
		t.Fatalf("stored plans = %d, want 1", n)
	}
}

func TestEvaluate(t *testing.T) {
	rep := Evaluate(samplePlan("alpha", 1200), testEngine(), nil)

	if len(rep.Keys) != 12 || len(rep.Months) != 12 || len(rep.Quarters) != 4 {
		t.Fatalf("keys=%d months=%d quarters=%d", len(rep.Keys), len(rep.Months), len(rep.Quarters))
	}
	if rep.Months[0].Movement.Valid {
		t.Error("first month movement should be unset")
	}
	if got := rep.Months[1].Movement; !got.Valid || !got.Decimal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("May movement = %v, want 200", got)
	}
	if got := rep.Months[1].Margin; !got.Valid || !got.Decimal.Equal(decimal.NewFromInt(25)) {
		t.Errorf("May margin = %v, want 25", got)
	}
	if rep.Months[0].Margin.Valid {
		t.Error("April margin should be unset without revenue")
	}
	if got := rep.Quarters[0].Totals.Forecast; !got.Decimal.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Q1 forecast = %v, want 400", got)
	}
	if got := rep.Total.Actual; !got.Valid || !got.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Errorf("total actual = %v, want 50", got)
	}
	if rep.Total.Budget.Valid {
		t.Error("total budget should be unset when no month sets it")
	}
	if !rep.ApprovedBudget.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("approved budget = %s, want fallback 1200", rep.ApprovedBudget)
	}
	if rows := rep.Unreconciled(); len(rows) != 1 || rows[0].LineID != "people" {
		t.Errorf("unreconciled = %+v", rows)
	}
	if rep.Lines[0].Over {
		t.Error("people is under budget")
	}
	if len(rep.Categories) != 2 || rep.Categories[0].Category != model.CategoryPeople {
		t.Errorf("categories = %+v", rep.Categories)
	}
	if rep.CountBySeverity()[model.SeverityWarning] == 0 {
		t.Errorf("expected an unreconciled warning, got %+v", rep.Signals)
	}
}

func TestEvaluate_LineOverrun(t *testing.T) {
	rep := Evaluate(samplePlan("alpha", 200), testEngine(), nil)
	row := rep.Lines[0]
	if !row.Over || !row.Overrun.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("overrun = %s over=%v, want 1 true", row.Overrun, row.Over)
	}
}

func TestResourceBreakdown(t *testing.T) {
	p := samplePlan("alpha", 1200)
	p.Resources = []model.Resource{
		{ID: "small", RateType: model.RateMonthly, MonthlyCost: model.AmountFromInt(100), PlannedMonths: 2},
		{ID: "big", RateType: model.RateMonthly, MonthlyCost: model.AmountFromInt(1000), PlannedMonths: 3},
		{ID: "empty", RateType: model.RateDay},
	}
	got := ResourceBreakdown(p)
	if got[0].Resource.ID != "big" || !got[0].Costable {
		t.Fatalf("first = %+v", got[0])
	}
	if got[2].Costable {
		t.Fatal("resource without a rate is not costable")
	}
}

func TestAggregatePortfolio(t *testing.T) {
	plans := []LoadedPlan{
		{Plan: samplePlan("alpha", 600)},
		{Plan: samplePlan("beta", 1200)},
		{Plan: samplePlan("gamma", 1800)},
	}
	pf, err := AggregatePortfolio(context.Background(), plans, testEngine())
	if err != nil {
		t.Fatalf("AggregatePortfolio: %v", err)
	}
	if pf.PlanCount != 3 || pf.Reports[2].PlanID != "gamma" {
		t.Fatalf("reports out of order: %+v", pf.Reports)
	}
	if !pf.Forecast().Equal(decimal.NewFromInt(1200)) {
		t.Errorf("forecast = %s, want 1200", pf.Forecast())
	}
	if !pf.ApprovedBudget.Equal(decimal.NewFromInt(3600)) {
		t.Errorf("approved = %s, want 3600", pf.ApprovedBudget)
	}
	if pf.Unreconciled != 3 {
		t.Errorf("unreconciled = %d, want 3", pf.Unreconciled)
	}
	if pf.Categories[0].LineCount != 3 {
		t.Errorf("category line count = %d, want 3", pf.Categories[0].LineCount)
	}
}

func TestAggregatePortfolio_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AggregatePortfolio(ctx, []LoadedPlan{{Plan: samplePlan("a", 1)}}, testEngine()); err == nil {
		t.Fatal("expected context error")
	}
}

func BenchmarkEvaluate(b *testing.B) {
	p := samplePlan("alpha", 1200)
	e := testEngine()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(p, e, nil)
	}
}
