package signals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

var fixedNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), func() time.Time { return fixedNow })
}

func fy() model.FYConfig {
	return model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 12}
}

func find(signals []model.Signal, code, scopeKey string) (model.Signal, bool) {
	for _, s := range signals {
		if s.Code == code && (scopeKey == "" || s.ScopeKey == scopeKey) {
			return s, true
		}
	}
	return model.Signal{}, false
}

// spread puts forecast evenly over the first n months of the test FY.
func spread(lineID string, budget, forecast int64, n int) model.MonthlyData {
	m := model.MonthlyData{}
	mk := model.MonthKey("2024-04")
	for i := 0; i < n; i++ {
		m.Set(lineID, mk, model.MonthlyEntry{
			Budget:   model.AmountFromInt(budget / int64(n)),
			Forecast: model.AmountFromInt(forecast / int64(n)),
		})
		mk = mk.Next()
	}
	return m
}

func TestPlanOverBudget(t *testing.T) {
	tests := []struct {
		name     string
		forecast int64
		want     bool
	}{
		{"over", 120000, true},
		{"exactly at budget", 100000, false},
		{"under", 90000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				FY:             fy(),
				ApprovedBudget: model.AmountFromInt(100000),
				Monthly:        spread("l", 120000, tt.forecast, 10),
			}
			s, ok := find(newTestEngine().Evaluate(in), model.SignalPlanOverBudget, "")
			if ok != tt.want {
				t.Fatalf("PLAN_OVER_BUDGET present = %v, want %v", ok, tt.want)
			}
			if ok && s.Severity != model.SeverityCritical {
				t.Fatalf("severity = %s, want critical", s.Severity)
			}
		})
	}
}

func TestPlanOverBudget_FallsBackToLineBudgets(t *testing.T) {
	in := Input{
		FY:      fy(),
		Lines:   []model.CostLine{{ID: "l", Category: model.CategoryOther, Budgeted: model.AmountFromInt(1200)}},
		Monthly: spread("l", 1200, 2400, 12),
	}
	if _, ok := find(newTestEngine().Evaluate(in), model.SignalPlanOverBudget, ""); !ok {
		t.Fatal("PLAN_OVER_BUDGET missing when line budgets are exceeded")
	}
}

func TestLineOverBudget_Severity(t *testing.T) {
	tests := []struct {
		name     string
		budget   int64
		forecast int64
		want     model.Severity
	}{
		{"small overrun warns", 1000, 1100, model.SeverityWarning},
		{"twenty percent warns", 1000, 1200, model.SeverityWarning},
		{"above twenty percent is critical", 1000, 1201, model.SeverityCritical},
		{"no overrun", 1000, 1000, ""},
		{"no budget", 0, 500, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				FY: fy(),
				Lines: []model.CostLine{{
					ID:       "kit",
					Category: model.CategoryHardware,
					Budgeted: model.AmountFromInt(tt.budget),
					Forecast: model.AmountFromInt(tt.forecast),
				}},
			}
			s, ok := find(newTestEngine().Evaluate(in), model.SignalLineOverBudget, "kit")
			if tt.want == "" {
				if ok {
					t.Fatalf("unexpected signal %+v", s)
				}
				return
			}
			if !ok {
				t.Fatal("LINE_OVER_BUDGET missing")
			}
			if s.Severity != tt.want {
				t.Fatalf("severity = %s, want %s", s.Severity, tt.want)
			}
			if len(s.AffectedLines) != 1 || s.AffectedLines[0] != "kit" {
				t.Fatalf("AffectedLines = %v", s.AffectedLines)
			}
		})
	}
}

func TestMonthAndQuarterOverBudget(t *testing.T) {
	m := model.MonthlyData{}
	m.Set("a", "2024-04", model.MonthlyEntry{Budget: model.AmountFromInt(100), Forecast: model.AmountFromInt(150)})
	m.Set("b", "2024-04", model.MonthlyEntry{Budget: model.AmountFromInt(100), Forecast: model.AmountFromInt(60)})
	m.Set("a", "2024-05", model.MonthlyEntry{Budget: model.AmountFromInt(100), Forecast: model.AmountFromInt(100)})

	sigs := newTestEngine().Evaluate(Input{FY: fy(), Monthly: m})

	month, ok := find(sigs, model.SignalMonthOverBudget, "2024-04")
	if !ok {
		t.Fatal("MONTH_OVER_BUDGET missing for April")
	}
	if month.Severity != model.SeverityWarning {
		t.Fatalf("April severity = %s, want warning (10%% overrun)", month.Severity)
	}
	if len(month.AffectedLines) != 1 || month.AffectedLines[0] != "a" {
		t.Fatalf("AffectedLines = %v, want [a]", month.AffectedLines)
	}
	if _, ok := find(sigs, model.SignalMonthOverBudget, "2024-05"); ok {
		t.Fatal("May is on budget")
	}

	q, ok := find(sigs, model.SignalQuarterOverBudget, "Q1 FY2024/25")
	if !ok {
		t.Fatal("QUARTER_OVER_BUDGET missing")
	}
	if q.Severity != model.SeverityWarning {
		t.Fatalf("quarter severity = %s, want warning", q.Severity)
	}
}

func TestUnreconciledLine(t *testing.T) {
	lines := []model.CostLine{
		{ID: "drift", Category: model.CategoryOther, Budgeted: model.AmountFromInt(1200)},
		{ID: "fine", Category: model.CategoryOther, Budgeted: model.AmountFromInt(1200)},
		{ID: "empty", Category: model.CategoryOther},
	}
	m := spread("fine", 1200, 0, 12)
	m.Set("drift", "2024-04", model.MonthlyEntry{Budget: model.AmountFromInt(100)})

	sigs := newTestEngine().Evaluate(Input{FY: fy(), Lines: lines, Monthly: m})
	s, ok := find(sigs, model.SignalUnreconciledLine, "drift")
	if !ok {
		t.Fatal("UNRECONCILED_LINE missing")
	}
	if s.Severity != model.SeverityWarning {
		t.Fatalf("severity = %s, want warning", s.Severity)
	}
	for _, id := range []string{"fine", "empty"} {
		if _, ok := find(sigs, model.SignalUnreconciledLine, id); ok {
			t.Fatalf("line %s unexpectedly unreconciled", id)
		}
	}
}

func TestStalePlan(t *testing.T) {
	tests := []struct {
		name    string
		updated time.Time
		want    bool
	}{
		{"fresh", fixedNow.Add(-3 * 24 * time.Hour), false},
		{"exactly fourteen days", fixedNow.Add(-14 * 24 * time.Hour), false},
		{"stale", fixedNow.Add(-15 * 24 * time.Hour), true},
		{"never recorded", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := find(newTestEngine().Evaluate(Input{FY: fy(), LastUpdatedAt: tt.updated}), model.SignalStalePlan, "")
			if ok != tt.want {
				t.Fatalf("STALE_PLAN present = %v, want %v", ok, tt.want)
			}
			if ok && s.Severity != model.SeverityInfo {
				t.Fatalf("severity = %s, want info", s.Severity)
			}
		})
	}
}

func TestStalePlan_ConfigurableThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaleAfter = 2 * 24 * time.Hour
	e := NewEngine(cfg, func() time.Time { return fixedNow })
	if _, ok := find(e.Evaluate(Input{FY: fy(), LastUpdatedAt: fixedNow.Add(-3 * 24 * time.Hour)}), model.SignalStalePlan, ""); !ok {
		t.Fatal("STALE_PLAN missing with two-day threshold")
	}
}

func TestUnlinkedResourceCost(t *testing.T) {
	resources := []model.Resource{
		{ID: "r1", Name: "Ada", RateType: model.RateMonthly, MonthlyCost: model.AmountFromInt(1000), PlannedMonths: 2},
		{ID: "r2", Name: "Grace", RateType: model.RateDay},
		{ID: "r3", Name: "Linus", RateType: model.RateMonthly, MonthlyCost: model.AmountFromInt(1000), PlannedMonths: 2, CostLineID: "l"},
	}
	sigs := newTestEngine().Evaluate(Input{FY: fy(), Resources: resources})
	s, ok := find(sigs, model.SignalUnlinkedResourceCost, "")
	if !ok {
		t.Fatal("UNLINKED_RESOURCE_COST missing")
	}
	if s.Scope != model.ScopePlan || s.Severity != model.SeverityInfo {
		t.Fatalf("scope/severity = %s/%s, want plan/info", s.Scope, s.Severity)
	}
	if s.Detail != "2000.00 unallocated: Ada" {
		t.Fatalf("Detail = %q", s.Detail)
	}
}

func TestPendingChangeExposure(t *testing.T) {
	tests := []struct {
		name    string
		changes []ChangeExposure
		want    bool
	}{
		{"above ten percent", []ChangeExposure{{ID: "c1", CostImpact: decimal.NewFromInt(6000)}, {ID: "c2", CostImpact: decimal.NewFromInt(5000)}}, true},
		{"exactly ten percent", []ChangeExposure{{ID: "c1", CostImpact: decimal.NewFromInt(10000)}}, false},
		{"approved changes ignored", []ChangeExposure{{ID: "c1", Status: "approved", CostImpact: decimal.NewFromInt(50000)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				FY:             fy(),
				ApprovedBudget: model.AmountFromInt(100000),
				External:       &ExternalContext{PendingChanges: tt.changes},
			}
			_, ok := find(newTestEngine().Evaluate(in), model.SignalPendingChangeExposure, "")
			if ok != tt.want {
				t.Fatalf("PENDING_CHANGE_EXPOSURE present = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestEvaluate_Sorted(t *testing.T) {
	lines := []model.CostLine{
		{ID: "b", Category: model.CategoryOther, Budgeted: model.AmountFromInt(100), Forecast: model.AmountFromInt(500)},
		{ID: "a", Category: model.CategoryOther, Budgeted: model.AmountFromInt(100), Forecast: model.AmountFromInt(110)},
	}
	m := spread("a", 1200, 2400, 12)
	in := Input{
		FY:            fy(),
		Lines:         lines,
		Monthly:       m,
		LastUpdatedAt: fixedNow.Add(-60 * 24 * time.Hour),
		Resources:     []model.Resource{{ID: "r", RateType: model.RateMonthly, MonthlyCost: model.AmountFromInt(10), PlannedMonths: 1}},
	}
	sigs := newTestEngine().Evaluate(in)
	if len(sigs) == 0 {
		t.Fatal("no signals")
	}
	for i := 1; i < len(sigs); i++ {
		prev, cur := sigs[i-1], sigs[i]
		if prev.Severity.Rank() < cur.Severity.Rank() {
			t.Fatalf("signal %d (%s %s) ranked above more severe %s %s", i-1, prev.Code, prev.Severity, cur.Code, cur.Severity)
		}
		if prev.Severity == cur.Severity && prev.Scope.Rank() < cur.Scope.Rank() {
			t.Fatalf("signal %d scope %s before broader %s", i-1, prev.Scope, cur.Scope)
		}
	}
	if sigs[0].Code != model.SignalPlanOverBudget {
		t.Fatalf("first signal = %s, want PLAN_OVER_BUDGET", sigs[0].Code)
	}
	last := sigs[len(sigs)-1]
	if last.Severity != model.SeverityInfo {
		t.Fatalf("last signal severity = %s, want info", last.Severity)
	}
}

func TestEvaluate_InvalidFYDegrades(t *testing.T) {
	in := Input{
		FY:    model.FYConfig{StartMonth: 14, NumMonths: 12},
		Lines: []model.CostLine{{ID: "l", Category: model.CategoryOther, Budgeted: model.AmountFromInt(100)}},
	}
	sigs := newTestEngine().Evaluate(in)
	for _, s := range sigs {
		if s.Scope == model.ScopeMonth || s.Scope == model.ScopeQuarter {
			t.Fatalf("period signal %s raised without months", s.Code)
		}
	}
}
