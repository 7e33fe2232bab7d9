package signals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
)

// ChangeExposure is a change request whose cost impact is not yet approved.
type ChangeExposure struct {
	ID         string
	Title      string
	Status     string
	CostImpact decimal.Decimal
}

// Pending reports whether the change still counts towards exposure.
func (c ChangeExposure) Pending() bool {
	s := strings.ToLower(strings.TrimSpace(c.Status))
	return s == "" || s == "pending" || s == "submitted" || s == "in_review"
}

// ExternalContext is optional data supplied by collaborators outside the plan.
type ExternalContext struct {
	PendingChanges []ChangeExposure
}

// Input is the snapshot a rule set is evaluated against.
type Input struct {
	Lines     []model.CostLine
	Resources []model.Resource
	Monthly   model.MonthlyData
	FY        model.FYConfig
	// ApprovedBudget falls back to the sum of line budgets when unset.
	ApprovedBudget model.Money
	LastUpdatedAt  time.Time
	External       *ExternalContext
}

// Engine evaluates every rule against an input.
type Engine struct {
	config    Config
	clockFunc func() time.Time
}

// NewEngine creates an engine. A nil clock uses time.Now.
func NewEngine(config Config, clockFunc func() time.Time) *Engine {
	if clockFunc == nil {
		clockFunc = time.Now
	}
	return &Engine{config: config, clockFunc: clockFunc}
}

// Config returns the engine's thresholds.
func (e *Engine) Config() Config {
	return e.config
}

type rule func(*evaluation) []model.Signal

var rules = []rule{
	planOverBudget,
	lineOverBudget,
	quarterOverBudget,
	monthOverBudget,
	unreconciledLines,
	stalePlan,
	unlinkedResourceCost,
	pendingChangeExposure,
}

// evaluation carries values shared between rules for one Evaluate call.
type evaluation struct {
	in       Input
	cfg      Config
	now      time.Time
	keys     []model.MonthKey
	quarters []model.Quarter
	approved decimal.Decimal
}

// Evaluate runs every rule and returns the signals sorted by severity,
// then scope from plan down to line.
func (e *Engine) Evaluate(in Input) []model.Signal {
	keys := phasing.BuildMonthKeys(in.FY)
	ev := &evaluation{
		in:       in,
		cfg:      e.config,
		now:      e.clockFunc(),
		keys:     keys,
		quarters: phasing.BuildQuarters(keys, in.FY.StartMonth),
		approved: ApprovedBudget(in.ApprovedBudget, in.Lines),
	}

	out := []model.Signal{}
	for _, r := range rules {
		out = append(out, r(ev)...)
	}
	Sort(out)
	return out
}

// ApprovedBudget resolves the plan's approved budget.
func ApprovedBudget(approved model.Money, lines []model.CostLine) decimal.Decimal {
	if approved.Valid {
		return approved.Decimal
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(model.OrZero(l.Budgeted))
	}
	return sum
}

// Sort orders signals by severity, scope, scope key and code.
func Sort(s []model.Signal) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Scope.Rank() != b.Scope.Rank() {
			return a.Scope.Rank() > b.Scope.Rank()
		}
		if a.ScopeKey != b.ScopeKey {
			return a.ScopeKey < b.ScopeKey
		}
		return a.Code < b.Code
	})
}

// overrunSeverity maps an overrun fraction to a severity.
func (ev *evaluation) overrunSeverity(overrun decimal.Decimal) model.Severity {
	if overrun.LessThanOrEqual(decimal.NewFromFloat(ev.cfg.OverrunWarnRatio)) {
		return model.SeverityWarning
	}
	return model.SeverityCritical
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func planOverBudget(ev *evaluation) []model.Signal {
	if !ev.approved.IsPositive() {
		return nil
	}
	forecast := model.OrZero(phasing.GrandTotal(ev.in.Monthly, ev.keys).Forecast)
	if !forecast.GreaterThan(ev.approved) {
		return nil
	}
	return []model.Signal{{
		Code:     model.SignalPlanOverBudget,
		Severity: model.SeverityCritical,
		Scope:    model.ScopePlan,
		ScopeKey: "plan",
		Title:    "Plan forecast exceeds approved budget",
		Detail: fmt.Sprintf("Forecast %s against approved %s (over by %s)",
			amount(forecast), amount(ev.approved), amount(forecast.Sub(ev.approved))),
	}}
}

func lineOverBudget(ev *evaluation) []model.Signal {
	var out []model.Signal
	for _, l := range ev.in.Lines {
		budget, forecast := model.OrZero(l.Budgeted), model.OrZero(l.Forecast)
		overrun, ok := phasing.Overrun(forecast, budget)
		if !ok {
			continue
		}
		out = append(out, model.Signal{
			Code:          model.SignalLineOverBudget,
			Severity:      ev.overrunSeverity(overrun),
			Scope:         model.ScopeLine,
			ScopeKey:      l.ID,
			Title:         fmt.Sprintf("%s forecast over budget", lineName(l)),
			Detail:        fmt.Sprintf("Forecast %s against budget %s (+%s)", amount(forecast), amount(budget), percent(overrun)),
			AffectedLines: []string{l.ID},
		})
	}
	return out
}

func quarterOverBudget(ev *evaluation) []model.Signal {
	var out []model.Signal
	for _, q := range ev.quarters {
		t := phasing.QuarterTotal(ev.in.Monthly, q)
		if s, ok := ev.periodOverrun(model.SignalQuarterOverBudget, model.ScopeQuarter, q.Label, q.Label, t, q.Months); ok {
			out = append(out, s)
		}
	}
	return out
}

func monthOverBudget(ev *evaluation) []model.Signal {
	var out []model.Signal
	for _, mk := range ev.keys {
		t := phasing.MonthTotal(ev.in.Monthly, mk)
		if s, ok := ev.periodOverrun(model.SignalMonthOverBudget, model.ScopeMonth, string(mk), mk.Label(), t, []model.MonthKey{mk}); ok {
			out = append(out, s)
		}
	}
	return out
}

func (ev *evaluation) periodOverrun(code string, scope model.Scope, key, label string, t phasing.Totals, months []model.MonthKey) (model.Signal, bool) {
	budget, forecast := model.OrZero(t.Budget), model.OrZero(t.Forecast)
	overrun, ok := phasing.Overrun(forecast, budget)
	if !ok {
		return model.Signal{}, false
	}
	return model.Signal{
		Code:          code,
		Severity:      ev.overrunSeverity(overrun),
		Scope:         scope,
		ScopeKey:      key,
		Title:         fmt.Sprintf("%s forecast over budget", label),
		Detail:        fmt.Sprintf("Forecast %s against budget %s (+%s)", amount(forecast), amount(budget), percent(overrun)),
		AffectedLines: overrunLines(ev.in.Monthly, months),
	}, true
}

// overrunLines lists lines whose forecast exceeds their budget within months.
func overrunLines(monthly model.MonthlyData, months []model.MonthKey) []string {
	var ids []string
	for lineID := range monthly {
		t := phasing.LineTotal(monthly, lineID, months)
		if model.OrZero(t.Forecast).GreaterThan(model.OrZero(t.Budget)) {
			ids = append(ids, lineID)
		}
	}
	sort.Strings(ids)
	return ids
}

func unreconciledLines(ev *evaluation) []model.Signal {
	tolerance := decimal.NewFromFloat(ev.cfg.ReconcileTolerance)
	var out []model.Signal
	for _, row := range phasing.ReconcileWithin(tolerance, ev.in.Lines, ev.in.Monthly, ev.in.FY) {
		if row.AllOK || !row.HasTarget() {
			continue
		}
		out = append(out, model.Signal{
			Code:     model.SignalUnreconciledLine,
			Severity: model.SeverityWarning,
			Scope:    model.ScopeLine,
			ScopeKey: row.LineID,
			Title:    fmt.Sprintf("%s phasing does not match line totals", lineName(row.Line)),
			Detail: fmt.Sprintf("Budget drift %s, forecast drift %s",
				amount(row.BudgetDiff), amount(row.ForecastDiff)),
			AffectedLines: []string{row.LineID},
		})
	}
	return out
}

func stalePlan(ev *evaluation) []model.Signal {
	if ev.in.LastUpdatedAt.IsZero() || ev.cfg.StaleAfter <= 0 {
		return nil
	}
	age := ev.now.Sub(ev.in.LastUpdatedAt)
	if age <= ev.cfg.StaleAfter {
		return nil
	}
	return []model.Signal{{
		Code:     model.SignalStalePlan,
		Severity: model.SeverityInfo,
		Scope:    model.ScopePlan,
		ScopeKey: "plan",
		Title:    "Plan has not been updated recently",
		Detail:   fmt.Sprintf("Last updated %d days ago", int(age.Hours()/24)),
	}}
}

func unlinkedResourceCost(ev *evaluation) []model.Signal {
	var names []string
	total := decimal.Zero
	for _, r := range ev.in.Resources {
		if r.Linked() {
			continue
		}
		a, ok := phasing.Amortize(r, ev.keys)
		if !ok {
			continue
		}
		names = append(names, resourceName(r))
		total = total.Add(a.TotalCost)
	}
	if len(names) == 0 {
		return nil
	}
	return []model.Signal{{
		Code:     model.SignalUnlinkedResourceCost,
		Severity: model.SeverityInfo,
		Scope:    model.ScopePlan,
		ScopeKey: "plan",
		Title:    fmt.Sprintf("%d costed resource(s) not linked to a cost line", len(names)),
		Detail:   fmt.Sprintf("%s unallocated: %s", amount(total), strings.Join(names, ", ")),
	}}
}

func pendingChangeExposure(ev *evaluation) []model.Signal {
	if ev.in.External == nil || !ev.approved.IsPositive() {
		return nil
	}
	exposure := decimal.Zero
	count := 0
	for _, c := range ev.in.External.PendingChanges {
		if !c.Pending() {
			continue
		}
		exposure = exposure.Add(c.CostImpact)
		count++
	}
	limit := ev.approved.Mul(decimal.NewFromFloat(ev.cfg.PendingExposureRatio))
	if !exposure.GreaterThan(limit) {
		return nil
	}
	return []model.Signal{{
		Code:     model.SignalPendingChangeExposure,
		Severity: model.SeverityWarning,
		Scope:    model.ScopePlan,
		ScopeKey: "plan",
		Title:    "Pending changes put the budget at risk",
		Detail: fmt.Sprintf("%d pending change(s) worth %s (%s of approved budget)",
			count, amount(exposure), percent(exposure.Div(ev.approved))),
	}}
}

func lineName(l model.CostLine) string {
	if l.Description != "" {
		return l.Description
	}
	return l.ID
}

func resourceName(r model.Resource) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
