package model

// Severity ranks a signal's urgency.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rank orders severities; higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// Scope is the part of the plan a signal refers to.
type Scope string

const (
	ScopePlan    Scope = "plan"
	ScopeQuarter Scope = "quarter"
	ScopeMonth   Scope = "month"
	ScopeLine    Scope = "line"
)

// Rank orders scopes from broadest (highest) to narrowest.
func (s Scope) Rank() int {
	switch s {
	case ScopePlan:
		return 4
	case ScopeQuarter:
		return 3
	case ScopeMonth:
		return 2
	case ScopeLine:
		return 1
	}
	return 0
}

// Signal codes.
const (
	SignalPlanOverBudget        = "PLAN_OVER_BUDGET"
	SignalLineOverBudget        = "LINE_OVER_BUDGET"
	SignalQuarterOverBudget     = "QUARTER_OVER_BUDGET"
	SignalMonthOverBudget       = "MONTH_OVER_BUDGET"
	SignalUnreconciledLine      = "UNRECONCILED_LINE"
	SignalStalePlan             = "STALE_PLAN"
	SignalUnlinkedResourceCost  = "UNLINKED_RESOURCE_COST"
	SignalPendingChangeExposure = "PENDING_CHANGE_EXPOSURE"
)

// Signal is one budget-health finding. Signals are recomputed on every evaluation.
type Signal struct {
	Code          string   `json:"code"`
	Severity      Severity `json:"severity"`
	Scope         Scope    `json:"scope"`
	ScopeKey      string   `json:"scope_key"`
	Title         string   `json:"title"`
	Detail        string   `json:"detail"`
	AffectedLines []string `json:"affected_lines,omitempty"`
}

// Key identifies a signal across evaluations.
func (s Signal) Key() string {
	return s.Code + "|" + string(s.Scope) + "|" + s.ScopeKey
}
