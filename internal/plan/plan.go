// Package plan holds an immutable financial plan snapshot and the edits
// that produce new snapshots from it.
package plan

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/signals"
)

// Plan is one project's cost lines, resources and monthly phasing.
// Methods never modify the receiver.
type Plan struct {
	ID             string
	Name           string
	Currency       string
	FY             model.FYConfig
	ApprovedBudget model.Money
	LastUpdatedAt  time.Time
	Lines          []model.CostLine
	Resources      []model.Resource
	Monthly        model.MonthlyData
}

// NewID returns a fresh identifier for a plan, line or resource.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	out := p
	out.Lines = slices.Clone(p.Lines)
	out.Resources = make([]model.Resource, len(p.Resources))
	copy(out.Resources, p.Resources)
	out.Monthly = p.Monthly.Clone()
	return out
}

// Keys returns the financial-year months.
func (p Plan) Keys() []model.MonthKey {
	return phasing.BuildMonthKeys(p.FY)
}

// Quarters returns the financial-year quarters.
func (p Plan) Quarters() []model.Quarter {
	return phasing.BuildQuarters(p.Keys(), p.FY.StartMonth)
}

// Line looks up a cost line by ID.
func (p Plan) Line(id string) (model.CostLine, bool) {
	i := p.lineIndex(id)
	if i < 0 {
		return model.CostLine{}, false
	}
	return p.Lines[i], true
}

// Resource looks up a resource by ID.
func (p Plan) Resource(id string) (model.Resource, bool) {
	i := p.resourceIndex(id)
	if i < 0 {
		return model.Resource{}, false
	}
	return p.Resources[i], true
}

func (p Plan) lineIndex(id string) int {
	return slices.IndexFunc(p.Lines, func(l model.CostLine) bool { return l.ID == id })
}

func (p Plan) resourceIndex(id string) int {
	return slices.IndexFunc(p.Resources, func(r model.Resource) bool { return r.ID == id })
}

// Validate checks every line and resource and the references between them.
func (p Plan) Validate() error {
	seen := make(map[string]bool, len(p.Lines))
	for _, l := range p.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.ID] {
			return fmt.Errorf("line %s: %w", l.ID, model.ErrDuplicateID)
		}
		seen[l.ID] = true
	}
	rseen := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		if err := r.Validate(); err != nil {
			return err
		}
		if rseen[r.ID] {
			return fmt.Errorf("resource %s: %w", r.ID, model.ErrDuplicateID)
		}
		rseen[r.ID] = true
	}
	if model.IsNegative(p.ApprovedBudget) {
		return fmt.Errorf("approved budget: %w", model.ErrNegativeAmount)
	}
	return nil
}

// Reconcile compares line totals with the monthly phasing.
func (p Plan) Reconcile(tolerance float64) []phasing.ReconciliationRow {
	return phasing.ReconcileWithin(decimalOf(tolerance), p.Lines, p.Monthly, p.FY)
}

// SignalInput builds the rule engine input for this plan.
func (p Plan) SignalInput(ext *signals.ExternalContext) signals.Input {
	return signals.Input{
		Lines:          p.Lines,
		Resources:      p.Resources,
		Monthly:        p.Monthly,
		FY:             p.FY,
		ApprovedBudget: p.ApprovedBudget,
		LastUpdatedAt:  p.LastUpdatedAt,
		External:       ext,
	}
}

// Signals evaluates the rule set against this plan.
func (p Plan) Signals(e *signals.Engine, ext *signals.ExternalContext) []model.Signal {
	return e.Evaluate(p.SignalInput(ext))
}

// UnlinkedResources returns resources with no cost line.
func (p Plan) UnlinkedResources() []model.Resource {
	var out []model.Resource
	for _, r := range p.Resources {
		if !r.Linked() {
			out = append(out, r)
		}
	}
	return out
}
