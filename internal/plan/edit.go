package plan

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
)

func decimalOf(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// AddLine appends a new cost line.
func (p Plan) AddLine(l model.CostLine) (Plan, error) {
	if err := l.Validate(); err != nil {
		return p, err
	}
	if p.lineIndex(l.ID) >= 0 {
		return p, fmt.Errorf("line %s: %w", l.ID, model.ErrDuplicateID)
	}
	out := p.Clone()
	out.Lines = append(out.Lines, l)
	return out, nil
}

// UpdateLine replaces the line with the same ID.
func (p Plan) UpdateLine(l model.CostLine) (Plan, error) {
	if err := l.Validate(); err != nil {
		return p, err
	}
	i := p.lineIndex(l.ID)
	if i < 0 {
		return p, fmt.Errorf("line %s: %w", l.ID, model.ErrUnknownLine)
	}
	out := p.Clone()
	out.Lines[i] = l
	return out, nil
}

// RemoveLine deletes a line, unlinks resources pointing at it and drops
// its monthly entries.
func (p Plan) RemoveLine(id string) (Plan, error) {
	i := p.lineIndex(id)
	if i < 0 {
		return p, fmt.Errorf("line %s: %w", id, model.ErrUnknownLine)
	}
	out := p.Clone()
	out.Lines = slices.Delete(out.Lines, i, i+1)
	for j := range out.Resources {
		if out.Resources[j].CostLineID == id {
			out.Resources[j].CostLineID = ""
		}
	}
	delete(out.Monthly, id)
	return out, nil
}

// SetOverride toggles manual override on a line.
func (p Plan) SetOverride(id string, override bool) (Plan, error) {
	l, ok := p.Line(id)
	if !ok {
		return p, fmt.Errorf("line %s: %w", id, model.ErrUnknownLine)
	}
	l.Override = override
	return p.UpdateLine(l)
}

// AddResource appends a resource. A non-empty cost line reference must exist.
func (p Plan) AddResource(r model.Resource) (Plan, error) {
	if err := p.checkResource(r); err != nil {
		return p, err
	}
	if p.resourceIndex(r.ID) >= 0 {
		return p, fmt.Errorf("resource %s: %w", r.ID, model.ErrDuplicateID)
	}
	out := p.Clone()
	out.Resources = append(out.Resources, r)
	return out, nil
}

// UpdateResource replaces the resource with the same ID.
func (p Plan) UpdateResource(r model.Resource) (Plan, error) {
	if err := p.checkResource(r); err != nil {
		return p, err
	}
	i := p.resourceIndex(r.ID)
	if i < 0 {
		return p, fmt.Errorf("resource %s: %w", r.ID, model.ErrUnknownResource)
	}
	out := p.Clone()
	out.Resources[i] = r
	return out, nil
}

// RemoveResource deletes a resource. Monthly entries it contributed to are kept.
func (p Plan) RemoveResource(id string) (Plan, error) {
	i := p.resourceIndex(id)
	if i < 0 {
		return p, fmt.Errorf("resource %s: %w", id, model.ErrUnknownResource)
	}
	out := p.Clone()
	out.Resources = slices.Delete(out.Resources, i, i+1)
	return out, nil
}

// LinkResource points a resource at a cost line. An empty lineID unlinks it.
func (p Plan) LinkResource(resourceID, lineID string) (Plan, error) {
	r, ok := p.Resource(resourceID)
	if !ok {
		return p, fmt.Errorf("resource %s: %w", resourceID, model.ErrUnknownResource)
	}
	r.CostLineID = lineID
	return p.UpdateResource(r)
}

func (p Plan) checkResource(r model.Resource) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Linked() && p.lineIndex(r.CostLineID) < 0 {
		return fmt.Errorf("resource %s line %s: %w", r.ID, r.CostLineID, model.ErrUnknownLine)
	}
	return nil
}

// SetEntry merges patch into the (lineID, mk) cell, creating it if needed.
func (p Plan) SetEntry(lineID string, mk model.MonthKey, patch model.EntryPatch) (Plan, error) {
	if p.lineIndex(lineID) < 0 {
		return p, fmt.Errorf("line %s: %w", lineID, model.ErrUnknownLine)
	}
	if phasing.IndexOf(p.Keys(), mk) < 0 {
		return p, fmt.Errorf("month %s: %w", mk, model.ErrInvalidMonth)
	}
	for _, m := range []*model.Money{patch.Budget, patch.Actual, patch.Forecast, patch.CustomerRate} {
		if m != nil && model.IsNegative(*m) {
			return p, fmt.Errorf("line %s month %s: %w", lineID, mk, model.ErrNegativeAmount)
		}
	}
	out := p.Clone()
	e, _ := out.Monthly.Entry(lineID, mk)
	out.Monthly.Set(lineID, mk, patch.Apply(e))
	return out, nil
}

// Rollup writes linked resources' costs into the monthly phasing.
func (p Plan) Rollup() Plan {
	out := p.Clone()
	out.Monthly = phasing.Rollup(p.Resources, p.Lines, p.Monthly, p.FY)
	return out
}

// DistributeEvenly spreads a line's totals across every month.
func (p Plan) DistributeEvenly(lineID string) (Plan, error) {
	if p.lineIndex(lineID) < 0 {
		return p, fmt.Errorf("line %s: %w", lineID, model.ErrUnknownLine)
	}
	out := p.Clone()
	out.Monthly = phasing.DistributeEvenly(lineID, p.Lines, p.Monthly, p.FY)
	return out, nil
}

// SetFY changes the financial-year window. Entries outside the new window are kept.
func (p Plan) SetFY(fy model.FYConfig) Plan {
	out := p.Clone()
	out.FY = fy
	return out
}
