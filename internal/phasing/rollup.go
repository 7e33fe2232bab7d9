package phasing

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

// Proposal is a rollup result for one (line, month) cell.
type Proposal struct {
	Forecast decimal.Decimal
	// Budget is only set when the existing cell has no budget yet.
	Budget model.Money
}

// Proposals maps line ID to month to proposal.
type Proposals map[string]map[model.MonthKey]Proposal

// Contributions sums each linked resource's schedule per line and month.
// Unlinked resources, resources whose line is missing and override lines
// are skipped.
func Contributions(resources []model.Resource, lines []model.CostLine, keys []model.MonthKey) map[string]map[model.MonthKey]decimal.Decimal {
	idx := model.LineIndex(lines)
	sums := make(map[string]map[model.MonthKey]decimal.Decimal)
	for _, r := range resources {
		if !r.Linked() {
			continue
		}
		line, ok := idx[r.CostLineID]
		if !ok || line.Override {
			continue
		}
		a, ok := Amortize(r, keys)
		if !ok {
			continue
		}
		months, ok := sums[line.ID]
		if !ok {
			months = make(map[model.MonthKey]decimal.Decimal)
			sums[line.ID] = months
		}
		for mk, v := range a.Schedule {
			months[mk] = months[mk].Add(v)
		}
	}
	return sums
}

// ProposeRollup computes the budget/forecast writes a rollup would make.
func ProposeRollup(resources []model.Resource, lines []model.CostLine, monthly model.MonthlyData, keys []model.MonthKey) Proposals {
	proposals := make(Proposals)
	for lineID, months := range Contributions(resources, lines, keys) {
		out := make(map[model.MonthKey]Proposal, len(months))
		for mk, sum := range months {
			p := Proposal{Forecast: sum}
			existing, _ := monthly.Entry(lineID, mk)
			if !model.IsSetNonZero(existing.Budget) {
				p.Budget = model.Amount(sum)
			}
			out[mk] = p
		}
		proposals[lineID] = out
	}
	return proposals
}

// Rollup writes linked resources' amortized costs into a copy of monthly.
// Lines with no contributing resource are left untouched.
func Rollup(resources []model.Resource, lines []model.CostLine, monthly model.MonthlyData, fy model.FYConfig) model.MonthlyData {
	keys := BuildMonthKeys(fy)
	return Merge(monthly, ProposeRollup(resources, lines, monthly, keys))
}
