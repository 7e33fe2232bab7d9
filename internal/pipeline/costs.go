package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/plan"
)

// CategoryCosts holds line totals and phased totals for one category.
type CategoryCosts struct {
	Category  model.Category
	LineCount int
	Budgeted  decimal.Decimal
	Forecast  decimal.Decimal
	Actual    decimal.Decimal
	Phased    phasing.Totals
}

func (c *CategoryCosts) add(o CategoryCosts) {
	c.LineCount += o.LineCount
	c.Budgeted = c.Budgeted.Add(o.Budgeted)
	c.Forecast = c.Forecast.Add(o.Forecast)
	c.Actual = c.Actual.Add(o.Actual)
	c.Phased = c.Phased.Plus(o.Phased)
}

// CategoryBreakdown groups a plan's lines by category, sorted by
// descending phased forecast.
func CategoryBreakdown(p plan.Plan) []CategoryCosts {
	keys := p.Keys()
	byCat := make(map[model.Category]*CategoryCosts)
	for _, l := range p.Lines {
		acc, ok := byCat[l.Category]
		if !ok {
			acc = &CategoryCosts{Category: l.Category}
			byCat[l.Category] = acc
		}
		acc.add(CategoryCosts{
			LineCount: 1,
			Budgeted:  model.OrZero(l.Budgeted),
			Forecast:  model.OrZero(l.Forecast),
			Actual:    model.OrZero(l.Actual),
			Phased:    phasing.LineTotal(p.Monthly, l.ID, keys),
		})
	}
	return sortedCategories(byCat)
}

func sortedCategories(byCat map[model.Category]*CategoryCosts) []CategoryCosts {
	out := make([]CategoryCosts, 0, len(byCat))
	for _, c := range byCat {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := model.OrZero(out[i].Phased.Forecast), model.OrZero(out[j].Phased.Forecast)
		if !fi.Equal(fj) {
			return fi.GreaterThan(fj)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ResourceCost is one resource's amortized cost within the plan window.
type ResourceCost struct {
	Resource     model.Resource
	Amortization phasing.Amortization
	Costable     bool
}

// ResourceBreakdown amortizes every resource, sorted by descending total cost.
func ResourceBreakdown(p plan.Plan) []ResourceCost {
	keys := p.Keys()
	out := make([]ResourceCost, 0, len(p.Resources))
	for _, r := range p.Resources {
		a, ok := phasing.Amortize(r, keys)
		out = append(out, ResourceCost{Resource: r, Amortization: a, Costable: ok})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amortization.TotalCost.GreaterThan(out[j].Amortization.TotalCost)
	})
	return out
}
