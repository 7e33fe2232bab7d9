// Package pipeline orchestrates plan loading, caching, and report aggregation.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/plan"
	"github.com/theirongolddev/finphase/internal/signals"
)

// MonthRow is one month of the phasing grid.
type MonthRow struct {
	Month    model.MonthKey
	Totals   phasing.Totals
	Movement model.Money
	Margin   model.Money
}

// QuarterRow is one quarter's totals.
type QuarterRow struct {
	Quarter model.Quarter
	Totals  phasing.Totals
	Margin  model.Money
}

// LineRow is one cost line with its phased totals.
type LineRow struct {
	Line        model.CostLine
	Phased      phasing.Totals
	Utilization model.Money
	Overrun     decimal.Decimal
	Over        bool
}

// Report is everything derived from one plan snapshot.
type Report struct {
	PlanID         string
	Name           string
	Currency       string
	FY             model.FYConfig
	LastUpdatedAt  time.Time
	Keys           []model.MonthKey
	Months         []MonthRow
	Quarters       []QuarterRow
	Lines          []LineRow
	Categories     []CategoryCosts
	Resources      []ResourceCost
	Total          phasing.Totals
	ApprovedBudget decimal.Decimal
	Reconciliation []phasing.ReconciliationRow
	Signals        []model.Signal
}

// Unreconciled returns the reconciliation rows that are out of tolerance.
func (r Report) Unreconciled() []phasing.ReconciliationRow {
	var out []phasing.ReconciliationRow
	for _, row := range r.Reconciliation {
		if !row.AllOK {
			out = append(out, row)
		}
	}
	return out
}

// CountBySeverity tallies signals per severity.
func (r Report) CountBySeverity() map[model.Severity]int {
	out := make(map[model.Severity]int, 3)
	for _, s := range r.Signals {
		out[s.Severity]++
	}
	return out
}

// Evaluate derives the full report for p. Margins treat customer rate as
// revenue and forecast as cost.
func Evaluate(p plan.Plan, engine *signals.Engine, ext *signals.ExternalContext) Report {
	keys := p.Keys()
	rep := Report{
		PlanID:         p.ID,
		Name:           p.Name,
		Currency:       p.Currency,
		FY:             p.FY,
		LastUpdatedAt:  p.LastUpdatedAt,
		Keys:           keys,
		Total:          phasing.GrandTotal(p.Monthly, keys),
		ApprovedBudget: signals.ApprovedBudget(p.ApprovedBudget, p.Lines),
		Reconciliation: p.Reconcile(engine.Config().ReconcileTolerance),
		Signals:        p.Signals(engine, ext),
		Categories:     CategoryBreakdown(p),
		Resources:      ResourceBreakdown(p),
	}

	for _, mk := range keys {
		t := phasing.MonthTotal(p.Monthly, mk)
		rep.Months = append(rep.Months, MonthRow{
			Month:    mk,
			Totals:   t,
			Movement: phasing.ForecastMovement(p.Monthly, keys, mk),
			Margin:   MarginOf(t),
		})
	}
	for _, q := range p.Quarters() {
		t := phasing.QuarterTotal(p.Monthly, q)
		rep.Quarters = append(rep.Quarters, QuarterRow{Quarter: q, Totals: t, Margin: MarginOf(t)})
	}
	for _, l := range p.Lines {
		t := phasing.LineTotal(p.Monthly, l.ID, keys)
		row := LineRow{Line: l, Phased: t, Utilization: phasing.Utilization(t.Actual, l.Budgeted)}
		row.Overrun, row.Over = phasing.Overrun(model.OrZero(t.Forecast), model.OrZero(l.Budgeted))
		rep.Lines = append(rep.Lines, row)
	}
	return rep
}

// MarginOf returns the margin of t with customer rate as revenue and forecast as cost.
func MarginOf(t phasing.Totals) model.Money {
	return phasing.Margin(model.OrZero(t.CustomerRate), model.OrZero(t.Forecast))
}

// Portfolio is the roll-up of many plan reports.
type Portfolio struct {
	Reports        []Report
	PlanCount      int
	Total          phasing.Totals
	ApprovedBudget decimal.Decimal
	Signals        map[model.Severity]int
	Unreconciled   int
	Categories     []CategoryCosts
}

// Forecast returns the portfolio forecast total, zero when unset.
func (p Portfolio) Forecast() decimal.Decimal {
	return model.OrZero(p.Total.Forecast)
}

// AggregatePortfolio evaluates every loaded plan concurrently and combines
// the results. Reports are returned in input order.
func AggregatePortfolio(ctx context.Context, plans []LoadedPlan, engine *signals.Engine) (Portfolio, error) {
	reports := make([]Report, len(plans))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, lp := range plans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = Evaluate(lp.Plan, engine, lp.Exposure)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Portfolio{}, err
	}

	pf := Portfolio{
		Reports:        reports,
		PlanCount:      len(reports),
		ApprovedBudget: decimal.Zero,
		Signals:        make(map[model.Severity]int, 3),
	}
	byCat := make(map[model.Category]*CategoryCosts)
	for _, r := range reports {
		pf.Total = pf.Total.Plus(r.Total)
		pf.ApprovedBudget = pf.ApprovedBudget.Add(r.ApprovedBudget)
		for sev, n := range r.CountBySeverity() {
			pf.Signals[sev] += n
		}
		pf.Unreconciled += len(r.Unreconciled())
		for _, c := range r.Categories {
			acc, ok := byCat[c.Category]
			if !ok {
				acc = &CategoryCosts{Category: c.Category}
				byCat[c.Category] = acc
			}
			acc.add(c)
		}
	}
	pf.Categories = sortedCategories(byCat)
	return pf, nil
}

// SortReports orders reports by descending forecast, then plan ID.
func SortReports(reports []Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		fi, fj := model.OrZero(reports[i].Total.Forecast), model.OrZero(reports[j].Total.Forecast)
		if !fi.Equal(fj) {
			return fi.GreaterThan(fj)
		}
		return reports[i].PlanID < reports[j].PlanID
	})
}
