package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/plan"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// phasingState holds the phasing tab state.
type phasingState struct {
	// line shows the selected cost line instead of the plan total.
	line bool
}

func (a App) currentPlan() (plan.Plan, bool) {
	if a.planIdx < 0 || a.planIdx >= len(a.plans) {
		return plan.Plan{}, false
	}
	return a.plans[a.planIdx].Plan, true
}

func (a App) renderPhasingTab(cw int) string {
	t := theme.Active
	rep, _ := a.report()
	p, ok := a.currentPlan()
	if !ok {
		return ""
	}

	title := "Monthly Phasing"
	monthTotals := func(mk model.MonthKey) phasing.Totals { return phasing.MonthTotal(p.Monthly, mk) }
	if a.phase.line {
		if lr, ok := a.selectedLine(); ok {
			id := lr.Line.ID
			title = "Monthly Phasing: " + cli.LineLabel(lr.Line)
			monthTotals = func(mk model.MonthKey) phasing.Totals {
				return phasing.LineTotal(p.Monthly, id, []model.MonthKey{mk})
			}
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	quarterStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	totalStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	overStyle := lipgloss.NewStyle().Foreground(t.OverBudget).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	innerW := components.CardInnerWidth(cw)
	cols := phasingColumns(innerW)

	var b strings.Builder
	b.WriteString(headerStyle.Render(cols.row("Month", "Budget", "Actual", "Forecast", "Movement", "Customer", "Margin")))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	b.WriteString("\n")

	cur := rep.Currency
	keys := rep.Keys
	var year phasing.Totals
	for _, q := range p.Quarters() {
		var qt phasing.Totals
		for _, mk := range q.Months {
			mt := monthTotals(mk)
			qt = qt.Plus(mt)
			style := rowStyle
			if mt.Budget.Valid && model.OrZero(mt.Forecast).GreaterThan(mt.Budget.Decimal) {
				style = overStyle
			}
			b.WriteString(style.Render(cols.totals(mk.Label(), mt, cur, movement(mk, keys, monthTotals))))
			b.WriteString("\n")
		}
		year = year.Plus(qt)
		b.WriteString(quarterStyle.Render(cols.totals("  "+q.Label, qt, cur, model.Unset)))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	b.WriteString("\n")
	b.WriteString(totalStyle.Render(cols.totals("FY total", year, cur, model.Unset)))
	b.WriteString("\n\n")

	hint := "[t] show selected line"
	if a.phase.line {
		hint = "[t] show plan total"
	}
	b.WriteString(mutedStyle.Render(hint + "  [l] pick a line"))

	return components.ContentCard(title, b.String(), cw)
}

// phasingLayout sizes the grid columns to the card width.
type phasingLayout struct {
	label  int
	amount int
}

func phasingColumns(innerW int) phasingLayout {
	label := 12
	amount := max(10, (innerW-label-6)/6)
	return phasingLayout{label: label, amount: amount}
}

func (c phasingLayout) row(label string, cells ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", c.label, label)
	for _, cell := range cells {
		fmt.Fprintf(&b, " %*s", c.amount, cli.Truncate(cell, c.amount))
	}
	return b.String()
}

func (c phasingLayout) totals(label string, t phasing.Totals, cur string, mv model.Money) string {
	return c.row(label,
		cli.FormatMoney(t.Budget, cur),
		cli.FormatMoney(t.Actual, cur),
		cli.FormatMoney(t.Forecast, cur),
		cli.FormatDelta(mv, cur),
		cli.FormatMoney(t.CustomerRate, cur),
		cli.FormatPercent(pipeline.MarginOf(t)),
	)
}

// movement is the month-on-month forecast change; unset for the first month.
func movement(mk model.MonthKey, keys []model.MonthKey, monthTotals func(model.MonthKey) phasing.Totals) model.Money {
	i := phasing.IndexOf(keys, mk)
	if i <= 0 {
		return model.Unset
	}
	curr, prev := model.OrZero(monthTotals(mk).Forecast), model.OrZero(monthTotals(keys[i-1]).Forecast)
	return model.Amount(curr.Sub(prev))
}
