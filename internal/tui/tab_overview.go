package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	rep, ok := a.report()
	if !ok {
		return ""
	}
	cur := rep.Currency
	var b strings.Builder

	// Row 1: metric cards
	forecast := model.OrZero(rep.Total.Forecast)
	budget := model.OrZero(rep.Total.Budget)
	approved := rep.ApprovedBudget
	if !approved.IsPositive() {
		approved = budget
	}

	fcMetric := components.Metric{Label: "Forecast", Value: cli.FormatCompact(forecast, cur)}
	if ratio, over := phasing.Overrun(forecast, approved); over {
		fcMetric.Delta = "over by " + cli.FormatRatio(ratio)
		fcMetric.Alert = true
	} else if approved.IsPositive() {
		fcMetric.Delta = cli.FormatCompact(approved.Sub(forecast), cur) + " headroom"
	}

	actMetric := components.Metric{Label: "Actual", Value: cli.FormatCompact(model.OrZero(rep.Total.Actual), cur)}
	if u := phasing.Utilization(rep.Total.Actual, model.Amount(approved)); u.Valid {
		actMetric.Delta = cli.FormatPercent(u) + " of budget"
	}

	counts := rep.CountBySeverity()
	sigMetric := components.Metric{
		Label: "Signals",
		Value: cli.FormatNumber(int64(len(rep.Signals))),
		Delta: fmt.Sprintf("%d critical · %d warning", counts[model.SeverityCritical], counts[model.SeverityWarning]),
		Alert: counts[model.SeverityCritical] > 0,
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Approved", Value: cli.FormatCompact(approved, cur), Delta: cli.FormatCompact(budget, cur) + " phased"},
		fcMetric,
		actMetric,
		sigMetric,
	}, cw))
	b.WriteString("\n")

	// Row 2: monthly forecast chart, months over budget in red
	if len(rep.Months) > 0 {
		s := components.BarSeries{Color: t.Forecast}
		for _, m := range rep.Months {
			f := model.OrZero(m.Totals.Forecast)
			s.Values = append(s.Values, f.InexactFloat64())
			s.Labels = append(s.Labels, shortMonth(m.Month))
			s.Over = append(s.Over, m.Totals.Budget.Valid && f.GreaterThan(m.Totals.Budget.Decimal))
		}
		chartH := 10
		if a.isCompactLayout() {
			chartH = 7
		}
		b.WriteString(components.ContentCard(
			"Monthly Forecast",
			components.BarChart(s, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	// Row 3: quarters | categories
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Quarters", a.renderQuarterBars(rep, components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Categories", a.renderCategoryBars(rep.Categories, cur, components.CardInnerWidth(cw)), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Quarters", a.renderQuarterBars(rep, components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard("Categories", a.renderCategoryBars(rep.Categories, cur, components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}

	// Row 4: other plans
	if len(a.portfolio.Reports) > 1 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Portfolio (%d plans)", a.portfolio.PlanCount),
			a.renderPortfolioList(components.CardInnerWidth(cw)),
			cw,
		))
	}

	return b.String()
}

// renderQuarterBars draws forecast against budget for each quarter.
func (a App) renderQuarterBars(rep pipeline.Report, innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(rep.Quarters) == 0 {
		return muted.Render("No months in window")
	}

	labelW := 8
	detailW := 24
	barW := max(10, innerW-labelW-detailW-8)

	var b strings.Builder
	for i, q := range rep.Quarters {
		forecast := model.OrZero(q.Totals.Forecast)
		budget := model.OrZero(q.Totals.Budget)
		pct := 0.0
		if budget.IsPositive() {
			pct = forecast.Div(budget).InexactFloat64()
		}
		detail := cli.FormatCompact(forecast, rep.Currency) + " / " + cli.FormatCompact(budget, rep.Currency)
		b.WriteString(components.BudgetBar(q.Quarter.Label, pct, detail, labelW, barW))
		if i < len(rep.Quarters)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderCategoryBars draws each category's share of phased forecast.
func (a App) renderCategoryBars(cats []pipeline.CategoryCosts, cur string, innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(cats) == 0 {
		return muted.Render("No cost lines")
	}

	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(model.OrZero(c.Phased.Forecast))
	}

	labelW := 22
	detailW := 10
	barW := max(8, innerW-labelW-detailW-8)

	var b strings.Builder
	for i, c := range cats {
		pct := 0.0
		if total.IsPositive() {
			pct = model.OrZero(c.Phased.Forecast).Div(total).InexactFloat64()
		}
		label := cli.Truncate(cli.CategoryLabel(c.Category), labelW)
		b.WriteString(shareBar(label, pct, cli.FormatCompact(model.OrZero(c.Phased.Forecast), cur), labelW, barW))
		if i < len(cats)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// shareBar is a BudgetBar in the accent color; shares are never "over".
func shareBar(label string, pct float64, detail string, labelW, barW int) string {
	t := theme.Active
	filled := int(pct * float64(barW))
	filled = max(0, min(filled, barW))

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		barStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", barW-filled)) +
		spaceStyle.Render(" ") +
		valStyle.Render(fmt.Sprintf("%4.0f%%", pct*100)) +
		spaceStyle.Render("  ") +
		labelStyle.Render(detail)
}

func (a App) renderPortfolioList(innerW int) string {
	t := theme.Active
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	critStyle := lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface)

	nameW := max(12, innerW-52)
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-*s %14s %14s %8s", nameW, "Plan", "Forecast", "Approved", "Signals")))
	for i, r := range a.portfolio.Reports {
		b.WriteString("\n")
		style := rowStyle
		marker := "  "
		if i == a.planIdx {
			style = selStyle
			marker = "▸ "
		}
		counts := r.CountBySeverity()
		sig := fmt.Sprintf("%8d", len(r.Signals))
		b.WriteString(style.Render(fmt.Sprintf("%s%-*s %14s %14s ",
			marker, nameW, cli.Truncate(planTitle(r), nameW),
			cli.FormatCompact(model.OrZero(r.Total.Forecast), r.Currency),
			cli.FormatCompact(r.ApprovedBudget, r.Currency))))
		if counts[model.SeverityCritical] > 0 {
			b.WriteString(critStyle.Render(sig))
		} else {
			b.WriteString(mutedStyle.Render(sig))
		}
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-*s %14s %14s",
		nameW, "Total", cli.FormatCompact(a.portfolio.Forecast(), ""),
		cli.FormatCompact(a.portfolio.ApprovedBudget, ""))))
	return b.String()
}

// planTitle returns "id · name", or just the ID when unnamed.
func planTitle(r pipeline.Report) string {
	if r.Name == "" || r.Name == r.PlanID {
		return r.PlanID
	}
	return r.PlanID + " · " + r.Name
}

// fyRange renders the window, e.g. "Apr 2024 – Mar 2025".
func fyRange(r pipeline.Report) string {
	if len(r.Keys) == 0 {
		return "-"
	}
	return r.Keys[0].Label() + " – " + r.Keys[len(r.Keys)-1].Label()
}

// shortMonth renders a key as a three-letter month for chart axes.
func shortMonth(k model.MonthKey) string {
	l := k.Label()
	if i := strings.IndexByte(l, ' '); i > 0 {
		return l[:i]
	}
	return l
}
