package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// linesState holds the cost lines tab state.
type linesState struct {
	cursor       int
	offset       int // scroll offset for the list
	detailScroll int

	searching   bool
	searchInput textinput.Model
	query       string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "id, description or category"
	ti.CharLimit = 64
	ti.Width = 30
	ti.Prompt = "/ "
	return ti
}

func (a App) updateLinesSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.lines.query = strings.TrimSpace(a.lines.searchInput.Value())
		a.lines.searching = false
		a.lines.cursor, a.lines.offset, a.lines.detailScroll = 0, 0, 0
		return a, nil
	case "esc":
		a.lines.searching = false
		return a, nil
	}
	var cmd tea.Cmd
	a.lines.searchInput, cmd = a.lines.searchInput.Update(msg)
	return a, cmd
}

// searchFilteredLines returns the report's lines matching the current query.
func (a App) searchFilteredLines(rep pipeline.Report) []pipeline.LineRow {
	q := strings.ToLower(a.lines.query)
	if q == "" {
		return rep.Lines
	}
	var out []pipeline.LineRow
	for _, lr := range rep.Lines {
		l := lr.Line
		if strings.Contains(strings.ToLower(l.ID), q) ||
			strings.Contains(strings.ToLower(l.Description), q) ||
			strings.Contains(strings.ToLower(string(l.Category)), q) ||
			strings.Contains(strings.ToLower(cli.CategoryLabel(l.Category)), q) {
			out = append(out, lr)
		}
	}
	return out
}

// selectedLine returns the line under the cursor.
func (a App) selectedLine() (pipeline.LineRow, bool) {
	rep, ok := a.report()
	if !ok {
		return pipeline.LineRow{}, false
	}
	lines := a.searchFilteredLines(rep)
	if a.lines.cursor < 0 || a.lines.cursor >= len(lines) {
		return pipeline.LineRow{}, false
	}
	return lines[a.lines.cursor], true
}

func (a App) renderLinesTab(cw, h int) string {
	t := theme.Active
	rep, _ := a.report()
	lines := a.searchFilteredLines(rep)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(lines) == 0 {
		msg := "No cost lines"
		if a.lines.query != "" {
			msg = fmt.Sprintf("No lines match %q  [Esc] clear", a.lines.query)
		}
		return components.ContentCard("Cost Lines", muted.Render(msg), cw)
	}

	leftW := max(38, cw*2/5)
	rightW := cw - leftW
	if a.isCompactLayout() {
		leftW = cw
		rightW = 0
	}

	leftCard := components.ContentCard(a.linesTitle(len(lines)), a.renderLineList(lines, components.CardInnerWidth(leftW), h), leftW)
	if rightW == 0 {
		return leftCard
	}

	sel := lines[clamp(a.lines.cursor, 0, len(lines)-1)]
	body := a.renderLineDetail(rep, sel, components.CardInnerWidth(rightW))
	body = scrollBody(body, a.lines.detailScroll, max(minContentHeight, h-2))
	rightCard := components.ContentCard(cli.Truncate(cli.LineLabel(sel.Line), rightW-8), body, rightW)

	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) linesTitle(n int) string {
	if a.lines.query != "" {
		return fmt.Sprintf("Cost Lines (%d matching %q)", n, a.lines.query)
	}
	return fmt.Sprintf("Cost Lines (%d)", n)
}

func (a App) renderLineList(lines []pipeline.LineRow, innerW, h int) string {
	t := theme.Active
	rep, _ := a.report()

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	overStyle := lipgloss.NewStyle().Foreground(t.OverBudget).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	amountW := 11
	nameW := max(10, innerW-amountW*2-4)

	var b strings.Builder
	if a.lines.searching {
		b.WriteString(a.lines.searchInput.View())
		b.WriteString("\n")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %*s %*s", nameW, "Line", amountW, "Budgeted", amountW, "Forecast")))
	b.WriteString("\n")

	visible := max(3, h-6) // card border (2) + header (1) + footer hint (2) + search
	offset := a.lines.offset
	if a.lines.cursor < offset {
		offset = a.lines.cursor
	}
	if a.lines.cursor >= offset+visible {
		offset = a.lines.cursor - visible + 1
	}
	end := min(offset+visible, len(lines))

	for i := offset; i < end; i++ {
		lr := lines[i]
		marker := "  "
		style := rowStyle
		if i == a.lines.cursor {
			marker = "▸ "
			style = selectedStyle
		}
		row := fmt.Sprintf("%s%-*s %*s %*s", marker,
			nameW, cli.Truncate(cli.LineLabel(lr.Line), nameW),
			amountW, cli.FormatCompact(model.OrZero(lr.Line.Budgeted), rep.Currency),
			amountW, cli.FormatCompact(model.OrZero(lr.Line.Forecast), rep.Currency))
		if lr.Over && i != a.lines.cursor {
			style = overStyle
		}
		b.WriteString(style.Width(innerW).Render(row))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("[/] search  [Enter] phasing  [J/K] scroll detail"))
	return b.String()
}

// renderLineDetail shows one line's figures, reconciliation and resources.
func (a App) renderLineDetail(rep pipeline.Report, lr pipeline.LineRow, innerW int) string {
	t := theme.Active
	cur := rep.Currency
	l := lr.Line

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Healthy).Background(t.Surface)
	badStyle := lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface)
	rule := labelStyle.Render(strings.Repeat("─", max(0, innerW)))

	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(l.ID + " · " + cli.CategoryLabel(l.Category)))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")

	b.WriteString(field("Budgeted", cli.FormatMoney(l.Budgeted, cur)))
	b.WriteString(field("Actual", cli.FormatMoney(l.Actual, cur)))
	b.WriteString(field("Forecast", cli.FormatMoney(l.Forecast, cur)))
	b.WriteString(field("Utilization", cli.FormatPercent(lr.Utilization)))
	if lr.Over {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", "Overrun")) + badStyle.Render(cli.FormatRatio(lr.Overrun)) + "\n")
	}
	if l.Override {
		b.WriteString(field("Override", "on (rollup skips this line)"))
	}
	if l.Notes != "" {
		b.WriteString(field("Notes", cli.Truncate(l.Notes, max(10, innerW-14))))
	}

	// Reconciliation
	for _, row := range rep.Reconciliation {
		if row.LineID != l.ID {
			continue
		}
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("RECONCILIATION"))
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %14s %14s %12s", "", "Line", "Phased", "Diff")))
		b.WriteString("\n")
		tol := decimal.NewFromFloat(a.engine.Config().ReconcileTolerance)
		recon := func(name string, line model.Money, phased, diff decimal.Decimal) {
			st := okStyle
			if diff.Abs().GreaterThan(tol) {
				st = badStyle
			}
			b.WriteString(valueStyle.Render(fmt.Sprintf("%-10s %14s %14s ", name,
				cli.FormatMoney(line, cur), cli.FormatAmount(phased, cur))))
			b.WriteString(st.Render(fmt.Sprintf("%12s", cli.FormatDelta(model.Amount(diff), cur))))
			b.WriteString("\n")
		}
		recon("Budget", row.CBBudget, row.PhasedBudget, row.BudgetDiff)
		recon("Forecast", row.CBForecast, row.PhasedForecast, row.ForecastDiff)
		if row.AllOK {
			b.WriteString(okStyle.Render("✓ within tolerance"))
		} else {
			b.WriteString(badStyle.Render("✗ out of tolerance, run `finphase reconcile --fix`"))
		}
		b.WriteString("\n")
	}

	// Monthly forecast sparkline
	if p, ok := a.currentPlan(); ok {
		months := p.Monthly[l.ID]
		vals := make([]float64, len(rep.Keys))
		for i, mk := range rep.Keys {
			vals[i] = model.OrZero(months[mk].Forecast).InexactFloat64()
		}
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("MONTHLY FORECAST"))
		b.WriteString("\n")
		b.WriteString(components.Sparkline(vals, t.Forecast))
		b.WriteString(labelStyle.Render("  " + cli.FormatMoney(lr.Phased.Forecast, cur) + " phased"))
		b.WriteString("\n")
	}

	// Linked resources
	var linked []pipeline.ResourceCost
	for _, rc := range rep.Resources {
		if rc.Resource.CostLineID == l.ID {
			linked = append(linked, rc)
		}
	}
	if len(linked) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("RESOURCES (%d)", len(linked))))
		b.WriteString("\n")
		nameW := max(10, innerW-30)
		for _, rc := range linked {
			cost := cli.Blank
			if rc.Costable {
				cost = cli.FormatMoney(model.Amount(rc.Amortization.TotalCost), cur)
			}
			b.WriteString(valueStyle.Render(fmt.Sprintf("%-*s %6s %14s",
				nameW, cli.Truncate(resourceName(rc.Resource), nameW),
				fmt.Sprintf("%dm", rc.Amortization.DurationMonths), cost)))
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func resourceName(r model.Resource) string {
	switch {
	case r.Name != "" && r.Role != "":
		return r.Name + " (" + r.Role + ")"
	case r.Name != "":
		return r.Name
	case r.Role != "":
		return r.Role
	}
	return r.ID
}

// scrollBody drops the first offset lines of s, keeping at least one page.
func scrollBody(s string, offset, page int) string {
	lines := strings.Split(s, "\n")
	offset = clamp(offset, 0, len(lines)-page)
	return strings.Join(lines[offset:], "\n")
}
