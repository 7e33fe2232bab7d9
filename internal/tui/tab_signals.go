package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// signalsState holds the signals tab state.
type signalsState struct {
	cursor int
	offset int
	// minRank hides signals below this severity rank; 0 shows all.
	minRank int
}

var filterNames = []string{"all", "info+", "warning+", "critical"}

// filteredSignals returns the report's signals at or above the filter.
func (a App) filteredSignals(rep pipeline.Report) []model.Signal {
	if a.sigs.minRank == 0 {
		return rep.Signals
	}
	var out []model.Signal
	for _, s := range rep.Signals {
		if s.Severity.Rank() >= a.sigs.minRank {
			out = append(out, s)
		}
	}
	return out
}

func severityColor(s model.Severity) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.SeverityCritical:
		return t.Critical
	case model.SeverityWarning:
		return t.Warning
	default:
		return t.Info
	}
}

func (a App) renderSignalsTab(cw, h int) string {
	t := theme.Active
	rep, _ := a.report()
	sigs := a.filteredSignals(rep)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	title := fmt.Sprintf("Signals (%d, %s)", len(sigs), filterNames[a.sigs.minRank])

	if len(sigs) == 0 {
		okStyle := lipgloss.NewStyle().Foreground(t.Healthy).Background(t.Surface)
		body := okStyle.Render("✓ No signals") + "\n\n" + mutedStyle.Render("[f] change filter")
		return components.ContentCard(title, body, cw)
	}

	leftW := max(40, cw/2)
	rightW := cw - leftW
	if a.isCompactLayout() {
		leftW, rightW = cw, 0
	}

	leftInner := components.CardInnerWidth(leftW)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	visible := max(3, h-5)
	cursor := clamp(a.sigs.cursor, 0, len(sigs)-1)
	offset := a.sigs.offset
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(sigs))

	var list strings.Builder
	for i := offset; i < end; i++ {
		s := sigs[i]
		bg := t.Surface
		style := rowStyle
		marker := "  "
		if i == cursor {
			bg = t.SurfaceBright
			style = selectedStyle
			marker = "▸ "
		}
		badge := lipgloss.NewStyle().Foreground(severityColor(s.Severity)).Background(bg).Bold(true).
			Render(fmt.Sprintf("%-4s", severityShort(s.Severity)))
		text := cli.Truncate(s.Title, max(10, leftInner-8))
		line := style.Render(marker) + badge + style.Render(" "+text)
		if pad := leftInner - lipgloss.Width(line); pad > 0 {
			line += lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", pad))
		}
		list.WriteString(line)
		list.WriteString("\n")
	}
	list.WriteString(mutedStyle.Render("[j/k] navigate  [f] filter"))

	leftCard := components.ContentCard(title, list.String(), leftW)
	if rightW == 0 {
		return leftCard
	}

	sel := sigs[cursor]
	rightCard := components.ContentCard(sel.Code, renderSignalDetail(sel, rep, components.CardInnerWidth(rightW)), rightW)
	return components.CardRow([]string{leftCard, rightCard})
}

func renderSignalDetail(s model.Signal, rep pipeline.Report, innerW int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	titleStyle := lipgloss.NewStyle().Foreground(severityColor(s.Severity)).Background(t.Surface).Bold(true)
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Title))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(strings.Repeat("─", max(0, innerW))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Severity  ") + valueStyle.Render(string(s.Severity)) + "\n")
	b.WriteString(labelStyle.Render("Scope     ") + valueStyle.Render(string(s.Scope)+" "+s.ScopeKey) + "\n\n")
	b.WriteString(valueStyle.Width(innerW).Render(s.Detail))
	b.WriteString("\n")

	if len(s.AffectedLines) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("AFFECTED LINES"))
		b.WriteString("\n")
		for _, id := range s.AffectedLines {
			label := id
			for _, lr := range rep.Lines {
				if lr.Line.ID == id {
					label = id + "  " + cli.LineLabel(lr.Line)
					break
				}
			}
			b.WriteString(valueStyle.Render("• " + cli.Truncate(label, max(10, innerW-2))))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func severityShort(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "CRIT"
	case model.SeverityWarning:
		return "WARN"
	default:
		return "INFO"
	}
}
