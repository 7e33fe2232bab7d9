package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. plan names the plan on
// screen; dataAge describes the last load.
func RenderStatusBar(width int, plan, dataAge string, refreshing, autoRefresh bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	accent := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := style.Render(" [?]help  [ ]plan  [r]efresh  [q]uit")
	if plan != "" {
		left += style.Render("  │ ") + accent.Render(plan)
	}

	var right string
	switch {
	case refreshing:
		right = accent.Render("refreshing… ")
	case dataAge != "":
		right = style.Render(dataAge + " ")
	}
	if autoRefresh {
		right = accent.Render("↻ ") + right
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + style.Render(strings.Repeat(" ", padding)) + right
}
