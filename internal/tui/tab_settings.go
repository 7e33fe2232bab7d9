package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

const (
	settingsFieldTheme = iota
	settingsFieldCurrency
	settingsFieldFYStart
	settingsFieldStaleDays
	settingsFieldOverrunWarn
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := a.cfgStore.Load()
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldCurrency:
		ti.Placeholder = "GBP"
		ti.SetValue(cfg.General.Currency)
	case settingsFieldFYStart:
		ti.Placeholder = "1-12 (4 = April)"
		ti.SetValue(strconv.Itoa(cfg.Fiscal.StartMonth))
	case settingsFieldStaleDays:
		ti.Placeholder = "30"
		ti.SetValue(strconv.Itoa(cfg.Signals.StaleDays))
	case settingsFieldOverrunWarn:
		ti.Placeholder = "20 (percent over budget before critical)"
		ti.SetValue(strconv.FormatFloat(cfg.Signals.OverrunWarnPercent, 'f', -1, 64))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		reload := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if reload && !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.loadRequest())
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave writes the edited field. It reports whether plans must be
// reparsed for the change to show.
func (a *App) settingsSave() bool {
	cfg := a.cfgStore.Load()
	val := strings.TrimSpace(a.settings.input.Value())
	reload := false

	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldCurrency:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("currency is required")
			return false
		}
		cfg.General.Currency = strings.ToUpper(val)
	case settingsFieldFYStart:
		m, err := strconv.Atoi(val)
		if err != nil || m < 1 || m > 12 {
			a.settings.saveErr = fmt.Errorf("start month must be 1-12")
			return false
		}
		cfg.Fiscal.StartMonth = m
		a.opts.Parse.DefaultFY = cfg.DefaultFY(time.Now())
		reload = true
	case settingsFieldStaleDays:
		d, err := strconv.Atoi(val)
		if err != nil || d < 0 {
			a.settings.saveErr = fmt.Errorf("stale days must be a whole number")
			return false
		}
		cfg.Signals.StaleDays = d
	case settingsFieldOverrunWarn:
		pct, err := strconv.ParseFloat(val, 64)
		if err != nil || pct < 0 {
			a.settings.saveErr = fmt.Errorf("overrun percent must be a positive number")
			return false
		}
		cfg.Signals.OverrunWarnPercent = pct
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
		a.autoRefresh = cfg.TUI.AutoRefresh
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || sec < minRefreshSec {
			a.settings.saveErr = fmt.Errorf("interval must be at least %ds", minRefreshSec)
			return false
		}
		cfg.TUI.RefreshInterval = sec
		a.refreshInterval = time.Duration(sec) * time.Second
	}

	a.settings.saveErr = a.cfgStore.Save(cfg)
	a.cfg = cfg
	a.engine = signals.NewEngine(cfg.SignalConfig(), nil)
	a.recompute()
	return reload
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Healthy).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}
	fields := []field{
		{"Theme", cfg.Appearance.Theme},
		{"Currency", cfg.General.Currency},
		{"FY Start Month", monthName(cfg.Fiscal.StartMonth)},
		{"Stale After", fmt.Sprintf("%d days", cfg.Signals.StaleDays)},
		{"Overrun Warning", strconv.FormatFloat(cfg.Signals.OverrunWarnPercent, 'f', -1, 64) + "%"},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Plans directory: ") + valueStyle.Render(a.plansDir) + "\n")
	infoBody.WriteString(labelStyle.Render("Plans loaded:    ") + valueStyle.Render(cli.FormatNumber(int64(len(a.plans)))) + "\n")
	infoBody.WriteString(labelStyle.Render("Files skipped:   ") + valueStyle.Render(cli.FormatNumber(int64(len(a.fileErrors)))) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(a.cfgStore.Path) + "\n")
	cache := pipeline.CachePath()
	if a.opts.NoCache {
		cache = "(disabled)"
	}
	infoBody.WriteString(labelStyle.Render("Cache:           ") + valueStyle.Render(cache))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
