package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/finphase/internal/config"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// SetupValues backs the first-run form.
type SetupValues struct {
	PlansDir   string
	Currency   string
	StartMonth int
	Theme      string
}

// NewSetupValues seeds the form from cfg.
func NewSetupValues(cfg config.Config) SetupValues {
	return SetupValues{
		PlansDir:   cfg.ResolvePlansDir(),
		Currency:   cfg.General.Currency,
		StartMonth: cfg.Fiscal.StartMonth,
		Theme:      cfg.Appearance.Theme,
	}
}

// Apply copies the answers into cfg.
func (v SetupValues) Apply(cfg config.Config) config.Config {
	if dir := strings.TrimSpace(v.PlansDir); dir != "" {
		cfg.General.PlansDir = dir
	}
	if cur := strings.ToUpper(strings.TrimSpace(v.Currency)); cur != "" {
		cfg.General.Currency = cur
	}
	if v.StartMonth >= 1 && v.StartMonth <= 12 {
		cfg.Fiscal.StartMonth = v.StartMonth
	}
	if theme.Valid(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
	return cfg
}

var currencyOptions = []string{"GBP", "EUR", "USD", "JPY", "INR"}

// NewSetupForm builds the first-run form. planCount and dir describe what
// was found on disk.
func NewSetupForm(planCount int, dir string, vals *SetupValues) *huh.Form {
	monthOpts := make([]huh.Option[int], 0, 12)
	for m := 1; m <= 12; m++ {
		monthOpts = append(monthOpts, huh.NewOption(time.Month(m).String(), m))
	}
	curOpts := make([]huh.Option[string], 0, len(currencyOptions))
	for _, c := range currencyOptions {
		curOpts = append(curOpts, huh.NewOption(c, c))
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	found := "No plans found yet."
	if planCount > 0 {
		found = fmt.Sprintf("Found %d plans in %s.", planCount, dir)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to finphase").
				Description(found+"\nA few defaults and you're set."),
			huh.NewInput().
				Title("Plans directory").
				Description("Where plan files (.toml, .yaml, .json) live").
				Value(&vals.PlansDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a directory is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Display currency").
				Options(curOpts...).
				Value(&vals.Currency),
			huh.NewSelect[int]().
				Title("Financial year starts in").
				Options(monthOpts...).
				Value(&vals.StartMonth),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

// saveSetupConfig writes the form answers and applies them to the running app.
func (a *App) saveSetupConfig() error {
	cfg := a.setupVals.Apply(a.cfgStore.Load())
	theme.SetActive(cfg.Appearance.Theme)
	a.plansDir = cfg.ResolvePlansDir()
	a.cfg = cfg
	return a.cfgStore.Save(cfg)
}

// monthName renders a 1-12 month for settings display.
func monthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return time.Month(m).String()
}
