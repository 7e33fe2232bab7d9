// Package theme defines color themes for the finphase TUI dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the dashboard's color roles to concrete colors.
type Theme struct {
	Name string

	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Active tab
	SurfaceBright lipgloss.Color // Selected row
	Border        lipgloss.Color
	BorderBright  lipgloss.Color // Card borders
	BorderAccent  lipgloss.Color // Focused card borders
	TextDim       lipgloss.Color // Hints, empty bar cells
	TextMuted     lipgloss.Color // Labels, metadata
	TextPrimary   lipgloss.Color
	Accent        lipgloss.Color // Section headers, active tab
	AccentBright  lipgloss.Color // FY totals, selected plan
	AccentDim     lipgloss.Color

	// Signal severities.
	Critical lipgloss.Color
	Warning  lipgloss.Color
	Info     lipgloss.Color

	// Spend against budget: Healthy below 75%, Approaching up to the
	// budget, OverBudget past it.
	Healthy     lipgloss.Color
	Approaching lipgloss.Color
	OverBudget  lipgloss.Color

	// Phasing series.
	Forecast lipgloss.Color
	Actual   lipgloss.Color
	Budget   lipgloss.Color

	KeyHint lipgloss.Color // Key names in help and status bar
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    lipgloss.Color("#100F0F"),
	Surface:       lipgloss.Color("#1C1B1A"),
	SurfaceHover:  lipgloss.Color("#282726"),
	SurfaceBright: lipgloss.Color("#343331"),
	Border:        lipgloss.Color("#403E3C"),
	BorderBright:  lipgloss.Color("#575653"),
	BorderAccent:  lipgloss.Color("#3AA99F"),
	TextDim:       lipgloss.Color("#575653"),
	TextMuted:     lipgloss.Color("#878580"),
	TextPrimary:   lipgloss.Color("#FFFCF0"),
	Accent:        lipgloss.Color("#3AA99F"),
	AccentBright:  lipgloss.Color("#5BC8BE"),
	AccentDim:     lipgloss.Color("#1A3533"),
	Critical:      lipgloss.Color("#D14D41"),
	Warning:       lipgloss.Color("#DA702C"),
	Info:          lipgloss.Color("#205EA6"),
	Healthy:       lipgloss.Color("#879A39"),
	Approaching:   lipgloss.Color("#D0A215"),
	OverBudget:    lipgloss.Color("#AF3029"),
	Forecast:      lipgloss.Color("#4385BE"),
	Actual:        lipgloss.Color("#8B7EC8"),
	Budget:        lipgloss.Color("#24837B"),
	KeyHint:       lipgloss.Color("#3AA99F"),
}

// FlexokiLight is the light variant for bright terminals.
var FlexokiLight = Theme{
	Name:          "flexoki-light",
	Background:    lipgloss.Color("#FFFCF0"),
	Surface:       lipgloss.Color("#F2F0E5"),
	SurfaceHover:  lipgloss.Color("#E6E4D9"),
	SurfaceBright: lipgloss.Color("#DAD8CE"),
	Border:        lipgloss.Color("#CECDC3"),
	BorderBright:  lipgloss.Color("#B7B5AC"),
	BorderAccent:  lipgloss.Color("#24837B"),
	TextDim:       lipgloss.Color("#B7B5AC"),
	TextMuted:     lipgloss.Color("#6F6E69"),
	TextPrimary:   lipgloss.Color("#100F0F"),
	Accent:        lipgloss.Color("#24837B"),
	AccentBright:  lipgloss.Color("#1C6C66"),
	AccentDim:     lipgloss.Color("#DDF1E4"),
	Critical:      lipgloss.Color("#AF3029"),
	Warning:       lipgloss.Color("#BC5215"),
	Info:          lipgloss.Color("#205EA6"),
	Healthy:       lipgloss.Color("#66800B"),
	Approaching:   lipgloss.Color("#AD8301"),
	OverBudget:    lipgloss.Color("#942822"),
	Forecast:      lipgloss.Color("#1A4F8C"),
	Actual:        lipgloss.Color("#5E409D"),
	Budget:        lipgloss.Color("#24837B"),
	KeyHint:       lipgloss.Color("#1C6C66"),
}

// CatppuccinMocha uses the Mocha pastels.
var CatppuccinMocha = Theme{
	Name:          "catppuccin-mocha",
	Background:    lipgloss.Color("#1E1E2E"),
	Surface:       lipgloss.Color("#313244"),
	SurfaceHover:  lipgloss.Color("#45475A"),
	SurfaceBright: lipgloss.Color("#585B70"),
	Border:        lipgloss.Color("#585B70"),
	BorderBright:  lipgloss.Color("#7F849C"),
	BorderAccent:  lipgloss.Color("#94E2D5"),
	TextDim:       lipgloss.Color("#6C7086"),
	TextMuted:     lipgloss.Color("#A6ADC8"),
	TextPrimary:   lipgloss.Color("#CDD6F4"),
	Accent:        lipgloss.Color("#94E2D5"),
	AccentBright:  lipgloss.Color("#B5EDE4"),
	AccentDim:     lipgloss.Color("#2B3B3E"),
	Critical:      lipgloss.Color("#F38BA8"),
	Warning:       lipgloss.Color("#FAB387"),
	Info:          lipgloss.Color("#74C7EC"),
	Healthy:       lipgloss.Color("#A6E3A1"),
	Approaching:   lipgloss.Color("#F9E2AF"),
	OverBudget:    lipgloss.Color("#EBA0AC"),
	Forecast:      lipgloss.Color("#89B4FA"),
	Actual:        lipgloss.Color("#CBA6F7"),
	Budget:        lipgloss.Color("#94E2D5"),
	KeyHint:       lipgloss.Color("#89DCEB"),
}

// TokyoNight uses the Tokyo Night storm palette.
var TokyoNight = Theme{
	Name:          "tokyo-night",
	Background:    lipgloss.Color("#1A1B26"),
	Surface:       lipgloss.Color("#24283B"),
	SurfaceHover:  lipgloss.Color("#343A52"),
	SurfaceBright: lipgloss.Color("#414868"),
	Border:        lipgloss.Color("#565F89"),
	BorderBright:  lipgloss.Color("#7982A9"),
	BorderAccent:  lipgloss.Color("#73DACA"),
	TextDim:       lipgloss.Color("#565F89"),
	TextMuted:     lipgloss.Color("#A9B1D6"),
	TextPrimary:   lipgloss.Color("#C0CAF5"),
	Accent:        lipgloss.Color("#73DACA"),
	AccentBright:  lipgloss.Color("#9AEADD"),
	AccentDim:     lipgloss.Color("#1F3535"),
	Critical:      lipgloss.Color("#F7768E"),
	Warning:       lipgloss.Color("#FF9E64"),
	Info:          lipgloss.Color("#7DCFFF"),
	Healthy:       lipgloss.Color("#9ECE6A"),
	Approaching:   lipgloss.Color("#E0AF68"),
	OverBudget:    lipgloss.Color("#DB4B4B"),
	Forecast:      lipgloss.Color("#7AA2F7"),
	Actual:        lipgloss.Color("#BB9AF7"),
	Budget:        lipgloss.Color("#73DACA"),
	KeyHint:       lipgloss.Color("#2AC3DE"),
}

// Terminal sticks to the 16 ANSI colors.
var Terminal = Theme{
	Name:          "terminal",
	Background:    lipgloss.Color("0"),
	Surface:       lipgloss.Color("0"),
	SurfaceHover:  lipgloss.Color("8"),
	SurfaceBright: lipgloss.Color("8"),
	Border:        lipgloss.Color("8"),
	BorderBright:  lipgloss.Color("7"),
	BorderAccent:  lipgloss.Color("6"),
	TextDim:       lipgloss.Color("8"),
	TextMuted:     lipgloss.Color("7"),
	TextPrimary:   lipgloss.Color("15"),
	Accent:        lipgloss.Color("6"),
	AccentBright:  lipgloss.Color("14"),
	AccentDim:     lipgloss.Color("0"),
	Critical:      lipgloss.Color("9"),
	Warning:       lipgloss.Color("3"),
	Info:          lipgloss.Color("4"),
	Healthy:       lipgloss.Color("2"),
	Approaching:   lipgloss.Color("11"),
	OverBudget:    lipgloss.Color("1"),
	Forecast:      lipgloss.Color("12"),
	Actual:        lipgloss.Color("5"),
	Budget:        lipgloss.Color("6"),
	KeyHint:       lipgloss.Color("14"),
}

// All available themes.
var All = []Theme{FlexokiDark, FlexokiLight, CatppuccinMocha, TokyoNight, Terminal}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// Names lists the available theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, t := range All {
		if t.Name == name {
			return true
		}
	}
	return false
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
