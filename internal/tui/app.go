// Package tui provides the interactive Bubble Tea dashboard for finphase.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/finphase/internal/config"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/store"
	"github.com/theirongolddev/finphase/internal/tui/components"
	"github.com/theirongolddev/finphase/internal/tui/theme"
)

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// Options configures the dashboard.
type Options struct {
	PlansDir string
	// PlanID selects the plan shown first.
	PlanID     string
	ConfigPath string
	NoCache    bool
	Parse      source.Options
}

// ConfigStore reads and writes one config file.
type ConfigStore struct {
	Path string
}

// Load returns the config, falling back to defaults so the dashboard can
// always start.
func (s ConfigStore) Load() config.Config {
	cfg, err := config.LoadFrom(s.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", s.Path).Msg("using default config")
		return config.DefaultConfig()
	}
	return cfg
}

// Save writes cfg to the file.
func (s ConfigStore) Save(cfg config.Config) error {
	return config.SaveTo(s.Path, cfg)
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	plans      []pipeline.LoadedPlan
	fileErrors []pipeline.FileError
	portfolio  pipeline.Portfolio
	planIdx    int
	loaded     bool
	loadErr    error
	loadTime   time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	phase    phasingState
	lines    linesState
	sigs     signalsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	// Loading: progress and completion messages from the loader goroutine
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg

	cfgStore ConfigStore
	cfg      config.Config
	engine   *signals.Engine
	opts     Options
	plansDir string
}

const (
	tabOverview = iota
	tabPhasing
	tabLines
	tabSignals
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 10 // approximate header + status bar height for half-page calc
	minHalfPageScroll = 1
	minContentHeight  = 5
	minRefreshSec     = 10
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.Path()
	}
	cs := ConfigStore{Path: opts.ConfigPath}
	cfg := cs.Load()

	plansDir := opts.PlansDir
	if plansDir == "" {
		plansDir = cfg.ResolvePlansDir()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		needSetup:       !configExists(opts.ConfigPath),
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: refreshInterval(cfg),
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
		cfgStore:        cs,
		cfg:             cfg,
		engine:          signals.NewEngine(cfg.SignalConfig(), nil),
		opts:            opts,
		plansDir:        plansDir,
		setupVals:       NewSetupValues(cfg),
	}
}

func refreshInterval(cfg config.Config) time.Duration {
	sec := cfg.TUI.RefreshInterval
	if sec < minRefreshSec {
		sec = 30
	}
	return time.Duration(sec) * time.Second
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.loadRequest(), a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// applyResult replaces the loaded plans and recomputes every report.
func (a *App) applyResult(res *pipeline.LoadResult) {
	if res == nil {
		return
	}
	var current string
	if p, ok := a.currentPlanID(); ok {
		current = p
	} else {
		current = a.opts.PlanID
		if current == "" {
			current = a.cfg.General.DefaultPlan
		}
	}

	a.plans = res.Plans
	a.fileErrors = res.FileErrors
	a.recompute()

	a.planIdx = 0
	for i, lp := range a.plans {
		if lp.Plan.ID == current {
			a.planIdx = i
			break
		}
	}
	a.clampCursors()
}

func (a *App) recompute() {
	pf, err := pipeline.AggregatePortfolio(context.Background(), a.plans, a.engine)
	if err != nil {
		log.Warn().Err(err).Msg("aggregating plans")
		return
	}
	a.portfolio = pf
}

func (a App) currentPlanID() (string, bool) {
	if a.planIdx < 0 || a.planIdx >= len(a.plans) {
		return "", false
	}
	return a.plans[a.planIdx].Plan.ID, true
}

// report returns the report of the plan on screen.
func (a App) report() (pipeline.Report, bool) {
	if a.planIdx < 0 || a.planIdx >= len(a.portfolio.Reports) {
		return pipeline.Report{}, false
	}
	return a.portfolio.Reports[a.planIdx], true
}

func (a *App) clampCursors() {
	rep, _ := a.report()
	a.lines.cursor = clamp(a.lines.cursor, 0, len(a.searchFilteredLines(rep))-1)
	a.sigs.cursor = clamp(a.sigs.cursor, 0, len(a.filteredSignals(rep))-1)
	a.lines.detailScroll = 0
}

func (a *App) switchPlan(delta int) {
	if len(a.plans) == 0 {
		return
	}
	a.planIdx = (a.planIdx + delta + len(a.plans)) % len(a.plans)
	a.lines = linesState{}
	a.sigs.cursor, a.sigs.offset = 0, 0
	a.phase.line = false
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadErr = msg.Err
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.applyResult(msg.Result)

		// Activate first-run setup after data loads
		if a.needSetup {
			a.setupForm = NewSetupForm(len(a.plans), a.plansDir, &a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.loadRequest()))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.loadErr = nil
		a.loadTime = msg.LoadTime
		a.applyResult(msg.Result)
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		// Tab bar is the first line
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// moveCursor moves the list cursor of the active tab.
func (a *App) moveCursor(delta int) {
	rep, _ := a.report()
	switch a.activeTab {
	case tabLines:
		if a.lines.searching {
			return
		}
		n := len(a.searchFilteredLines(rep))
		a.lines.cursor = clamp(a.lines.cursor+delta, 0, n-1)
		a.lines.detailScroll = 0
	case tabSignals:
		a.sigs.cursor = clamp(a.sigs.cursor+delta, 0, len(a.filteredSignals(rep))-1)
	case tabSettings:
		if !a.settings.editing {
			a.settings.cursor = clamp(a.settings.cursor+delta, 0, settingsFieldCount-1)
		}
	}
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabLines && a.lines.searching {
		return a.updateLinesSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if m, cmd, handled := a.updateTabKey(key); handled {
		return m, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.loadRequest())
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		cfg := a.cfgStore.Load()
		cfg.TUI.AutoRefresh = a.autoRefresh
		if err := a.cfgStore.Save(cfg); err != nil {
			log.Debug().Err(err).Msg("saving auto-refresh")
		}
		return a, nil
	case "[":
		a.switchPlan(-1)
		return a, nil
	case "]":
		a.switchPlan(1)
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// updateTabKey handles keys bound by the active tab.
func (a App) updateTabKey(key string) (tea.Model, tea.Cmd, bool) {
	rep, _ := a.report()
	switch a.activeTab {
	case tabPhasing:
		if key == "t" {
			a.phase.line = !a.phase.line
			return a, nil, true
		}

	case tabLines:
		lines := a.searchFilteredLines(rep)
		switch key {
		case "/":
			a.lines.searching = true
			a.lines.searchInput = newSearchInput()
			a.lines.searchInput.Focus()
			return a, a.lines.searchInput.Cursor.BlinkCmd(), true
		case "esc":
			a.lines.query = ""
			a.lines.cursor, a.lines.offset = 0, 0
			return a, nil, true
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case "g":
			a.lines.cursor, a.lines.offset, a.lines.detailScroll = 0, 0, 0
			return a, nil, true
		case "G":
			a.lines.cursor = max(0, len(lines)-1)
			a.lines.detailScroll = 0
			return a, nil, true
		case "enter":
			// Show the selected line's phasing
			a.phase.line = true
			a.activeTab = tabPhasing
			return a, nil, true
		case "J":
			a.lines.detailScroll++
			return a, nil, true
		case "K":
			a.lines.detailScroll = max(0, a.lines.detailScroll-1)
			return a, nil, true
		case "ctrl+d":
			a.lines.detailScroll += max(minHalfPageScroll, (a.height-scrollOverhead)/2)
			return a, nil, true
		case "ctrl+u":
			a.lines.detailScroll = max(0, a.lines.detailScroll-max(minHalfPageScroll, (a.height-scrollOverhead)/2))
			return a, nil, true
		}

	case tabSignals:
		switch key {
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case "f":
			a.sigs.minRank = (a.sigs.minRank + 1) % 4
			a.sigs.cursor, a.sigs.offset = 0, 0
			return a, nil, true
		}

	case tabSettings:
		switch key {
		case "j", "down":
			a.moveCursor(1)
			return a, nil, true
		case "k", "up":
			a.moveCursor(-1)
			return a, nil, true
		case "enter":
			m, cmd := a.settingsStartEdit()
			return m, cmd, true
		}
	}
	return a, nil, false
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.settings.saveErr = err
		}
		a.needSetup = false
		a.setupForm = nil
		a.refreshing = true
		return a, refreshDataCmd(a.loadRequest())
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finphase needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finphase"))
	b.WriteString(subtitleStyle.Render(" · Financial Phasing"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Parsing plans\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progress)))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progressMax)))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Scanning " + a.plansDir))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.KeyHint).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o p l s x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]", "Previous / Next plan"},
			{"j k", "Navigate lists"},
			{"J K", "Scroll detail pane"},
		}},
		{"Actions", [][2]string{
			{"/", "Search cost lines"},
			{"Enter", "Line phasing / Edit setting"},
			{"t", "Phasing: plan total or line"},
			{"f", "Signals: cycle severity filter"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + plan pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" ")
	if rep, ok := a.report(); ok {
		pill += pillAccent.Render(planTitle(rep)) +
			pillStyle.Render(" │ FY ") + pillAccent.Render(fyRange(rep))
		if len(a.plans) > 1 {
			pill += pillStyle.Render(fmt.Sprintf(" │ plan %d of %d", a.planIdx+1, len(a.plans)))
		}
	} else {
		pill += pillStyle.Render("no plans")
	}
	if n := len(a.fileErrors); n > 0 {
		pill += lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).
			Render(fmt.Sprintf(" │ %d files skipped", n))
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	planID, _ := a.currentPlanID()
	dataAge := fmt.Sprintf("loaded in %.1fs", a.loadTime.Seconds())
	statusBar := components.RenderStatusBar(w, planID, dataAge, a.refreshing, a.autoRefresh)

	// 3. Content zone
	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch {
	case a.loadErr != nil && len(a.plans) == 0:
		content = a.renderLoadError(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	case len(a.plans) == 0:
		content = a.renderEmpty(cw)
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabPhasing:
			content = a.renderPhasingTab(cw)
		case tabLines:
			content = a.renderLinesTab(cw, contentH)
		case tabSignals:
			content = a.renderSignalsTab(cw, contentH)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderEmpty(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := muted.Render("No plan files found in "+a.plansDir) + "\n" +
		muted.Render("Add a .toml, .yaml or .json plan there, or change the directory with `finphase setup`.")
	return components.ContentCard("Plans", body, cw)
}

func (a App) renderLoadError(cw int) string {
	t := theme.Active
	warn := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
	return components.ContentCard("Load failed", warn.Render(a.loadErr.Error()), cw)
}

// ─── Loading ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadRequest captures what a load needs so commands don't hold the App.
type loadRequest struct {
	dir     string
	opts    source.Options
	noCache bool
}

func (a App) loadRequest() loadRequest {
	return loadRequest{dir: a.plansDir, opts: a.opts.Parse, noCache: a.opts.NoCache}
}

// load runs a cached load when possible and falls back to a full parse.
func (r loadRequest) load(progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	if !r.noCache {
		st, err := store.Open(pipeline.CachePath())
		if err == nil {
			cr, loadErr := pipeline.LoadWithCache(r.dir, r.opts, st, progressFn)
			_ = st.Close()
			if loadErr == nil {
				return &cr.LoadResult, nil
			}
			log.Warn().Err(loadErr).Msg("cache error, falling back to full parse")
		}
	}
	return pipeline.Load(r.dir, r.opts, progressFn)
}

// loadDataCmd starts the data loading pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(req loadRequest, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := req.load(progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads plans in the background (no progress UI).
func refreshDataCmd(req loadRequest) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := req.load(nil)
		return RefreshDataMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func configExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
