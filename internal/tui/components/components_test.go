package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/finphase/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{10, 3, []int{4, 3, 3}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
		sum := 0
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d)[%d] = %d, want %d", tt.total, tt.n, i, got[i], tt.want[i])
			}
			sum += got[i]
		}
		if tt.n > 0 && sum != tt.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tt.total, tt.n, sum)
		}
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI styling under the short card: %q", i, lines[i])
		}
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 44 {
			t.Errorf("line %d width = %d, want 44", i, w)
		}
	}
}

func TestCardRowSkipsEmptyCards(t *testing.T) {
	card := ContentCard("Only", "body", 20)
	if got := CardRow([]string{card, ""}); lipgloss.Width(got) != lipgloss.Width(card) {
		t.Errorf("width = %d, want %d", lipgloss.Width(got), lipgloss.Width(card))
	}
}

func TestTabVisualWidth(t *testing.T) {
	overview := Tabs[0]
	settings := Tabs[len(Tabs)-1]

	if got := TabVisualWidth(overview, false); got != len("Overview")+2 {
		t.Errorf("inactive Overview = %d", got)
	}
	if got := TabVisualWidth(settings, false); got != len("Settings")+5 {
		t.Errorf("inactive Settings = %d, want name plus padding plus [x]", got)
	}
	if got := TabVisualWidth(settings, true); got != len("Settings")+2 {
		t.Errorf("active Settings = %d", got)
	}
}

func TestTabIdxByKey(t *testing.T) {
	for i, tab := range Tabs {
		if got := TabIdxByKey(tab.Key); got != i {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tab.Key, got, i)
		}
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}

func TestRenderTabBarWidth(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 100)
		if w := lipgloss.Width(bar); w != 100 {
			t.Errorf("active=%d: width = %d, want 100", active, w)
		}
	}
}

func TestBarChart(t *testing.T) {
	theme.SetActive("flexoki-dark")
	s := BarSeries{
		Values: []float64{100, 250, 400},
		Labels: []string{"Apr", "May", "Jun"},
		Over:   []bool{false, false, true},
		Color:  theme.Active.Forecast,
	}
	out := BarChart(s, 40, 8)
	if !strings.Contains(out, "█") {
		t.Error("chart has no bars")
	}
	if !strings.Contains(out, "Apr") || !strings.Contains(out, "Jun") {
		t.Errorf("chart is missing month labels:\n%s", out)
	}
	if BarChart(BarSeries{}, 40, 8) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestColorForPct(t *testing.T) {
	th := theme.Active
	tests := []struct {
		pct  float64
		want string
	}{
		{0.2, string(th.Healthy)},
		{0.8, string(th.Approaching)},
		{0.95, string(th.Warning)},
		{1.0, string(th.Warning)},
		{1.2, string(th.OverBudget)},
	}
	for _, tt := range tests {
		if got := ColorForPct(tt.pct); got != tt.want {
			t.Errorf("ColorForPct(%v) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		0.5:     "0.50",
		20:      "20",
		5000:    "5k",
		2500:    "2.5k",
		3000000: "3M",
	}
	for v, want := range tests {
		if got := formatChartLabel(v); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", v, got, want)
		}
	}
}
