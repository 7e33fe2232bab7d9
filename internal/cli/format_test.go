package cli

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     string
	}{
		{"0", "GBP", "£0.00"},
		{"999.999", "GBP", "£1,000.00"},
		{"1234567.891", "EUR", "€1,234,567.89"},
		{"-1500.5", "USD", "-$1,500.50"},
		{"42", "CHF", "CHF 42.00"},
		{"42", "", "42.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in+tt.currency, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.in), tt.currency)
			if got != tt.want {
				t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.in, tt.currency, got, tt.want)
			}
		})
	}
}

func TestFormatMoney_Unset(t *testing.T) {
	if got := FormatMoney(model.Unset, "GBP"); got != Blank {
		t.Errorf("unset = %q, want %q", got, Blank)
	}
	if got := FormatMoney(model.AmountFromInt(0), "GBP"); got != "£0.00" {
		t.Errorf("zero = %q, want £0.00", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "£0"},
		{999, "£999"},
		{1234, "£1.2K"},
		{1234567, "£1.2M"},
		{-2500, "£-2.5K"},
	}
	for _, tt := range tests {
		if got := FormatCompact(decimal.NewFromInt(tt.in), "GBP"); got != tt.want {
			t.Errorf("FormatCompact(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDeltaAndPercent(t *testing.T) {
	if got := FormatDelta(model.AmountFromInt(200), "GBP"); got != "+£200.00" {
		t.Errorf("positive delta = %q", got)
	}
	if got := FormatDelta(model.Amount(decimal.RequireFromString("-15.5")), "GBP"); got != "-£15.50" {
		t.Errorf("negative delta = %q", got)
	}
	if got := FormatDelta(model.Unset, "GBP"); got != Blank {
		t.Errorf("unset delta = %q", got)
	}
	if got := FormatPercent(model.Amount(decimal.RequireFromString("25"))); got != "25.0%" {
		t.Errorf("percent = %q", got)
	}
	if got := FormatRatio(decimal.RequireFromString("0.125")); got != "12.5%" {
		t.Errorf("ratio = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	if got := FormatAge(time.Time{}, now); got != "never" {
		t.Errorf("zero time = %q", got)
	}
	if got := FormatAge(now.Add(-72*time.Hour), now); !strings.HasSuffix(got, "ago") {
		t.Errorf("3 days = %q, want suffix ago", got)
	}
}

func TestLabels(t *testing.T) {
	if got := CategoryLabel(model.CategoryPeople); got != "People & contractors" {
		t.Errorf("CategoryLabel = %q", got)
	}
	if got := CategoryLabel("bespoke"); got != "bespoke" {
		t.Errorf("unknown category = %q", got)
	}
	if got := LineLabel(model.CostLine{Category: model.CategoryTraining}); got != "Training" {
		t.Errorf("LineLabel fallback = %q", got)
	}
	if got := Truncate("Infrastructure", 6); got != "Infra…" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestRenderTable_AlignsWideRunes(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Line", "Budget"},
		Rows:    [][]string{{"a", "£1,000.00"}, {"bb", "£5.00"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// top border, header, separator, two rows, bottom border
	if len(lines) != 6 {
		t.Fatalf("rendered %d lines, want 6:\n%s", len(lines), out)
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Errorf("line %d width %d, want %d", i, lipgloss.Width(l), w)
		}
	}
}

func TestRenderBudgetBar(t *testing.T) {
	tests := []struct {
		name      string
		spent     string
		budget    string
		wantPct   string
		wantWidth int
	}{
		{"half", "50", "100", "50%", 10 + 5},
		{"exact", "100", "100", "100%", 10 + 5},
		{"over", "150", "100", "150%", 10 + 5},
		{"negative spend", "-20", "100", "0%", 10 + 5},
		{"no budget", "10", "0", "-", 10 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderBudgetBar(decimal.RequireFromString(tt.spent), decimal.RequireFromString(tt.budget), 10)
			if !strings.HasSuffix(strings.TrimSpace(stripANSI(got)), tt.wantPct) {
				t.Errorf("RenderBudgetBar = %q, want suffix %q", stripANSI(got), tt.wantPct)
			}
			if w := lipgloss.Width(got); w != tt.wantWidth {
				t.Errorf("width = %d, want %d", w, tt.wantWidth)
			}
		})
	}
	if got := RenderBudgetBar(decimal.NewFromInt(1), decimal.NewFromInt(1), 0); got != "" {
		t.Errorf("zero width = %q, want empty", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	values := []model.Money{model.AmountFromInt(0), model.Unset, model.AmountFromInt(-5), model.AmountFromInt(50), model.AmountFromInt(100)}
	got := stripANSI(RenderSparkline(values))
	if got != "▁▁▁▅█" {
		t.Errorf("RenderSparkline = %q, want %q", got, "▁▁▁▅█")
	}
	if got := RenderSparkline(nil); got != "" {
		t.Errorf("RenderSparkline(nil) = %q", got)
	}
	if got := stripANSI(RenderSparkline([]model.Money{model.Unset, model.Unset})); got != "▁▁" {
		t.Errorf("all unset = %q", got)
	}
}

var ansiSeq = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}
