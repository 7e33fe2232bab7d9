// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

// Blank is shown in place of an unset amount.
const Blank = "-"

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
	"JPY": "¥",
	"INR": "₹",
}

// CurrencySymbol returns the display prefix for an ISO currency code.
// Unknown codes are shown as "CODE ".
func CurrencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	if code == "" {
		return ""
	}
	return code + " "
}

// FormatMoney formats an optional amount with a currency prefix, or Blank
// when unset.
func FormatMoney(m model.Money, currency string) string {
	if !m.Valid {
		return Blank
	}
	return FormatAmount(m.Decimal, currency)
}

// FormatAmount formats an amount to the cent with thousands separators.
// e.g., 1234567.891 -> "£1,234,567.89"
func FormatAmount(d decimal.Decimal, currency string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + CurrencySymbol(currency) + fixed
	}
	return sign + CurrencySymbol(currency) + FormatNumber(n) + "." + frac
}

// FormatCompact formats an amount with K/M suffixes for cards and charts.
// e.g., 1234 -> "£1.2K", 1234567 -> "£1.2M"
func FormatCompact(d decimal.Decimal, currency string) string {
	f := d.InexactFloat64()
	abs := f
	if abs < 0 {
		abs = -abs
	}
	sym := CurrencySymbol(currency)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%.1fM", sym, f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%.1fK", sym, f/1_000)
	default:
		return fmt.Sprintf("%s%.0f", sym, f)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats an optional percentage (already scaled to 0-100).
func FormatPercent(m model.Money) string {
	if !m.Valid {
		return Blank
	}
	return m.Decimal.StringFixed(1) + "%"
}

// FormatRatio formats a 0-1 ratio as a percentage string.
func FormatRatio(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatDelta formats a signed change, e.g. "+£200.00" or "-£15.50".
// Unset deltas render as Blank.
func FormatDelta(m model.Money, currency string) string {
	if !m.Valid {
		return Blank
	}
	if m.Decimal.IsNegative() {
		return FormatAmount(m.Decimal, currency)
	}
	return "+" + FormatAmount(m.Decimal, currency)
}

// FormatAge describes how long ago t was relative to now, e.g. "3 days ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

var categoryLabels = map[model.Category]string{
	model.CategoryPeople:      "People & contractors",
	model.CategorySoftware:    "Software & licences",
	model.CategoryHardware:    "Hardware & infrastructure",
	model.CategoryTravel:      "Travel & expenses",
	model.CategoryTraining:    "Training",
	model.CategoryConsultancy: "External consultancy",
	model.CategoryContingency: "Contingency",
	model.CategoryOther:       "Other",
}

// CategoryLabel returns the display name for a category.
func CategoryLabel(c model.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// LineLabel returns a line's description, falling back to its category.
func LineLabel(l model.CostLine) string {
	if l.Description != "" {
		return l.Description
	}
	return CategoryLabel(l.Category)
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
