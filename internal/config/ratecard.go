package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RoleRate holds the standard day rate for a role.
type RoleRate struct {
	DayRate decimal.Decimal
}

type roleRateVersion struct {
	EffectiveFrom time.Time
	Rate          RoleRate
}

func rate(s string) RoleRate {
	return RoleRate{DayRate: decimal.RequireFromString(s)}
}

// DefaultRates maps normalized role names to their standard day rate.
var DefaultRates = map[string]RoleRate{
	"developer":         rate("550"),
	"tester":            rate("450"),
	"business analyst":  rate("500"),
	"project manager":   rate("600"),
	"architect":         rate("750"),
	"designer":          rate("500"),
	"data engineer":     rate("600"),
	"devops engineer":   rate("625"),
	"delivery manager":  rate("650"),
	"technical writer":  rate("400"),
	"scrum master":      rate("550"),
	"security engineer": rate("700"),
}

// defaultRateHistory stores effective-dated rates for each role.
// Entries must be sorted by EffectiveFrom ascending.
var defaultRateHistory = makeDefaultRateHistory(DefaultRates)

func makeDefaultRateHistory(base map[string]RoleRate) map[string][]roleRateVersion {
	history := make(map[string][]roleRateVersion, len(base))
	for role, r := range base {
		history[role] = []roleRateVersion{
			{Rate: r},
		}
	}
	return history
}

func hasRole(role string) bool {
	if _, ok := defaultRateHistory[role]; ok {
		return true
	}
	_, ok := DefaultRates[role]
	return ok
}

var seniorityPrefixes = []string{"senior ", "junior ", "lead ", "principal ", "graduate "}

// NormalizeRole lowercases a role and folds separators to single spaces.
// A seniority prefix is dropped when only the base role is on the card.
// e.g., "Senior_Developer" -> "developer"
func NormalizeRole(raw string) string {
	role := strings.ToLower(strings.TrimSpace(raw))
	role = strings.NewReplacer("_", " ", "-", " ").Replace(role)
	role = strings.Join(strings.Fields(role), " ")
	if hasRole(role) {
		return role
	}
	for _, prefix := range seniorityPrefixes {
		if base, ok := strings.CutPrefix(role, prefix); ok && hasRole(base) {
			return base
		}
	}
	return role
}

// LookupRate returns the current day rate for a role.
func LookupRate(role string) (RoleRate, bool) {
	return LookupRateAt(role, time.Now())
}

// LookupRateAt returns the day rate for a role in effect at the given time.
// If at is zero, the latest known rate is used.
func LookupRateAt(role string, at time.Time) (RoleRate, bool) {
	normalized := NormalizeRole(role)
	versions, ok := defaultRateHistory[normalized]
	if !ok || len(versions) == 0 {
		r, fallback := DefaultRates[normalized]
		return r, fallback
	}

	if at.IsZero() {
		return versions[len(versions)-1].Rate, true
	}

	at = at.UTC()
	selected := versions[0].Rate
	for _, v := range versions {
		if v.EffectiveFrom.IsZero() || !at.Before(v.EffectiveFrom.UTC()) {
			selected = v.Rate
			continue
		}
		break
	}
	return selected, true
}

// DayRateFor resolves a role's day rate, preferring configured overrides.
func (c Config) DayRateFor(role string, at time.Time) (decimal.Decimal, bool) {
	normalized := NormalizeRole(role)
	for name, o := range c.Rates.Overrides {
		if o.DayRate != nil && NormalizeRole(name) == normalized {
			return decimal.NewFromFloat(*o.DayRate), true
		}
	}
	r, ok := LookupRateAt(normalized, at)
	if !ok {
		return decimal.Zero, false
	}
	return r.DayRate, true
}
