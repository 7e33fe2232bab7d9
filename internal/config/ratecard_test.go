package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestLookupRateAt_UsesEffectiveDate(t *testing.T) {
	role := "test role windowed"
	orig, had := defaultRateHistory[role]
	if had {
		defer func() { defaultRateHistory[role] = orig }()
	} else {
		defer delete(defaultRateHistory, role)
	}

	defaultRateHistory[role] = []roleRateVersion{
		{
			EffectiveFrom: mustDate(t, "2025-01-01"),
			Rate:          RoleRate{DayRate: decimal.NewFromInt(400)},
		},
		{
			EffectiveFrom: mustDate(t, "2025-07-01"),
			Rate:          RoleRate{DayRate: decimal.NewFromInt(450)},
		},
	}

	apr, ok := LookupRateAt(role, mustDate(t, "2025-04-15"))
	if !ok {
		t.Fatal("LookupRateAt returned !ok for historical role")
	}
	if !apr.DayRate.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("April day rate = %s, want 400", apr.DayRate)
	}

	aug, ok := LookupRateAt(role, mustDate(t, "2025-08-15"))
	if !ok {
		t.Fatal("LookupRateAt returned !ok for historical role in later window")
	}
	if !aug.DayRate.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("August day rate = %s, want 450", aug.DayRate)
	}
}

func TestLookupRateAt_UsesLatestWhenTimeZero(t *testing.T) {
	role := "archivist"
	defaultRateHistory[role] = []roleRateVersion{
		{EffectiveFrom: mustDate(t, "2025-01-01"), Rate: RoleRate{DayRate: decimal.NewFromInt(300)}},
		{EffectiveFrom: mustDate(t, "2025-09-01"), Rate: RoleRate{DayRate: decimal.NewFromInt(350)}},
	}
	defer delete(defaultRateHistory, role)

	r, ok := LookupRateAt(role, time.Time{})
	if !ok {
		t.Fatal("LookupRateAt returned !ok for role with rate history")
	}
	if !r.DayRate.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("zero-time lookup day rate = %s, want 350", r.DayRate)
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Developer", "developer"},
		{"  Senior_Developer ", "developer"},
		{"project-manager", "project manager"},
		{"Lead   Architect", "architect"},
		{"Senior Astronaut", "senior astronaut"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeRole(tt.raw); got != tt.want {
				t.Fatalf("NormalizeRole(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDayRateFor_PrefersOverride(t *testing.T) {
	cfg := DefaultConfig()
	v := 725.5
	cfg.Rates.Overrides = map[string]RateOverride{"Developer": {DayRate: &v}}

	got, ok := cfg.DayRateFor("senior developer", time.Now())
	if !ok {
		t.Fatal("DayRateFor returned !ok")
	}
	if !got.Equal(decimal.RequireFromString("725.5")) {
		t.Fatalf("day rate = %s, want 725.5", got)
	}

	if _, ok := cfg.DayRateFor("astronaut", time.Now()); ok {
		t.Fatal("DayRateFor returned ok for unknown role")
	}
}
