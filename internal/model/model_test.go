package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		key   MonthKey
		year  int
		month int
		next  MonthKey
		label string
	}{
		{"2024-04", 2024, 4, "2024-05", "Apr 2024"},
		{"2024-12", 2024, 12, "2025-01", "Dec 2024"},
		{"1999-01", 1999, 1, "1999-02", "Jan 1999"},
	}
	for _, tt := range tests {
		if tt.key.Year() != tt.year || tt.key.Month() != tt.month {
			t.Errorf("%s: year/month = %d/%d, want %d/%d", tt.key, tt.key.Year(), tt.key.Month(), tt.year, tt.month)
		}
		if got := tt.key.Next(); got != tt.next {
			t.Errorf("%s.Next() = %s, want %s", tt.key, got, tt.next)
		}
		if got := tt.key.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.key, got, tt.label)
		}
	}

	if got := MonthKey("bogus").Label(); got != "bogus" {
		t.Errorf("malformed label = %q, want the raw key", got)
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2025-03")
	if err != nil || got != "2025-03" {
		t.Fatalf("ParseMonthKey = %q, %v", got, err)
	}
	for _, bad := range []string{"", "2025-13", "March 2025", "2025/03"} {
		if _, err := ParseMonthKey(bad); err == nil {
			t.Errorf("ParseMonthKey(%q) should fail", bad)
		}
	}
}

func TestFYConfigValid(t *testing.T) {
	tests := []struct {
		fy   FYConfig
		want bool
	}{
		{FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 12}, true},
		{FYConfig{StartMonth: 1, StartYear: 2024, NumMonths: 1}, true},
		{FYConfig{StartMonth: 0, StartYear: 2024, NumMonths: 12}, false},
		{FYConfig{StartMonth: 13, StartYear: 2024, NumMonths: 12}, false},
		{FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.fy.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.fy, got, tt.want)
		}
	}
}

func TestMoneyHelpers(t *testing.T) {
	if _, err := AmountFromString(""); err == nil {
		t.Error("empty string should not parse")
	}
	m, err := AmountFromString("1.50")
	if err != nil {
		t.Fatal(err)
	}
	if !SameAmount(m, Amount(decimal.RequireFromString("1.5"))) {
		t.Error("1.50 and 1.5 should be the same amount")
	}
	if SameAmount(Unset, AmountFromInt(0)) {
		t.Error("unset and zero must differ")
	}
	if !SameAmount(Unset, Unset) {
		t.Error("two unset amounts are equal")
	}
	if !OrZero(Unset).IsZero() {
		t.Error("OrZero(Unset) should be zero")
	}
	if IsSetNonZero(AmountFromInt(0)) || !IsSetNonZero(AmountFromInt(-3)) {
		t.Error("IsSetNonZero wrong")
	}
	if IsPositive(Unset) || !IsNegative(AmountFromInt(-1)) {
		t.Error("sign helpers wrong")
	}
}

func TestEntryPatchApply(t *testing.T) {
	base := MonthlyEntry{Budget: AmountFromInt(100), Forecast: AmountFromInt(90)}
	f := AmountFromInt(120)
	locked := true
	cleared := Unset

	got := EntryPatch{Forecast: &f, Locked: &locked, Budget: &cleared}.Apply(base)
	want := MonthlyEntry{Budget: Unset, Forecast: AmountFromInt(120), Locked: true}
	if !got.Equal(want) {
		t.Fatalf("Apply = %+v, want %+v", got, want)
	}
	if !(EntryPatch{}).Apply(base).Equal(base) {
		t.Error("empty patch changed the entry")
	}
}

func TestMonthlyDataCloneIsDeep(t *testing.T) {
	d := MonthlyData{}
	d.Set("a", "2024-04", MonthlyEntry{Forecast: AmountFromInt(1)})

	cp := d.Clone()
	cp.Set("a", "2024-04", MonthlyEntry{Forecast: AmountFromInt(2)})
	cp.Set("b", "2024-05", MonthlyEntry{})

	if e, _ := d.Entry("a", "2024-04"); !SameAmount(e.Forecast, AmountFromInt(1)) {
		t.Errorf("original changed through clone: %+v", e)
	}
	if _, ok := d.Entry("b", "2024-05"); ok {
		t.Error("original gained a line through clone")
	}
	if d.Equal(cp) {
		t.Error("Equal should notice the differences")
	}
	if !d.Equal(d.Clone()) {
		t.Error("a fresh clone should be equal")
	}
	if got := MonthlyData(nil).Clone(); got == nil {
		t.Error("nil clone should be an empty map")
	}
}

func TestCostLineValidate(t *testing.T) {
	tests := []struct {
		name string
		line CostLine
		want error
	}{
		{"ok", CostLine{ID: "a", Category: CategoryPeople, Budgeted: AmountFromInt(5)}, nil},
		{"empty id", CostLine{Category: CategoryPeople}, ErrEmptyID},
		{"bad category", CostLine{ID: "a", Category: "snacks"}, ErrUnknownCategory},
		{"negative", CostLine{ID: "a", Category: CategoryOther, Forecast: AmountFromInt(-1)}, ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResourceCostable(t *testing.T) {
	tests := []struct {
		name string
		r    Resource
		want bool
	}{
		{"day rate", Resource{RateType: RateDay, DayRate: AmountFromInt(500), PlannedDays: decimal.NewFromInt(10)}, true},
		{"day rate no days", Resource{RateType: RateDay, DayRate: AmountFromInt(500)}, false},
		{"day rate unset", Resource{RateType: RateDay, PlannedDays: decimal.NewFromInt(10)}, false},
		{"monthly", Resource{RateType: RateMonthly, MonthlyCost: AmountFromInt(3000), PlannedMonths: 3}, true},
		{"monthly zero months", Resource{RateType: RateMonthly, MonthlyCost: AmountFromInt(3000)}, false},
		{"unknown type", Resource{RateType: "hourly", DayRate: AmountFromInt(1), PlannedDays: decimal.NewFromInt(1)}, false},
	}
	for _, tt := range tests {
		if got := tt.r.Costable(); got != tt.want {
			t.Errorf("%s: Costable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResourceValidate(t *testing.T) {
	if err := (Resource{ID: "r", RateType: RateDay}).Validate(); err != nil {
		t.Fatalf("valid resource: %v", err)
	}
	if err := (Resource{RateType: RateDay}).Validate(); !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty id: %v", err)
	}
	if err := (Resource{ID: "r", RateType: "hourly"}).Validate(); !errors.Is(err, ErrUnknownRateType) {
		t.Errorf("bad rate type: %v", err)
	}
	if err := (Resource{ID: "r", RateType: RateMonthly, PlannedMonths: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative months: %v", err)
	}
}

func TestRanks(t *testing.T) {
	if !(SeverityCritical.Rank() > SeverityWarning.Rank() && SeverityWarning.Rank() > SeverityInfo.Rank()) {
		t.Error("severity ranks out of order")
	}
	if !(ScopePlan.Rank() > ScopeQuarter.Rank() && ScopeQuarter.Rank() > ScopeMonth.Rank() && ScopeMonth.Rank() > ScopeLine.Rank()) {
		t.Error("scope ranks out of order")
	}
	s := Signal{Code: SignalLineOverBudget, Scope: ScopeLine, ScopeKey: "people"}
	if got := s.Key(); got != "LINE_OVER_BUDGET|line|people" {
		t.Errorf("Key = %q", got)
	}
}
