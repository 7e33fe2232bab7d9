package phasing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/finphase/internal/model"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func money(v int64) model.Money {
	return model.AmountFromInt(v)
}

func fy2024() model.FYConfig {
	return model.FYConfig{StartMonth: 4, StartYear: 2024, NumMonths: 12}
}

func monthlyResource(id, lineID string, cost int64, months int, start model.MonthKey) model.Resource {
	return model.Resource{
		ID:            id,
		Name:          id,
		RateType:      model.RateMonthly,
		MonthlyCost:   money(cost),
		PlannedMonths: months,
		CostLineID:    lineID,
		StartMonth:    start,
	}
}

func assertAmount(t *testing.T, label string, got model.Money, want string) {
	t.Helper()
	if !got.Valid {
		t.Fatalf("%s is unset, want %s", label, want)
	}
	if !got.Decimal.Equal(dec(t, want)) {
		t.Fatalf("%s = %s, want %s", label, got.Decimal, want)
	}
}
