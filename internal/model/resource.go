package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateType selects how a resource is costed.
type RateType string

const (
	RateDay     RateType = "day_rate"
	RateMonthly RateType = "monthly_cost"
)

// Valid reports whether r is a known rate type.
func (r RateType) Valid() bool {
	return r == RateDay || r == RateMonthly
}

// ResourceType is a free-form staffing classification.
type ResourceType string

const (
	ResourceInternal   ResourceType = "internal"
	ResourceContractor ResourceType = "contractor"
	ResourceVendor     ResourceType = "vendor"
)

// Resource is a staffed person or service with a rate model.
type Resource struct {
	ID            string
	UserID        string
	Name          string
	Role          string
	Type          ResourceType
	RateType      RateType
	DayRate       Money
	PlannedDays   decimal.Decimal
	MonthlyCost   Money
	PlannedMonths int
	// CostLineID is a weak reference; empty means unlinked.
	CostLineID string
	// StartMonth is empty when the resource starts with the financial year.
	StartMonth MonthKey
	Notes      string
}

// Linked reports whether the resource points at a cost line.
func (r Resource) Linked() bool {
	return r.CostLineID != ""
}

// Costable reports whether the resource has enough rate and quantity data to be amortized.
func (r Resource) Costable() bool {
	switch r.RateType {
	case RateMonthly:
		return IsPositive(r.MonthlyCost) && r.PlannedMonths > 0
	case RateDay:
		return IsPositive(r.DayRate) && r.PlannedDays.IsPositive()
	}
	return false
}

// Validate checks identity, rate type and amounts.
func (r Resource) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if !r.RateType.Valid() {
		return fmt.Errorf("resource %s: %w: %q", r.ID, ErrUnknownRateType, r.RateType)
	}
	if IsNegative(r.DayRate) || IsNegative(r.MonthlyCost) || r.PlannedDays.IsNegative() || r.PlannedMonths < 0 {
		return fmt.Errorf("resource %s: %w", r.ID, ErrNegativeAmount)
	}
	return nil
}
