package model

import "fmt"

// Category classifies a cost line.
type Category string

const (
	CategoryPeople      Category = "people_contractors"
	CategorySoftware    Category = "software_licences"
	CategoryHardware    Category = "hardware_infrastructure"
	CategoryTravel      Category = "travel_expenses"
	CategoryTraining    Category = "training"
	CategoryConsultancy Category = "external_consultancy"
	CategoryContingency Category = "contingency"
	CategoryOther       Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryPeople,
	CategorySoftware,
	CategoryHardware,
	CategoryTravel,
	CategoryTraining,
	CategoryConsultancy,
	CategoryContingency,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// CostLine is one budget category row with its line-level totals.
type CostLine struct {
	ID          string
	Category    Category
	Description string
	Budgeted    Money
	Actual      Money
	Forecast    Money
	Notes       string
	// Override disables resource rollup into this line's monthly entries.
	Override bool
}

// Validate checks the line's identity, category and amounts.
func (l CostLine) Validate() error {
	if l.ID == "" {
		return ErrEmptyID
	}
	if !l.Category.Valid() {
		return fmt.Errorf("line %s: %w: %q", l.ID, ErrUnknownCategory, l.Category)
	}
	for name, m := range map[string]Money{"budgeted": l.Budgeted, "actual": l.Actual, "forecast": l.Forecast} {
		if IsNegative(m) {
			return fmt.Errorf("line %s %s: %w", l.ID, name, ErrNegativeAmount)
		}
	}
	return nil
}

// LineIndex maps line IDs to lines.
func LineIndex(lines []CostLine) map[string]CostLine {
	idx := make(map[string]CostLine, len(lines))
	for _, l := range lines {
		idx[l.ID] = l
	}
	return idx
}
