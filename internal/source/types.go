package source

// Format is a plan document encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DiscoveredFile is a plan document found on disk.
type DiscoveredFile struct {
	Path   string
	Format Format
	// PlanID defaults to the file name without extension.
	PlanID string
	// ExposurePath is the sibling "<plan>.exposure.<ext>" file, if any.
	ExposurePath string
}

// RawPlan is a plan document as written by hand or exported from a
// database. Amounts are loosely typed and coerced during parsing.
type RawPlan struct {
	ID             string        `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Name           string        `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Currency       string        `json:"currency,omitempty" toml:"currency,omitempty" yaml:"currency,omitempty"`
	FYStartMonth   any           `json:"fy_start_month,omitempty" toml:"fy_start_month,omitempty" yaml:"fy_start_month,omitempty"`
	FYStartYear    any           `json:"fy_start_year,omitempty" toml:"fy_start_year,omitempty" yaml:"fy_start_year,omitempty"`
	NumMonths      any           `json:"num_months,omitempty" toml:"num_months,omitempty" yaml:"num_months,omitempty"`
	ApprovedBudget any           `json:"approved_budget,omitempty" toml:"approved_budget,omitempty" yaml:"approved_budget,omitempty"`
	LastUpdatedAt  any           `json:"last_updated_at,omitempty" toml:"last_updated_at,omitempty" yaml:"last_updated_at,omitempty"`
	Lines          []RawLine     `json:"cost_lines,omitempty" toml:"cost_lines,omitempty" yaml:"cost_lines,omitempty"`
	Resources      []RawResource `json:"resources,omitempty" toml:"resources,omitempty" yaml:"resources,omitempty"`
	Monthly        []RawEntry    `json:"monthly,omitempty" toml:"monthly,omitempty" yaml:"monthly,omitempty"`
}

// RawLine is one cost line row.
type RawLine struct {
	ID          string `json:"id" toml:"id" yaml:"id"`
	Category    string `json:"category" toml:"category" yaml:"category"`
	Description string `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
	Budgeted    any    `json:"budgeted,omitempty" toml:"budgeted,omitempty" yaml:"budgeted,omitempty"`
	Actual      any    `json:"actual,omitempty" toml:"actual,omitempty" yaml:"actual,omitempty"`
	Forecast    any    `json:"forecast,omitempty" toml:"forecast,omitempty" yaml:"forecast,omitempty"`
	Notes       string `json:"notes,omitempty" toml:"notes,omitempty" yaml:"notes,omitempty"`
	Override    any    `json:"override,omitempty" toml:"override,omitempty" yaml:"override,omitempty"`
}

// RawResource is one staffed resource row.
type RawResource struct {
	ID            string `json:"id" toml:"id" yaml:"id"`
	UserID        string `json:"user_id,omitempty" toml:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name          string `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Role          string `json:"role,omitempty" toml:"role,omitempty" yaml:"role,omitempty"`
	Type          string `json:"type,omitempty" toml:"type,omitempty" yaml:"type,omitempty"`
	RateType      string `json:"rate_type,omitempty" toml:"rate_type,omitempty" yaml:"rate_type,omitempty"`
	DayRate       any    `json:"day_rate,omitempty" toml:"day_rate,omitempty" yaml:"day_rate,omitempty"`
	PlannedDays   any    `json:"planned_days,omitempty" toml:"planned_days,omitempty" yaml:"planned_days,omitempty"`
	MonthlyCost   any    `json:"monthly_cost,omitempty" toml:"monthly_cost,omitempty" yaml:"monthly_cost,omitempty"`
	PlannedMonths any    `json:"planned_months,omitempty" toml:"planned_months,omitempty" yaml:"planned_months,omitempty"`
	CostLineID    string `json:"cost_line_id,omitempty" toml:"cost_line_id,omitempty" yaml:"cost_line_id,omitempty"`
	StartMonth    string `json:"start_month,omitempty" toml:"start_month,omitempty" yaml:"start_month,omitempty"`
	Notes         string `json:"notes,omitempty" toml:"notes,omitempty" yaml:"notes,omitempty"`
}

// RawEntry is one monthly phasing cell.
type RawEntry struct {
	LineID       string `json:"line_id" toml:"line_id" yaml:"line_id"`
	Month        string `json:"month" toml:"month" yaml:"month"`
	Budget       any    `json:"budget,omitempty" toml:"budget,omitempty" yaml:"budget,omitempty"`
	Actual       any    `json:"actual,omitempty" toml:"actual,omitempty" yaml:"actual,omitempty"`
	Forecast     any    `json:"forecast,omitempty" toml:"forecast,omitempty" yaml:"forecast,omitempty"`
	CustomerRate any    `json:"customer_rate,omitempty" toml:"customer_rate,omitempty" yaml:"customer_rate,omitempty"`
	Locked       any    `json:"locked,omitempty" toml:"locked,omitempty" yaml:"locked,omitempty"`
}

// RawExposure is a change-exposure document.
type RawExposure struct {
	PendingChanges []RawChange `json:"pending_changes" toml:"pending_changes" yaml:"pending_changes"`
}

// RawChange is one change request row.
type RawChange struct {
	ID         string `json:"id" toml:"id" yaml:"id"`
	Title      string `json:"title,omitempty" toml:"title,omitempty" yaml:"title,omitempty"`
	Status     string `json:"status,omitempty" toml:"status,omitempty" yaml:"status,omitempty"`
	CostImpact any    `json:"cost_impact,omitempty" toml:"cost_impact,omitempty" yaml:"cost_impact,omitempty"`
}
