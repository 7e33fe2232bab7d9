// Package source discovers plan documents on disk and parses them into
// validated plan snapshots.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/plan"
)

// RateLookup resolves a role's standard day rate.
type RateLookup func(role string, at time.Time) (decimal.Decimal, bool)

// Options controls defaults applied while parsing.
type Options struct {
	// DefaultFY supplies financial-year fields a document leaves out.
	DefaultFY model.FYConfig
	// Rates fills missing day rates when set.
	Rates RateLookup
	// Now dates rate-card lookups; zero uses time.Now.
	Now time.Time
}

// Warning is a recoverable problem found while parsing.
type Warning struct {
	Where   string
	Message string
}

func (w Warning) String() string {
	return w.Where + ": " + w.Message
}

// ParseResult holds the output of parsing a single plan file.
type ParseResult struct {
	Plan     plan.Plan
	Warnings []Warning
	Exposure *RawExposure
	Err      error
}

// ParseFile reads and parses a plan document. Malformed amounts become unset
// and are reported as warnings; structural type errors fail the file.
func ParseFile(df DiscoveredFile, opts Options) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}

	var raw RawPlan
	if err := decode(df.Format, data, &raw); err != nil {
		return ParseResult{Err: fmt.Errorf("decoding %s: %w", df.Path, err)}
	}

	res := Parse(df.Path, raw, opts)
	if res.Err != nil {
		return res
	}
	if res.Plan.ID == "" {
		res.Plan.ID = df.PlanID
	}
	if res.Plan.LastUpdatedAt.IsZero() {
		if st, err := os.Stat(df.Path); err == nil {
			res.Plan.LastUpdatedAt = st.ModTime().UTC()
		}
	}

	if df.ExposurePath != "" {
		exp, err := ReadExposure(df.ExposurePath)
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Where: df.ExposurePath, Message: err.Error()})
		} else {
			res.Exposure = exp
		}
	}
	return res
}

func decode(format Format, data []byte, out any) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, out)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		return dec.Decode(out)
	case FormatYAML:
		return yaml.Unmarshal(data, out)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// parser accumulates warnings for one document.
type parser struct {
	path     string
	opts     Options
	warnings []Warning
}

func (p *parser) warn(where, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Where: where, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) money(where string, v any) model.Money {
	m, problem := coerceMoney(v)
	if problem != "" {
		p.warn(where, "%s; treated as unset", problem)
	}
	return m
}

func (p *parser) flag(where string, v any) bool {
	b, problem := coerceBool(v)
	if problem != "" {
		p.warn(where, "%s; treated as false", problem)
	}
	return b
}

// Parse converts a decoded document into a plan. path labels errors and warnings.
func Parse(path string, raw RawPlan, opts Options) ParseResult {
	p := &parser{path: path, opts: opts}

	fy, err := p.fy(raw)
	if err != nil {
		return ParseResult{Err: err}
	}

	out := plan.Plan{
		ID:             strings.TrimSpace(raw.ID),
		Name:           strings.TrimSpace(raw.Name),
		Currency:       strings.TrimSpace(raw.Currency),
		FY:             fy,
		ApprovedBudget: p.money("approved_budget", raw.ApprovedBudget),
		Monthly:        model.MonthlyData{},
	}
	updated, problem := coerceTime(raw.LastUpdatedAt)
	if problem != "" {
		p.warn("last_updated_at", "%s; ignored", problem)
	}
	out.LastUpdatedAt = updated

	out.Lines = p.lines(raw.Lines)
	lineIDs := make(map[string]bool, len(out.Lines))
	for _, l := range out.Lines {
		lineIDs[l.ID] = true
	}
	out.Resources = p.resources(raw.Resources, lineIDs)
	p.monthly(raw.Monthly, lineIDs, out.Monthly)

	if err := out.Validate(); err != nil {
		return ParseResult{Err: fmt.Errorf("%s: %w", path, err)}
	}
	return ParseResult{Plan: out, Warnings: p.warnings}
}

func (p *parser) fy(raw RawPlan) (model.FYConfig, error) {
	fy := p.opts.DefaultFY
	fields := []struct {
		name string
		v    any
		dst  *int
	}{
		{"fy_start_month", raw.FYStartMonth, &fy.StartMonth},
		{"fy_start_year", raw.FYStartYear, &fy.StartYear},
		{"num_months", raw.NumMonths, &fy.NumMonths},
	}
	for _, f := range fields {
		n, ok, valid := coerceInt(f.v)
		if !valid {
			return fy, &FieldTypeError{Path: p.path, Field: f.name, Want: "integer", Value: f.v}
		}
		if ok {
			*f.dst = n
		}
	}
	if !fy.Valid() {
		p.warn("fy", "financial year %d/%d with %d months yields no months", fy.StartMonth, fy.StartYear, fy.NumMonths)
	}
	return fy, nil
}

func (p *parser) lines(rows []RawLine) []model.CostLine {
	lines := make([]model.CostLine, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		id := strings.TrimSpace(r.ID)
		where := fmt.Sprintf("cost_lines[%d]", i)
		if id == "" {
			id = plan.NewID()
			p.warn(where, "missing id; assigned %s", id)
		}
		if seen[id] {
			p.warn(where, "duplicate id %s; row skipped", id)
			continue
		}
		seen[id] = true

		cat := model.Category(strings.ToLower(strings.TrimSpace(r.Category)))
		if !cat.Valid() {
			p.warn(where, "unknown category %q; using %s", r.Category, model.CategoryOther)
			cat = model.CategoryOther
		}
		lines = append(lines, model.CostLine{
			ID:          id,
			Category:    cat,
			Description: strings.TrimSpace(r.Description),
			Budgeted:    p.money(where+".budgeted", r.Budgeted),
			Actual:      p.money(where+".actual", r.Actual),
			Forecast:    p.money(where+".forecast", r.Forecast),
			Notes:       r.Notes,
			Override:    p.flag(where+".override", r.Override),
		})
	}
	return lines
}

func (p *parser) resources(rows []RawResource, lineIDs map[string]bool) []model.Resource {
	out := make([]model.Resource, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, r := range rows {
		where := fmt.Sprintf("resources[%d]", i)
		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = plan.NewID()
			p.warn(where, "missing id; assigned %s", id)
		}
		if seen[id] {
			p.warn(where, "duplicate id %s; row skipped", id)
			continue
		}
		seen[id] = true

		res := model.Resource{
			ID:          id,
			UserID:      strings.TrimSpace(r.UserID),
			Name:        strings.TrimSpace(r.Name),
			Role:        strings.TrimSpace(r.Role),
			Type:        model.ResourceType(strings.ToLower(strings.TrimSpace(r.Type))),
			RateType:    model.RateType(strings.ToLower(strings.TrimSpace(r.RateType))),
			DayRate:     p.money(where+".day_rate", r.DayRate),
			MonthlyCost: p.money(where+".monthly_cost", r.MonthlyCost),
			CostLineID:  strings.TrimSpace(r.CostLineID),
			Notes:       r.Notes,
		}
		if days := p.money(where+".planned_days", r.PlannedDays); days.Valid {
			res.PlannedDays = days.Decimal
		}
		if months := p.money(where+".planned_months", r.PlannedMonths); months.Valid {
			res.PlannedMonths = int(months.Decimal.Ceil().IntPart())
		}

		if !res.RateType.Valid() {
			guess := model.RateDay
			if res.MonthlyCost.Valid && !res.DayRate.Valid {
				guess = model.RateMonthly
			}
			if res.RateType != "" {
				p.warn(where, "unknown rate_type %q; using %s", r.RateType, guess)
			}
			res.RateType = guess
		}

		if res.CostLineID != "" && !lineIDs[res.CostLineID] {
			p.warn(where, "cost line %s not found; resource unlinked", res.CostLineID)
			res.CostLineID = ""
		}

		if s := strings.TrimSpace(r.StartMonth); s != "" {
			mk, err := model.ParseMonthKey(s)
			if err != nil {
				p.warn(where, "start_month %q is not YYYY-MM; starting with the financial year", s)
			} else {
				res.StartMonth = mk
			}
		}

		if res.RateType == model.RateDay && !res.DayRate.Valid && res.Role != "" && p.opts.Rates != nil {
			at := p.opts.Now
			if at.IsZero() {
				at = time.Now()
			}
			if rate, ok := p.opts.Rates(res.Role, at); ok {
				res.DayRate = model.Amount(rate)
				p.warn(where, "day_rate filled from rate card for role %q: %s", res.Role, rate)
			}
		}
		out = append(out, res)
	}
	return out
}

func (p *parser) monthly(rows []RawEntry, lineIDs map[string]bool, out model.MonthlyData) {
	for i, r := range rows {
		where := fmt.Sprintf("monthly[%d]", i)
		lineID := strings.TrimSpace(r.LineID)
		if !lineIDs[lineID] {
			p.warn(where, "cost line %q not found; row skipped", r.LineID)
			continue
		}
		mk, err := model.ParseMonthKey(strings.TrimSpace(r.Month))
		if err != nil {
			p.warn(where, "month %q is not YYYY-MM; row skipped", r.Month)
			continue
		}
		e, _ := out.Entry(lineID, mk)
		patch := model.EntryPatch{}
		if r.Budget != nil {
			m := p.money(where+".budget", r.Budget)
			patch.Budget = &m
		}
		if r.Actual != nil {
			m := p.money(where+".actual", r.Actual)
			patch.Actual = &m
		}
		if r.Forecast != nil {
			m := p.money(where+".forecast", r.Forecast)
			patch.Forecast = &m
		}
		if r.CustomerRate != nil {
			m := p.money(where+".customer_rate", r.CustomerRate)
			patch.CustomerRate = &m
		}
		if r.Locked != nil {
			b := p.flag(where+".locked", r.Locked)
			patch.Locked = &b
		}
		out.Set(lineID, mk, patch.Apply(e))
	}
}
