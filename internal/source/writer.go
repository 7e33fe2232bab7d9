package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/plan"
)

// moneyOut renders a set amount as a decimal string so precision survives
// every format. Unset amounts are omitted.
func moneyOut(m model.Money) any {
	if !m.Valid {
		return nil
	}
	return m.Decimal.String()
}

// ToRaw converts a plan back to its document shape. Monthly rows are
// ordered by line then month.
func ToRaw(p plan.Plan) RawPlan {
	raw := RawPlan{
		ID:             p.ID,
		Name:           p.Name,
		Currency:       p.Currency,
		FYStartMonth:   p.FY.StartMonth,
		FYStartYear:    p.FY.StartYear,
		NumMonths:      p.FY.NumMonths,
		ApprovedBudget: moneyOut(p.ApprovedBudget),
	}
	if !p.LastUpdatedAt.IsZero() {
		raw.LastUpdatedAt = p.LastUpdatedAt.UTC().Format(time.RFC3339)
	}

	for _, l := range p.Lines {
		rl := RawLine{
			ID:          l.ID,
			Category:    string(l.Category),
			Description: l.Description,
			Budgeted:    moneyOut(l.Budgeted),
			Actual:      moneyOut(l.Actual),
			Forecast:    moneyOut(l.Forecast),
			Notes:       l.Notes,
		}
		if l.Override {
			rl.Override = true
		}
		raw.Lines = append(raw.Lines, rl)
	}

	for _, r := range p.Resources {
		rr := RawResource{
			ID:          r.ID,
			UserID:      r.UserID,
			Name:        r.Name,
			Role:        r.Role,
			Type:        string(r.Type),
			RateType:    string(r.RateType),
			DayRate:     moneyOut(r.DayRate),
			MonthlyCost: moneyOut(r.MonthlyCost),
			CostLineID:  r.CostLineID,
			StartMonth:  string(r.StartMonth),
			Notes:       r.Notes,
		}
		if !r.PlannedDays.IsZero() {
			rr.PlannedDays = r.PlannedDays.String()
		}
		if r.PlannedMonths > 0 {
			rr.PlannedMonths = r.PlannedMonths
		}
		raw.Resources = append(raw.Resources, rr)
	}

	lineIDs := make([]string, 0, len(p.Monthly))
	for id := range p.Monthly {
		lineIDs = append(lineIDs, id)
	}
	sort.Strings(lineIDs)
	for _, id := range lineIDs {
		months := make([]model.MonthKey, 0, len(p.Monthly[id]))
		for mk := range p.Monthly[id] {
			months = append(months, mk)
		}
		sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
		for _, mk := range months {
			e := p.Monthly[id][mk]
			re := RawEntry{
				LineID:       id,
				Month:        string(mk),
				Budget:       moneyOut(e.Budget),
				Actual:       moneyOut(e.Actual),
				Forecast:     moneyOut(e.Forecast),
				CustomerRate: moneyOut(e.CustomerRate),
			}
			if e.Locked {
				re.Locked = true
			}
			raw.Monthly = append(raw.Monthly, re)
		}
	}
	return raw
}

// Encode serializes a plan in the given format.
func Encode(format Format, p plan.Plan) ([]byte, error) {
	raw := ToRaw(p)
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(raw, "", "  ")
	case FormatYAML:
		return yaml.Marshal(raw)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// WriteFile writes a plan to path, choosing the format from its extension.
// The file is replaced atomically.
func WriteFile(path string, p plan.Plan) error {
	format := FormatOf(path)
	data, err := Encode(format, p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".finphase-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing plan: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing plan: %w", err)
	}
	return nil
}
