package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/finphase/internal/signals"
)

// ReadExposure reads a change-exposure document.
func ReadExposure(path string) (*RawExposure, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the plans dir or a flag
	if err != nil {
		return nil, fmt.Errorf("reading exposure: %w", err)
	}
	var raw RawExposure
	if err := decode(FormatOf(path), data, &raw); err != nil {
		return nil, fmt.Errorf("decoding exposure %s: %w", path, err)
	}
	return &raw, nil
}

// ExposureContext converts exposure rows for the rule engine. Rows with an
// unusable cost impact are dropped and reported as warnings.
func ExposureContext(raw *RawExposure) (*signals.ExternalContext, []Warning) {
	if raw == nil {
		return nil, nil
	}
	var warnings []Warning
	ctx := &signals.ExternalContext{}
	for i, c := range raw.PendingChanges {
		impact, problem := coerceMoney(c.CostImpact)
		if !impact.Valid {
			if problem == "" {
				problem = "missing cost_impact"
			}
			warnings = append(warnings, Warning{Where: fmt.Sprintf("pending_changes[%d]", i), Message: problem + "; row skipped"})
			continue
		}
		ctx.PendingChanges = append(ctx.PendingChanges, signals.ChangeExposure{
			ID:         strings.TrimSpace(c.ID),
			Title:      strings.TrimSpace(c.Title),
			Status:     c.Status,
			CostImpact: impact.Decimal,
		})
	}
	return ctx, warnings
}
