// Package signals evaluates budget-health rules over a plan snapshot.
package signals

import "time"

// Config holds the rule thresholds.
type Config struct {
	// OverrunWarnRatio is the largest overrun fraction still reported as a warning.
	// Default: 0.20
	OverrunWarnRatio float64

	// StaleAfter is how long a plan may go without edits before STALE_PLAN fires.
	// Default: 14 days
	StaleAfter time.Duration

	// PendingExposureRatio is the share of the approved budget that pending
	// change impacts may reach before PENDING_CHANGE_EXPOSURE fires.
	// Default: 0.10
	PendingExposureRatio float64

	// ReconcileTolerance is the accepted drift between a line total and its phasing.
	// Default: 1
	ReconcileTolerance float64
}

// DefaultConfig returns default thresholds.
func DefaultConfig() Config {
	return Config{
		OverrunWarnRatio:     0.20,
		StaleAfter:           14 * 24 * time.Hour,
		PendingExposureRatio: 0.10,
		ReconcileTolerance:   1,
	}
}
