package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/plan"
)

var (
	flagEntryBudget       string
	flagEntryActual       string
	flagEntryForecast     string
	flagEntryCustomerRate string
	flagEntryLock         bool
	flagEntryUnlock       bool
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Edit monthly phasing entries",
}

var entrySetCmd = &cobra.Command{
	Use:   "set LINE MONTH",
	Short: "Set fields of one monthly entry (MONTH is YYYY-MM)",
	Long: `Set fields of one monthly entry. Only the flags given are changed; pass
"-" as an amount to clear it.`,
	Example: `  finphase entry set hw-01 2025-06 --forecast 1200
  finphase entry set hw-01 2025-06 --actual 1180.50 --lock`,
	Args: cobra.ExactArgs(2),
	RunE: runEntrySet,
}

func init() {
	f := entrySetCmd.Flags()
	f.StringVar(&flagEntryBudget, "budget", "", "Budget amount")
	f.StringVar(&flagEntryActual, "actual", "", "Actual amount")
	f.StringVar(&flagEntryForecast, "forecast", "", "Forecast amount")
	f.StringVar(&flagEntryCustomerRate, "customer-rate", "", "Customer rate amount")
	f.BoolVar(&flagEntryLock, "lock", false, "Lock the entry")
	f.BoolVar(&flagEntryUnlock, "unlock", false, "Unlock the entry")
	entrySetCmd.MarkFlagsMutuallyExclusive("lock", "unlock")

	entryCmd.AddCommand(entrySetCmd)
	rootCmd.AddCommand(entryCmd)
}

func runEntrySet(cmd *cobra.Command, args []string) error {
	mk, err := model.ParseMonthKey(args[1])
	if err != nil {
		return err
	}
	patch, err := entryPatchFromFlags(cmd)
	if err != nil {
		return err
	}
	if patch == (model.EntryPatch{}) {
		return fmt.Errorf("nothing to set; pass at least one of --budget, --actual, --forecast, --customer-rate, --lock, --unlock")
	}

	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	p, err := applyAndSave(lp, plan.SetEntry{LineID: args[0], Month: mk, Patch: patch})
	if err != nil {
		return err
	}

	e, _ := p.Monthly.Entry(args[0], mk)
	cur := p.Currency
	fmt.Printf("  %s %s: budget %s, actual %s, forecast %s, customer %s%s\n",
		args[0], mk.Label(),
		cli.FormatMoney(e.Budget, cur), cli.FormatMoney(e.Actual, cur),
		cli.FormatMoney(e.Forecast, cur), cli.FormatMoney(e.CustomerRate, cur),
		lockedSuffix(e.Locked))
	return nil
}

func entryPatchFromFlags(cmd *cobra.Command) (model.EntryPatch, error) {
	var patch model.EntryPatch
	fields := []struct {
		flag string
		raw  string
		dst  **model.Money
	}{
		{"budget", flagEntryBudget, &patch.Budget},
		{"actual", flagEntryActual, &patch.Actual},
		{"forecast", flagEntryForecast, &patch.Forecast},
		{"customer-rate", flagEntryCustomerRate, &patch.CustomerRate},
	}
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		m, err := parseAmount(f.raw)
		if err != nil {
			return patch, fmt.Errorf("--%s: %w", f.flag, err)
		}
		*f.dst = &m
	}
	switch {
	case flagEntryLock:
		locked := true
		patch.Locked = &locked
	case flagEntryUnlock:
		locked := false
		patch.Locked = &locked
	}
	return patch, nil
}

// parseAmount reads a flag amount. Empty or "-" means unset.
func parseAmount(raw string) (model.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == cli.Blank {
		return model.Unset, nil
	}
	return model.AmountFromString(strings.ReplaceAll(raw, ",", ""))
}

func lockedSuffix(locked bool) string {
	if locked {
		return " " + cli.RenderMuted("(locked)")
	}
	return ""
}
