package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/plan"
)

var (
	flagReconcileFix   string
	flagReconcileWrite bool
	flagReconcileAll   bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare cost line totals with their monthly phasing",
	Long: `Compare each cost line's budgeted and forecast totals with the sum of its
monthly entries. --fix spreads a line's totals evenly across the financial
year; add --write to save the result to the plan file.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&flagReconcileFix, "fix", "", "Distribute this line's totals evenly across the year")
	reconcileCmd.Flags().BoolVar(&flagReconcileWrite, "write", false, "Save the --fix result to the plan file")
	reconcileCmd.Flags().BoolVarP(&flagReconcileAll, "all", "a", false, "Show reconciled lines too")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	p := lp.Plan
	tolerance := appConfig().SignalConfig().ReconcileTolerance

	if flagReconcileFix != "" {
		m := plan.DistributeEvenly{LineID: flagReconcileFix}
		if flagReconcileWrite {
			p, err = applyAndSave(lp, m)
		} else {
			p, err = previewApply(p, m)
		}
		if err != nil {
			return err
		}
	}

	rows := p.Reconcile(tolerance)
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Reconciliation (tolerance %s)", cli.FormatAmount(decimal.NewFromFloat(tolerance), p.Currency)),
		Headers: []string{"", "Line", "Budgeted", "Phased", "Diff", "Forecast", "Phased", "Diff"},
		Rows:    reconcileRows(rows, p.Currency, flagReconcileAll),
	}))

	bad := 0
	for _, r := range rows {
		if !r.AllOK {
			bad++
		}
	}
	switch {
	case flagReconcileFix != "" && !flagReconcileWrite:
		fmt.Println(cli.RenderMuted("  dry run: pass --write to save the redistribution"))
	case flagReconcileFix != "":
		fmt.Printf("  Saved %s\n", lp.Path)
	}
	if bad == 0 {
		fmt.Printf("  %s all %d lines reconcile\n", cli.RenderStatus(true), len(rows))
	} else {
		fmt.Printf("  %s %d of %d lines out of tolerance\n", cli.RenderStatus(false), bad, len(rows))
	}
	fmt.Println()
	return nil
}

func reconcileRows(rows []phasing.ReconciliationRow, cur string, all bool) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.AllOK && !all {
			continue
		}
		out = append(out, []string{
			cli.RenderStatus(r.AllOK),
			cli.Truncate(cli.LineLabel(r.Line), 28),
			cli.FormatMoney(r.CBBudget, cur),
			cli.FormatAmount(r.PhasedBudget, cur),
			cli.FormatAmount(r.BudgetDiff, cur),
			cli.FormatMoney(r.CBForecast, cur),
			cli.FormatAmount(r.PhasedForecast, cur),
			cli.FormatAmount(r.ForecastDiff, cur),
		})
	}
	return out
}

// previewApply runs mutations without saving anything.
func previewApply(p plan.Plan, ms ...plan.Mutation) (plan.Plan, error) {
	for _, m := range ms {
		next, _, err := plan.Apply(p, m, p.LastUpdatedAt)
		if err != nil {
			return p, err
		}
		p = next
	}
	return p, nil
}
