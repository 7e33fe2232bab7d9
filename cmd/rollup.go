package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/plan"
)

var flagRollupWrite bool

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Roll linked resource costs into monthly forecasts",
	Long: `Amortize every linked resource across the financial year and show the
forecast each cost line would receive per month. Lines marked as override are
left alone. Pass --write to save the result to the plan file.`,
	RunE: runRollup,
}

func init() {
	rollupCmd.Flags().BoolVar(&flagRollupWrite, "write", false, "Save the rollup to the plan file")
	rootCmd.AddCommand(rollupCmd)
}

func runRollup(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	p := lp.Plan
	cur := p.Currency
	keys := p.Keys()

	proposals := phasing.ProposeRollup(p.Resources, p.Lines, p.Monthly, keys)
	if len(proposals) == 0 {
		fmt.Println("\n  No linked resources to roll up.")
		if n := len(p.UnlinkedResources()); n > 0 {
			fmt.Printf("  %d resources have no cost line; link them with `finphase resource link`.\n", n)
		}
		fmt.Println()
		return nil
	}

	lineIDs := make([]string, 0, len(proposals))
	for id := range proposals {
		lineIDs = append(lineIDs, id)
	}
	sort.Strings(lineIDs)

	var rows [][]string
	for _, id := range lineIDs {
		l, _ := p.Line(id)
		var before, after, budgetFill phasing.Totals
		for _, mk := range keys {
			pr, ok := proposals[id][mk]
			if !ok {
				continue
			}
			e, _ := p.Monthly.Entry(id, mk)
			before = before.Add(model.MonthlyEntry{Forecast: e.Forecast})
			after = after.Add(model.MonthlyEntry{Forecast: model.Amount(pr.Forecast)})
			budgetFill = budgetFill.Add(model.MonthlyEntry{Budget: pr.Budget})
		}
		rows = append(rows, []string{
			cli.Truncate(cli.LineLabel(l), 28),
			cli.FormatNumber(int64(len(proposals[id]))),
			cli.FormatMoney(before.Forecast, cur),
			cli.FormatMoney(after.Forecast, cur),
			cli.FormatMoney(budgetFill.Budget, cur),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Resource rollup",
		Headers: []string{"Line", "Months", "Forecast now", "Forecast after", "Budget filled"},
		Rows:    rows,
	}))

	if !flagRollupWrite {
		fmt.Println(cli.RenderMuted("  dry run: pass --write to save"))
		fmt.Println()
		return nil
	}
	if _, err := applyAndSave(lp, plan.RunRollup{}); err != nil {
		return err
	}
	fmt.Printf("  Saved %s\n\n", lp.Path)
	return nil
}
