package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/plan"
)

var flagPhasingLine string

var phasingCmd = &cobra.Command{
	Use:   "phasing",
	Short: "Monthly phasing grid with quarter subtotals",
	RunE:  runPhasing,
}

func init() {
	phasingCmd.Flags().StringVarP(&flagPhasingLine, "line", "l", "", "Show a single cost line instead of the plan total")
	rootCmd.AddCommand(phasingCmd)
}

func runPhasing(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	p := lp.Plan
	cur := p.Currency

	title := "Monthly phasing"
	monthTotals := func(mk model.MonthKey) phasing.Totals { return phasing.MonthTotal(p.Monthly, mk) }
	if flagPhasingLine != "" {
		l, ok := p.Line(flagPhasingLine)
		if !ok {
			return fmt.Errorf("cost line %q not found in plan %s", flagPhasingLine, p.ID)
		}
		title = "Monthly phasing: " + cli.LineLabel(l)
		monthTotals = func(mk model.MonthKey) phasing.Totals {
			return phasing.LineTotal(p.Monthly, l.ID, []model.MonthKey{mk})
		}
	}

	rows := phasingRows(p, cur, monthTotals)
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Month", "Budget", "Actual", "Forecast", "Movement", "Customer", "Margin"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

// phasingRows lays out months grouped by quarter, each quarter followed by
// its subtotal, then the full-year total.
func phasingRows(p plan.Plan, cur string, monthTotals func(model.MonthKey) phasing.Totals) [][]string {
	keys := p.Keys()
	var rows [][]string
	var year phasing.Totals
	for _, q := range p.Quarters() {
		var qt phasing.Totals
		for _, mk := range q.Months {
			t := monthTotals(mk)
			qt = qt.Plus(t)
			rows = append(rows, totalsRow(mk.Label(), t, cur, movementOf(mk, keys, monthTotals)))
		}
		year = year.Plus(qt)
		rows = append(rows, totalsRow(cli.RenderMuted(q.Label), qt, cur, model.Unset))
		rows = append(rows, []string{"---"})
	}
	rows = append(rows, totalsRow("FY total", year, cur, model.Unset))
	return rows
}

func movementOf(mk model.MonthKey, keys []model.MonthKey, monthTotals func(model.MonthKey) phasing.Totals) model.Money {
	i := phasing.IndexOf(keys, mk)
	if i <= 0 {
		return model.Unset
	}
	curr, prev := model.OrZero(monthTotals(mk).Forecast), model.OrZero(monthTotals(keys[i-1]).Forecast)
	return model.Amount(curr.Sub(prev))
}

func totalsRow(label string, t phasing.Totals, cur string, movement model.Money) []string {
	return []string{
		label,
		cli.FormatMoney(t.Budget, cur),
		cli.FormatMoney(t.Actual, cur),
		cli.FormatMoney(t.Forecast, cur),
		cli.FormatDelta(movement, cur),
		cli.FormatMoney(t.CustomerRate, cur),
		cli.FormatPercent(pipeline.MarginOf(t)),
	}
}
