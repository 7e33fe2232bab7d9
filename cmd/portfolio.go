package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
)

var portfolioCmd = &cobra.Command{
	Use:     "portfolio",
	Aliases: []string{"plans"},
	Short:   "All plans side by side, with category totals",
	RunE:    runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	res, err := loadData()
	if err != nil {
		return err
	}
	if len(res.Plans) == 0 {
		fmt.Printf("\n  No plans found in %s.\n\n", plansDir())
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pf, err := pipeline.AggregatePortfolio(ctx, res.Plans, newEngine())
	if err != nil {
		return err
	}
	pipeline.SortReports(pf.Reports)
	cur := appConfig().General.Currency

	rows := make([][]string, 0, len(pf.Reports)+2)
	for _, r := range pf.Reports {
		counts := r.CountBySeverity()
		rows = append(rows, []string{
			cli.Truncate(planTitle(r), 28),
			cli.FormatAmount(r.ApprovedBudget, r.Currency),
			cli.FormatMoney(r.Total.Forecast, r.Currency),
			cli.RenderBudgetBar(model.OrZero(r.Total.Forecast), r.ApprovedBudget, 12),
			cli.FormatMoney(r.Total.Actual, r.Currency),
			cli.FormatNumber(int64(len(r.Unreconciled()))),
			signalCounts(counts),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{
		fmt.Sprintf("%d plans", pf.PlanCount),
		cli.FormatAmount(pf.ApprovedBudget, cur),
		cli.FormatAmount(pf.Forecast(), cur),
		cli.RenderBudgetBar(pf.Forecast(), pf.ApprovedBudget, 12),
		cli.FormatMoney(pf.Total.Actual, cur),
		cli.FormatNumber(int64(pf.Unreconciled)),
		signalCounts(pf.Signals),
	})

	fmt.Println()
	fmt.Println(cli.RenderTitle("PORTFOLIO"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Plan", "Approved", "Forecast", "Used", "Actual", "Unrec.", "Signals"},
		Rows:    rows,
	}))

	if len(pf.Categories) > 0 {
		fmt.Println()
		maxF := model.OrZero(pf.Categories[0].Phased.Forecast).InexactFloat64()
		for _, c := range pf.Categories {
			f := model.OrZero(c.Phased.Forecast)
			fmt.Printf("  %s  %s\n",
				cli.RenderHorizontalBar(cli.Truncate(cli.CategoryLabel(c.Category), 26), f.InexactFloat64(), maxF, 30),
				cli.FormatCompact(f, cur))
		}
	}
	fmt.Println()
	return nil
}

func signalCounts(counts map[model.Severity]int) string {
	if counts[model.SeverityCritical]+counts[model.SeverityWarning]+counts[model.SeverityInfo] == 0 {
		return cli.RenderStatus(true)
	}
	return fmt.Sprintf("%dC %dW %dI",
		counts[model.SeverityCritical], counts[model.SeverityWarning], counts[model.SeverityInfo])
}
