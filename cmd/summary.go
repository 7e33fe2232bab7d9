package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/phasing"
	"github.com/theirongolddev/finphase/internal/pipeline"
)

var flagSummaryTop int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Plan overview with totals, reconciliation and top signals",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&flagSummaryTop, "top", 5, "Number of signals to list")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	rep := pipeline.Evaluate(lp.Plan, newEngine(), lp.Exposure)
	cur := rep.Currency

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s  FY %s", planTitle(rep), fyLabel(rep))))
	fmt.Println()

	forecast := model.OrZero(rep.Total.Forecast)
	forecastStr := cli.FormatMoney(rep.Total.Forecast, cur)
	if ratio, over := phasing.Overrun(forecast, rep.ApprovedBudget); over {
		forecastStr += "  " + cli.RenderWarning(fmt.Sprintf("over by %s (%s)",
			cli.FormatAmount(forecast.Sub(rep.ApprovedBudget), cur), cli.FormatRatio(ratio)))
	}

	monthly := make([]model.Money, 0, len(rep.Months))
	for _, m := range rep.Months {
		monthly = append(monthly, m.Totals.Forecast)
	}

	counts := rep.CountBySeverity()
	rows := [][]string{
		{"Cost lines", cli.FormatNumber(int64(len(rep.Lines)))},
		{"Resources", cli.FormatNumber(int64(len(rep.Resources)))},
		{"Last updated", cli.FormatAge(rep.LastUpdatedAt, time.Now())},
		{"---"},
		{"Approved budget", cli.FormatAmount(rep.ApprovedBudget, cur)},
		{"Phased budget", cli.FormatMoney(rep.Total.Budget, cur)},
		{"Actual to date", cli.FormatMoney(rep.Total.Actual, cur)},
		{"Forecast", forecastStr},
		{"Forecast vs approved", cli.RenderBudgetBar(forecast, rep.ApprovedBudget, 20)},
		{"Monthly forecast", cli.RenderSparkline(monthly)},
		{"Customer rate", cli.FormatMoney(rep.Total.CustomerRate, cur)},
		{"---"},
		{"Unreconciled lines", cli.RenderStatus(len(rep.Unreconciled()) == 0) + " " + cli.FormatNumber(int64(len(rep.Unreconciled())))},
		{"Signals", fmt.Sprintf("%d critical, %d warning, %d info",
			counts[model.SeverityCritical], counts[model.SeverityWarning], counts[model.SeverityInfo])},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(rep.Signals) > 0 && flagSummaryTop > 0 {
		fmt.Println()
		n := min(flagSummaryTop, len(rep.Signals))
		srows := make([][]string, 0, n)
		for _, s := range rep.Signals[:n] {
			srows = append(srows, []string{cli.SeverityBadge(s.Severity), s.Title})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Top signals",
			Headers: []string{"", "Signal"},
			Rows:    srows,
		}))
		if len(rep.Signals) > n {
			fmt.Println(cli.RenderMuted(fmt.Sprintf("  %d more, see `finphase signals`", len(rep.Signals)-n)))
		}
	}
	fmt.Println()
	return nil
}

func planTitle(rep pipeline.Report) string {
	if rep.Name != "" {
		return rep.Name
	}
	return rep.PlanID
}

func fyLabel(rep pipeline.Report) string {
	if len(rep.Keys) == 0 {
		return "(empty window)"
	}
	return rep.Keys[0].Label() + " - " + rep.Keys[len(rep.Keys)-1].Label()
}
