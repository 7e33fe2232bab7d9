package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/plan"
)

var (
	flagLineID          string
	flagLineCategory    string
	flagLineDescription string
	flagLineBudgeted    string
	flagLineForecast    string
	flagLineActual      string
	flagLineNotes       string
	flagLineOverrideOff bool
)

var lineCmd = &cobra.Command{
	Use:     "line",
	Aliases: []string{"lines"},
	Short:   "List and edit cost lines",
	RunE:    runLineList,
}

var lineAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a cost line",
	Args:  cobra.NoArgs,
	RunE:  runLineAdd,
}

var lineRmCmd = &cobra.Command{
	Use:   "rm LINE",
	Short: "Remove a cost line and its monthly entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineRm,
}

var lineOverrideCmd = &cobra.Command{
	Use:   "override LINE",
	Short: "Stop resource rollup from writing to a line",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineOverride,
}

func init() {
	f := lineAddCmd.Flags()
	f.StringVar(&flagLineID, "id", "", "Line ID (generated when empty)")
	f.StringVarP(&flagLineCategory, "category", "c", string(model.CategoryOther), "Category: "+categoryList())
	f.StringVar(&flagLineDescription, "desc", "", "Description")
	f.StringVarP(&flagLineBudgeted, "budget", "b", "", "Budgeted total")
	f.StringVarP(&flagLineForecast, "forecast", "f", "", "Forecast total")
	f.StringVar(&flagLineActual, "actual", "", "Actual total")
	f.StringVar(&flagLineNotes, "notes", "", "Notes")

	lineOverrideCmd.Flags().BoolVar(&flagLineOverrideOff, "off", false, "Clear the override")

	lineCmd.AddCommand(lineAddCmd, lineRmCmd, lineOverrideCmd)
	rootCmd.AddCommand(lineCmd)
}

func categoryList() string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func runLineList(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	rep := pipeline.Evaluate(lp.Plan, newEngine(), lp.Exposure)
	cur := rep.Currency

	rows := make([][]string, 0, len(rep.Lines))
	for _, lr := range rep.Lines {
		l := lr.Line
		name := cli.Truncate(cli.LineLabel(l), 28)
		if l.Override {
			name += " " + cli.RenderMuted("(override)")
		}
		forecast := cli.FormatMoney(lr.Phased.Forecast, cur)
		if lr.Over {
			forecast = cli.RenderWarning(forecast)
		}
		rows = append(rows, []string{
			name,
			l.ID,
			cli.FormatMoney(l.Budgeted, cur),
			cli.FormatMoney(lr.Phased.Actual, cur),
			forecast,
			cli.FormatPercent(lr.Utilization),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Cost lines: %s", planTitle(rep)),
		Headers: []string{"Line", "ID", "Budgeted", "Actual", "Forecast", "Used"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runLineAdd(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	l := model.CostLine{
		ID:          flagLineID,
		Category:    model.Category(strings.ToLower(flagLineCategory)),
		Description: flagLineDescription,
		Notes:       flagLineNotes,
	}
	if l.ID == "" {
		l.ID = plan.NewID()
	}
	amounts := []struct {
		name string
		raw  string
		dst  *model.Money
	}{
		{"budget", flagLineBudgeted, &l.Budgeted},
		{"forecast", flagLineForecast, &l.Forecast},
		{"actual", flagLineActual, &l.Actual},
	}
	for _, a := range amounts {
		if *a.dst, err = parseAmount(a.raw); err != nil {
			return fmt.Errorf("--%s: %w", a.name, err)
		}
	}

	if _, err := applyAndSave(lp, plan.AddLine{Line: l}); err != nil {
		return err
	}
	fmt.Printf("  Added line %s to %s\n", l.ID, lp.Plan.ID)
	return nil
}

func runLineRm(_ *cobra.Command, args []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	if _, err := applyAndSave(lp, plan.RemoveLine{ID: args[0]}); err != nil {
		return err
	}
	fmt.Printf("  Removed line %s\n", args[0])
	return nil
}

func runLineOverride(_ *cobra.Command, args []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	if _, err := applyAndSave(lp, plan.SetOverride{ID: args[0], Override: !flagLineOverrideOff}); err != nil {
		return err
	}
	state := "on"
	if flagLineOverrideOff {
		state = "off"
	}
	fmt.Printf("  Override %s for line %s\n", state, args[0])
	return nil
}
