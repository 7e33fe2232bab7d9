package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/plan"
)

var (
	flagResID          string
	flagResName        string
	flagResRole        string
	flagResType        string
	flagResRateType    string
	flagResDayRate     string
	flagResDays        string
	flagResMonthlyCost string
	flagResMonths      int
	flagResLine        string
	flagResStart       string
	flagResNotes       string
)

var resourceCmd = &cobra.Command{
	Use:     "resource",
	Aliases: []string{"resources", "res"},
	Short:   "List and edit staffed resources",
	RunE:    runResourceList,
}

var resourceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a resource",
	Example: `  finphase resource add --name "A. Jones" --role developer --days 60 --line dev-01
  finphase resource add --name Hosting --rate-type monthly_cost --monthly-cost 900 --months 12`,
	Args: cobra.NoArgs,
	RunE: runResourceAdd,
}

var resourceRmCmd = &cobra.Command{
	Use:   "rm RESOURCE",
	Short: "Remove a resource",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourceRm,
}

var resourceLinkCmd = &cobra.Command{
	Use:   "link RESOURCE [LINE]",
	Short: "Link a resource to a cost line, or unlink it when LINE is omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runResourceLink,
}

func init() {
	f := resourceAddCmd.Flags()
	f.StringVar(&flagResID, "id", "", "Resource ID (generated when empty)")
	f.StringVar(&flagResName, "name", "", "Name")
	f.StringVar(&flagResRole, "role", "", "Role, used to look up a day rate")
	f.StringVar(&flagResType, "type", string(model.ResourceInternal), "internal, contractor or vendor")
	f.StringVar(&flagResRateType, "rate-type", string(model.RateDay), "day_rate or monthly_cost")
	f.StringVar(&flagResDayRate, "day-rate", "", "Day rate (filled from the rate card when empty)")
	f.StringVar(&flagResDays, "days", "", "Planned days")
	f.StringVar(&flagResMonthlyCost, "monthly-cost", "", "Monthly cost")
	f.IntVar(&flagResMonths, "months", 0, "Planned months")
	f.StringVarP(&flagResLine, "line", "l", "", "Cost line to roll up into")
	f.StringVar(&flagResStart, "start", "", "Start month YYYY-MM (default: start of the financial year)")
	f.StringVar(&flagResNotes, "notes", "", "Notes")

	resourceCmd.AddCommand(resourceAddCmd, resourceRmCmd, resourceLinkCmd)
	rootCmd.AddCommand(resourceCmd)
}

func runResourceList(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	p := lp.Plan
	cur := p.Currency

	rows := make([][]string, 0, len(p.Resources))
	for _, rc := range pipeline.ResourceBreakdown(p) {
		r := rc.Resource
		line := cli.Blank
		if l, ok := p.Line(r.CostLineID); ok {
			line = cli.Truncate(cli.LineLabel(l), 20)
		} else if r.Linked() {
			line = cli.RenderWarning(r.CostLineID + "?")
		}
		cost, months := cli.Blank, cli.Blank
		if rc.Costable {
			a := rc.Amortization
			cost = cli.FormatAmount(a.Scheduled(), cur)
			months = fmt.Sprintf("%d", a.DurationMonths)
			if a.Clipped {
				cost += " " + cli.RenderWarning("+"+cli.FormatCompact(a.ClippedAmount, cur)+" clipped")
			}
		}
		rows = append(rows, []string{
			cli.Truncate(resourceLabel(r), 24),
			string(r.RateType),
			months,
			cost,
			line,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Resources: " + p.ID,
		Headers: []string{"Resource", "Rate", "Months", "In-year cost", "Line"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func resourceLabel(r model.Resource) string {
	switch {
	case r.Name != "" && r.Role != "":
		return r.Name + " (" + r.Role + ")"
	case r.Name != "":
		return r.Name
	case r.Role != "":
		return r.Role
	}
	return r.ID
}

func runResourceAdd(_ *cobra.Command, _ []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	r, err := resourceFromFlags(appConfig().DayRateFor, time.Now())
	if err != nil {
		return err
	}
	if _, err := applyAndSave(lp, plan.AddResource{Resource: r}); err != nil {
		return err
	}
	fmt.Printf("  Added resource %s to %s\n", r.ID, lp.Plan.ID)
	if r.Linked() {
		fmt.Println(cli.RenderMuted("  run `finphase rollup --write` to update the line's forecast"))
	}
	return nil
}

func resourceFromFlags(rates func(string, time.Time) (decimal.Decimal, bool), now time.Time) (model.Resource, error) {
	r := model.Resource{
		ID:            flagResID,
		Name:          flagResName,
		Role:          flagResRole,
		Type:          model.ResourceType(flagResType),
		RateType:      model.RateType(flagResRateType),
		PlannedMonths: flagResMonths,
		CostLineID:    flagResLine,
		Notes:         flagResNotes,
	}
	if r.ID == "" {
		r.ID = plan.NewID()
	}
	var err error
	if r.DayRate, err = parseAmount(flagResDayRate); err != nil {
		return r, fmt.Errorf("--day-rate: %w", err)
	}
	if r.MonthlyCost, err = parseAmount(flagResMonthlyCost); err != nil {
		return r, fmt.Errorf("--monthly-cost: %w", err)
	}
	if flagResDays != "" {
		if r.PlannedDays, err = decimal.NewFromString(flagResDays); err != nil {
			return r, fmt.Errorf("--days: %w", err)
		}
	}
	if flagResStart != "" {
		if r.StartMonth, err = model.ParseMonthKey(flagResStart); err != nil {
			return r, fmt.Errorf("--start: %w", err)
		}
	}
	if r.RateType == model.RateDay && !r.DayRate.Valid && r.Role != "" && appConfig().Rates.FillMissing {
		if rate, ok := rates(r.Role, now); ok {
			r.DayRate = model.Amount(rate)
		}
	}
	return r, nil
}

func runResourceRm(_ *cobra.Command, args []string) error {
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	if _, err := applyAndSave(lp, plan.RemoveResource{ID: args[0]}); err != nil {
		return err
	}
	fmt.Printf("  Removed resource %s\n", args[0])
	return nil
}

func runResourceLink(_ *cobra.Command, args []string) error {
	lineID := ""
	if len(args) == 2 {
		lineID = args[1]
	}
	lp, err := loadSelectedPlan()
	if err != nil {
		return err
	}
	if _, err := applyAndSave(lp, plan.LinkResource{ResourceID: args[0], LineID: lineID}); err != nil {
		return err
	}
	if lineID == "" {
		fmt.Printf("  Unlinked resource %s\n", args[0])
	} else {
		fmt.Printf("  Linked resource %s to line %s\n", args[0], lineID)
	}
	return nil
}
