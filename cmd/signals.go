package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/pipeline"
)

var (
	flagSignalsSeverity string
	flagSignalsJSON     bool
	flagSignalsAll      bool
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Budget-health signals for a plan",
	RunE:  runSignals,
}

func init() {
	signalsCmd.Flags().StringVarP(&flagSignalsSeverity, "severity", "s", "", "Minimum severity (info, warning, critical)")
	signalsCmd.Flags().BoolVar(&flagSignalsJSON, "json", false, "Print signals as JSON")
	signalsCmd.Flags().BoolVarP(&flagSignalsAll, "all", "a", false, "Evaluate every plan in the plans directory")
	rootCmd.AddCommand(signalsCmd)
}

type planSignals struct {
	PlanID  string         `json:"plan_id"`
	Signals []model.Signal `json:"signals"`
}

func runSignals(cmd *cobra.Command, _ []string) error {
	minRank := 0
	if flagSignalsSeverity != "" {
		sev := model.Severity(strings.ToLower(flagSignalsSeverity))
		if sev.Rank() == 0 {
			return fmt.Errorf("unknown severity %q (want info, warning or critical)", flagSignalsSeverity)
		}
		minRank = sev.Rank()
	}

	res, err := loadData()
	if err != nil {
		return err
	}
	var plans []pipeline.LoadedPlan
	if flagSignalsAll {
		plans = res.Plans
	} else {
		lp, err := selectPlan(res)
		if err != nil {
			return err
		}
		plans = []pipeline.LoadedPlan{lp}
	}

	engine := newEngine()
	out := make([]planSignals, 0, len(plans))
	for _, lp := range plans {
		ps := planSignals{PlanID: lp.Plan.ID, Signals: []model.Signal{}}
		for _, s := range lp.Plan.Signals(engine, lp.Exposure) {
			if s.Severity.Rank() >= minRank {
				ps.Signals = append(ps.Signals, s)
			}
		}
		out = append(out, ps)
	}

	if flagSignalsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if flagSignalsAll {
			return enc.Encode(out)
		}
		return enc.Encode(out[0].Signals)
	}

	total := 0
	for _, ps := range out {
		total += len(ps.Signals)
		if len(ps.Signals) == 0 {
			if !flagSignalsAll {
				fmt.Printf("\n  %s no signals for %s\n\n", cli.RenderStatus(true), ps.PlanID)
			}
			continue
		}
		rows := make([][]string, 0, len(ps.Signals))
		for _, s := range ps.Signals {
			rows = append(rows, []string{
				cli.SeverityBadge(s.Severity),
				s.Code,
				string(s.Scope) + " " + s.ScopeKey,
				cli.Truncate(s.Detail, 60),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   ps.PlanID,
			Headers: []string{"", "Code", "Scope", "Detail"},
			Rows:    rows,
		}))
	}
	if flagSignalsAll {
		fmt.Fprintf(os.Stderr, "\n  %d signals across %d plans\n\n", total, len(out))
	}
	return nil
}
