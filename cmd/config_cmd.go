// Package cmd implements the finphase CLI commands.
package cmd

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/config"
	"github.com/theirongolddev/finphase/internal/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path()
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := configPath()
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Plans directory: %s\n", cfg.ResolvePlansDir())
	if cfg.General.DefaultPlan != "" {
		fmt.Printf("    Default plan:    %s\n", cfg.General.DefaultPlan)
	}
	fmt.Printf("    Currency:        %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Fiscal]")
	fmt.Printf("    Year starts:     %s (%d months)\n", monthLabel(cfg.Fiscal.StartMonth), cfg.Fiscal.NumMonths)
	fmt.Println()

	fmt.Println("  [Signals]")
	fmt.Printf("    Overrun warning: up to %.0f%% over budget, critical beyond\n", cfg.Signals.OverrunWarnPercent)
	fmt.Printf("    Stale after:     %d days\n", cfg.Signals.StaleDays)
	fmt.Printf("    Pending exposure: %.0f%% of approved budget\n", cfg.Signals.PendingExposurePercent)
	fmt.Printf("    Reconcile tolerance: %g\n", cfg.Signals.ReconcileTolerance)
	fmt.Println()

	fmt.Println("  [Rates]")
	fmt.Printf("    Fill missing day rates: %v\n", cfg.Rates.FillMissing)
	if len(cfg.Rates.Overrides) > 0 {
		roles := make([]string, 0, len(cfg.Rates.Overrides))
		for role := range cfg.Rates.Overrides {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		fmt.Printf("    Overrides:       %s\n", strings.Join(roles, ", "))
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:    %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshInterval)
	fmt.Println()

	fmt.Println("  [Notify]")
	if cfg.Notify.AMQPURL != "" {
		fmt.Printf("    AMQP URL:  %s\n", maskURL(cfg.Notify.AMQPURL))
		fmt.Printf("    Exchange:  %s\n", cfg.Notify.Exchange)
	} else {
		fmt.Println("    AMQP: not configured")
	}
	fmt.Println()

	fmt.Printf("  Cache: %s\n", pipeline.CachePath())
	fmt.Println("  Run `finphase setup` to reconfigure.")
	return nil
}

// maskURL hides the password of a broker URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(invalid url)"
	}
	return u.Redacted()
}
