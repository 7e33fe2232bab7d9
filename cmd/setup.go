package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appConfig()
	dir := plansDir()

	files, _ := source.ScanDir(dir)
	vals := tui.NewSetupValues(cfg)
	if flagPlansDir != "" {
		vals.PlansDir = flagPlansDir
	}

	if err := tui.NewSetupForm(len(files), dir, &vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	if err := saveConfig(vals.Apply(cfg)); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", configPath())
	fmt.Printf("  Plans: %s, FY starts in %s\n", vals.PlansDir, monthLabel(vals.StartMonth))
	fmt.Println("  Run `finphase setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func monthLabel(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return time.Month(m).String()
}
