package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/theirongolddev/finphase/internal/cli"
	"github.com/theirongolddev/finphase/internal/config"
	"github.com/theirongolddev/finphase/internal/pipeline"
	"github.com/theirongolddev/finphase/internal/plan"
	"github.com/theirongolddev/finphase/internal/signals"
	"github.com/theirongolddev/finphase/internal/source"
	"github.com/theirongolddev/finphase/internal/store"
)

var (
	flagPlansDir string
	flagPlan     string
	flagNoCache  bool
	flagQuiet    bool
	flagVerbose  bool
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:          "finphase",
	Short:        "Financial phasing for project plans",
	Long:         "Phase project budgets and forecasts by month, reconcile them against cost lines, and surface budget-health signals.",
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initRuntime)

	rootCmd.PersistentFlags().StringVarP(&flagPlansDir, "plans-dir", "d", "", "Plans directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagPlan, "plan", "p", "", "Plan ID to operate on")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.Path()+")")

	for _, name := range []string{"plans-dir", "plan", "no-cache", "quiet", "verbose", "config"} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), rootCmd.PersistentFlags().Lookup(name))
	}
}

// initRuntime layers .env, FINPHASE_* environment variables and flags.
func initRuntime() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("FINPHASE")
	viper.AutomaticEnv()

	flagPlansDir = viper.GetString("plans_dir")
	flagPlan = viper.GetString("plan")
	flagNoCache = viper.GetBool("no_cache")
	flagQuiet = viper.GetBool("quiet")
	flagVerbose = viper.GetBool("verbose")
	flagConfig = viper.GetString("config")

	setupLogging(flagVerbose)
}

func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}

var loadedConfig *config.Config

// appConfig loads the config file once, falling back to defaults.
func appConfig() config.Config {
	if loadedConfig != nil {
		return *loadedConfig
	}
	path := configPath()
	cfg, err := config.LoadFrom(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("using default config")
		cfg = config.DefaultConfig()
	}
	loadedConfig = &cfg
	return cfg
}

func saveConfig(cfg config.Config) error {
	if err := config.SaveTo(configPath(), cfg); err != nil {
		return err
	}
	loadedConfig = &cfg
	return nil
}

func plansDir() string {
	if flagPlansDir != "" {
		return flagPlansDir
	}
	return appConfig().ResolvePlansDir()
}

func parseOptions() source.Options {
	cfg := appConfig()
	now := time.Now()
	opts := source.Options{DefaultFY: cfg.DefaultFY(now), Now: now}
	if cfg.Rates.FillMissing {
		opts.Rates = cfg.DayRateFor
	}
	return opts
}

func newEngine() *signals.Engine {
	return signals.NewEngine(appConfig().SignalConfig(), nil)
}

// loadData is the shared plan loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	dir := plansDir()
	opts := parseOptions()

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%10 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	if !flagNoCache {
		st, err := store.Open(pipeline.CachePath())
		if err != nil {
			log.Debug().Err(err).Msg("cache unavailable, doing full parse")
		} else {
			defer st.Close()

			cr, err := pipeline.LoadWithCache(dir, opts, st, progressFn)
			if err != nil {
				log.Warn().Err(err).Msg("cache error, falling back to full parse")
			} else {
				if !flagQuiet && cr.Reparsed > 0 {
					fmt.Fprintf(os.Stderr, "\r  %d cached + %d reparsed    \n", cr.CacheHits, cr.Reparsed)
				}
				reportLoad(&cr.LoadResult)
				return &cr.LoadResult, nil
			}
		}
	}

	result, err := pipeline.Load(dir, opts, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %d plan files    \n", result.ParsedFiles)
	}
	reportLoad(result)
	return result, nil
}

func reportLoad(res *pipeline.LoadResult) {
	if flagQuiet {
		return
	}
	for _, fe := range res.FileErrors {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning("skipped "+fe.Error()))
	}
	if res.WarningCount > 0 {
		fmt.Fprintf(os.Stderr, "  %d values coerced while parsing (use -v for details)\n", res.WarningCount)
	}
}

var errNoPlans = errors.New("no plans found")

// selectPlan picks the plan named by --plan, the configured default, or
// the only plan present.
func selectPlan(res *pipeline.LoadResult) (pipeline.LoadedPlan, error) {
	if len(res.Plans) == 0 {
		return pipeline.LoadedPlan{}, fmt.Errorf("%w in %s; run `finphase setup` or add a plan file", errNoPlans, plansDir())
	}
	id := flagPlan
	if id == "" {
		id = appConfig().General.DefaultPlan
	}
	if id != "" {
		if lp, ok := res.Find(id); ok {
			return lp, nil
		}
		return pipeline.LoadedPlan{}, fmt.Errorf("plan %q not found (have: %s)", id, planIDs(res))
	}
	if len(res.Plans) == 1 {
		return res.Plans[0], nil
	}
	return pipeline.LoadedPlan{}, fmt.Errorf("%d plans found, choose one with --plan (have: %s)", len(res.Plans), planIDs(res))
}

func planIDs(res *pipeline.LoadResult) string {
	ids := make([]string, len(res.Plans))
	for i, lp := range res.Plans {
		ids[i] = lp.Plan.ID
	}
	return strings.Join(ids, ", ")
}

func loadSelectedPlan() (pipeline.LoadedPlan, error) {
	res, err := loadData()
	if err != nil {
		return pipeline.LoadedPlan{}, err
	}
	return selectPlan(res)
}

// applyAndSave runs mutations against the plan, writing the file and the
// cache snapshot after each one.
func applyAndSave(lp pipeline.LoadedPlan, ms ...plan.Mutation) (plan.Plan, error) {
	var st *store.Store
	if !flagNoCache {
		if s, err := store.Open(pipeline.CachePath()); err == nil {
			st = s
			defer st.Close()
		}
	}

	listener := func(ev plan.Event) error {
		if err := source.WriteFile(lp.Path, ev.Plan); err != nil {
			return fmt.Errorf("writing %s: %w", lp.Path, err)
		}
		log.Debug().Str("plan", ev.PlanID).Str("mutation", ev.Mutation).Msg("saved")
		if st != nil {
			if err := st.Persist(ev); err != nil {
				log.Warn().Err(err).Msg("updating cache")
			}
		}
		return nil
	}

	sess := plan.NewSession(lp.Plan, listener, nil)
	err := sess.Do(ms...)
	return sess.Current(), err
}
