package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/finphase/internal/model"
	"github.com/theirongolddev/finphase/internal/signals"
)

// Config holds all finphase configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Fiscal     FiscalConfig     `toml:"fiscal"`
	Signals    SignalsConfig    `toml:"signals"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Rates      RatesConfig      `toml:"rates"`
	Notify     NotifyConfig     `toml:"notify"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	PlansDir    string `toml:"plans_dir,omitempty"`
	DefaultPlan string `toml:"default_plan,omitempty"`
	// Currency is a display label only; amounts are never converted.
	Currency string `toml:"currency"`
}

// FiscalConfig holds the financial-year defaults for new plans.
type FiscalConfig struct {
	StartMonth int `toml:"start_month"`
	NumMonths  int `toml:"num_months"`
}

// SignalsConfig holds rule thresholds.
type SignalsConfig struct {
	OverrunWarnPercent     float64 `toml:"overrun_warn_percent"`
	StaleDays              int     `toml:"stale_days"`
	PendingExposurePercent float64 `toml:"pending_exposure_percent"`
	ReconcileTolerance     float64 `toml:"reconcile_tolerance"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh     bool `toml:"auto_refresh"`
	RefreshInterval int  `toml:"refresh_interval_sec"`
}

// RatesConfig holds the role day-rate card settings.
type RatesConfig struct {
	// FillMissing fills a day-rate resource's missing rate from the card.
	FillMissing bool                    `toml:"fill_missing"`
	Overrides   map[string]RateOverride `toml:"overrides,omitempty"`
}

// RateOverride replaces the built-in day rate for one role.
type RateOverride struct {
	DayRate *float64 `toml:"day_rate,omitempty"`
}

// NotifyConfig holds the optional signal-change publisher settings.
type NotifyConfig struct {
	AMQPURL  string `toml:"amqp_url,omitempty"`
	Exchange string `toml:"exchange,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	sc := signals.DefaultConfig()
	return Config{
		General: GeneralConfig{
			Currency: "GBP",
		},
		Fiscal: FiscalConfig{
			StartMonth: 4,
			NumMonths:  12,
		},
		Signals: SignalsConfig{
			OverrunWarnPercent:     sc.OverrunWarnRatio * 100,
			StaleDays:              int(sc.StaleAfter / (24 * time.Hour)),
			PendingExposurePercent: sc.PendingExposureRatio * 100,
			ReconcileTolerance:     sc.ReconcileTolerance,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:     true,
			RefreshInterval: 30,
		},
		Rates: RatesConfig{
			FillMissing: true,
		},
		Notify: NotifyConfig{
			Exchange: "finphase.signals",
		},
	}
}

// SignalConfig converts the thresholds for the rule engine.
func (c Config) SignalConfig() signals.Config {
	return signals.Config{
		OverrunWarnRatio:     c.Signals.OverrunWarnPercent / 100,
		StaleAfter:           time.Duration(c.Signals.StaleDays) * 24 * time.Hour,
		PendingExposureRatio: c.Signals.PendingExposurePercent / 100,
		ReconcileTolerance:   c.Signals.ReconcileTolerance,
	}
}

// DefaultFY returns the configured financial year that contains now.
func (c Config) DefaultFY(now time.Time) model.FYConfig {
	start := c.Fiscal.StartMonth
	if start < 1 || start > 12 {
		start = 1
	}
	year := now.Year()
	if int(now.Month()) < start {
		year--
	}
	return model.FYConfig{StartMonth: start, StartYear: year, NumMonths: c.Fiscal.NumMonths}
}

// ResolvePlansDir returns the configured plans directory, defaulting to the
// "plans" directory under the config dir.
func (c Config) ResolvePlansDir() string {
	if c.General.PlansDir != "" {
		return expandHome(c.General.PlansDir)
	}
	return filepath.Join(Dir(), "plans")
}

func expandHome(p string) string {
	if len(p) > 1 && p[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "finphase")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "finphase")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from XDG dir or an explicit flag
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // see LoadFrom
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
