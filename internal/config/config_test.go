package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Fiscal.StartMonth != 4 || cfg.Fiscal.NumMonths != 12 {
		t.Fatalf("fiscal defaults = %+v", cfg.Fiscal)
	}
	sc := cfg.SignalConfig()
	if sc.StaleAfter != 14*24*time.Hour {
		t.Fatalf("StaleAfter = %v, want 14 days", sc.StaleAfter)
	}
	if sc.OverrunWarnRatio < 0.1999 || sc.OverrunWarnRatio > 0.2001 {
		t.Fatalf("OverrunWarnRatio = %v, want 0.20", sc.OverrunWarnRatio)
	}
}

func TestSaveToThenLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.toml")
	cfg := DefaultConfig()
	cfg.General.Currency = "EUR"
	cfg.Signals.StaleDays = 30
	cfg.Appearance.Theme = "tokyo-night"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.Currency != "EUR" || got.Signals.StaleDays != 30 || got.Appearance.Theme != "tokyo-night" {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[signals]\nstale_days = 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Signals.StaleDays != 7 {
		t.Fatalf("StaleDays = %d, want 7", cfg.Signals.StaleDays)
	}
	if cfg.Fiscal.StartMonth != 4 {
		t.Fatalf("StartMonth = %d, want default 4", cfg.Fiscal.StartMonth)
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[signals\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom accepted malformed TOML")
	}
}

func TestResolvePlansDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	cfg := DefaultConfig()
	if got := cfg.ResolvePlansDir(); got != filepath.Join("/tmp/xdg", "finphase", "plans") {
		t.Fatalf("default plans dir = %q", got)
	}
	cfg.General.PlansDir = "/srv/plans"
	if got := cfg.ResolvePlansDir(); got != "/srv/plans" {
		t.Fatalf("configured plans dir = %q", got)
	}
}

func TestDefaultFY(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		now      time.Time
		wantYear int
	}{
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 2023},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 2024},
		{time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 2024},
	}
	for _, tt := range tests {
		fy := cfg.DefaultFY(tt.now)
		if fy.StartYear != tt.wantYear || fy.StartMonth != 4 || fy.NumMonths != 12 {
			t.Errorf("DefaultFY(%s) = %+v, want start year %d", tt.now.Format("2006-01-02"), fy, tt.wantYear)
		}
	}
}
