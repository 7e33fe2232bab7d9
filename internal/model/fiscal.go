package model

import (
	"fmt"
	"time"
)

// FYConfig describes a financial-year window.
type FYConfig struct {
	StartMonth int `json:"fy_start_month" toml:"fy_start_month" yaml:"fy_start_month"`
	StartYear  int `json:"fy_start_year" toml:"fy_start_year" yaml:"fy_start_year"`
	NumMonths  int `json:"num_months" toml:"num_months" yaml:"num_months"`
}

// Valid reports whether the config yields at least one month.
func (c FYConfig) Valid() bool {
	return c.NumMonths > 0 && c.StartMonth >= 1 && c.StartMonth <= 12
}

// MonthKey identifies a calendar month as "YYYY-MM". String order is chronological.
type MonthKey string

// MonthKeyOf formats a year and month (1-12) as a MonthKey.
func MonthKeyOf(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// MonthKeyFromTime returns the key of the month containing t.
func MonthKeyFromTime(t time.Time) MonthKey {
	return MonthKeyOf(t.Year(), int(t.Month()))
}

// ParseMonthKey validates s as a "YYYY-MM" key.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid month key %q: %w", s, err)
	}
	return MonthKeyFromTime(t), nil
}

func (k MonthKey) parts() (year, month int) {
	if _, err := fmt.Sscanf(string(k), "%4d-%2d", &year, &month); err != nil {
		return 0, 0
	}
	return year, month
}

// Year returns the calendar year, or 0 for a malformed key.
func (k MonthKey) Year() int {
	y, _ := k.parts()
	return y
}

// Month returns the calendar month 1-12, or 0 for a malformed key.
func (k MonthKey) Month() int {
	_, m := k.parts()
	return m
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	y, m := k.parts()
	m++
	if m > 12 {
		m = 1
		y++
	}
	return MonthKeyOf(y, m)
}

// Label renders the key as "Apr 2024".
func (k MonthKey) Label() string {
	y, m := k.parts()
	if m < 1 || m > 12 {
		return string(k)
	}
	return fmt.Sprintf("%s %d", time.Month(m).String()[:3], y)
}

// Quarter is a labelled group of up to three consecutive months.
type Quarter struct {
	Label  string
	Months []MonthKey
}
