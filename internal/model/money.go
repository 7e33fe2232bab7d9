// Package model defines domain types for finphase plans: cost lines, resources and monthly phasing.
package model

import "github.com/shopspring/decimal"

// Money is an optional monetary amount. An invalid value means "unset",
// which is distinct from an explicit zero.
type Money = decimal.NullDecimal

// Unset is the "no value entered" sentinel.
var Unset = decimal.NullDecimal{}

// Amount wraps d as a set Money value.
func Amount(d decimal.Decimal) Money {
	return decimal.NewNullDecimal(d)
}

// AmountFromInt returns a set Money value for a whole number of currency units.
func AmountFromInt(v int64) Money {
	return Amount(decimal.NewFromInt(v))
}

// AmountFromString parses s into a set Money value.
func AmountFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Unset, err
	}
	return Amount(d), nil
}

// OrZero returns the amount, treating unset as zero.
func OrZero(m Money) decimal.Decimal {
	if !m.Valid {
		return decimal.Zero
	}
	return m.Decimal
}

// IsSetNonZero reports whether m carries a value other than zero.
func IsSetNonZero(m Money) bool {
	return m.Valid && !m.Decimal.IsZero()
}

// IsPositive reports whether m is set and greater than zero.
func IsPositive(m Money) bool {
	return m.Valid && m.Decimal.IsPositive()
}

// IsNegative reports whether m is set and below zero.
func IsNegative(m Money) bool {
	return m.Valid && m.Decimal.IsNegative()
}

// SameAmount compares two optional amounts. Two unset values are equal;
// set values compare numerically so 1.50 equals 1.5.
func SameAmount(a, b Money) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
