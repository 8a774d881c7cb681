// Package core provides money parsing and handling utilities.
//
// Amounts are kept as int64 minor units everywhere. This file converts
// between user-entered decimal strings and minor units, and formats minor
// units for display in the account currency.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a positive decimal string to minor units.
//
// Both dot (12.34) and comma (12,34) separators are accepted; the value is
// rounded half-up to two decimals. Zero and negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,345") -> 1235, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	v, err := ParseSignedAmount(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseSignedAmount is ParseAmount without the sign restriction.
func ParseSignedAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := d.Shift(2).Round(0)
	if !minor.IsInteger() || minor.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// AmountDecimal returns the minor units as a two-place decimal, e.g. 1234 -> 12.34.
func AmountDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatAmount renders minor units in the given currency, e.g. "€12.34".
// Unknown currency codes fall back to "12.34 XYZ".
func FormatAmount(minor int64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if money.GetCurrency(code) == nil {
		return AmountDecimal(minor).StringFixed(2) + " " + code
	}
	return money.New(minor, code).Display()
}
