// Package core provides the obligation record and money handling utilities.
//
// Amounts are carried as decimals to keep sums exact; float64 only appears at
// the configuration boundary (forecast weights and multipliers).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₹"

// ParseAmount converts upstream amount text to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, a sign
// and an exponent. Blank, non-numeric and non-finite text (NaN, Inf) returns
// ErrInvalidAmount. Negative values are returned unchanged; Obligation.Value
// counts them as 0.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("NaN")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// NonNegative clamps negative amounts to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatCurrency renders an amount with two decimals, e.g. "₹1234.50".
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}
