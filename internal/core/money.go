// Package core provides cost parsing and formatting utilities.
//
// Costs are exact decimals end to end. Floats only appear at the very edge,
// when a chart needs a plain number.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCost parses a billing amount such as "12.3456" or "-0.01".
//
// Unlike user-entered amounts, billing amounts may be zero or negative
// (credits and refunds), so no sign check is applied here.
func ParseCost(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidCost
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidCost
	}
	return d, nil
}

// FormatUSD formats a cost for display, rounded half away from zero to cents.
//
// Examples:
//
//	FormatUSD(decimal.RequireFromString("12.345")) -> "$12.35"
//	FormatUSD(decimal.RequireFromString("-3"))     -> "-$3.00"
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Float returns the value as float64 for chart axes only. Never aggregate on it.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
