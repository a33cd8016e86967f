// Package core holds the domain model shared by the bot, the
// dashboard and the aggregation engine.
//
// This file contains money parsing and formatting helpers. Amounts are
// stored as integer cents; decimal arithmetic is delegated to
// shopspring/decimal to avoid floating-point parsing artifacts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(1<<62 - 1)

// ParseDecimalToCents converts a user-typed amount to cents.
//
// It accepts both dot (1234.56) and comma (1234,56) decimal separators
// and rounds half-up past the second decimal place. Only strictly
// positive values are accepted; the sign is carried by the transaction
// kind, never by the amount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.Sign() <= 0 || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatBRL renders cents as "R$ 1234,56" for chat replies and
// dashboard labels.
func FormatBRL(cents int64) string {
	d := decimal.NewFromInt(cents).Shift(-2)
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.ReplaceAll(s, ".", ",")
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

// Reais returns the amount as float64, for chart payloads only.
// Calculations stay in cents.
func (m Money) Reais() float64 {
	f, _ := decimal.NewFromInt(m.Cents).Shift(-2).Float64()
	return f
}
