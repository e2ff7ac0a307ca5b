package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a 10 or 11 digit Brazilian number as (11) 98765-4321.
// Other lengths are returned unchanged.
func FormatPhone(s string) string {
	d := NormalizePhone(s)
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return s
	}
}

// FormatPrice renders an amount as R$ 1.234,50.
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// RoundCurrency rounds to currency precision. Only call at display or
// persistence boundaries.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
