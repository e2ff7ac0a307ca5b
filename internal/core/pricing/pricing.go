// Package pricing computes line and order totals. Amounts are accumulated at
// full precision; rounding happens once, at display or persistence.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// LineTotal returns (unitPrice + sum of option prices) * quantity, unrounded.
// Quantity is not checked here; the validator rejects values below one.
func LineTotal(unitPrice decimal.Decimal, options []domain.SelectedOption, quantity int) decimal.Decimal {
	unit := unitPrice
	for _, o := range options {
		unit = unit.Add(o.AdditionalPrice)
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Subtotal sums unrounded line totals.
func Subtotal(lines []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l)
	}
	return sum
}

// Totals is the persisted money breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Settle rounds subtotal and discount to currency precision and derives the
// total so that Total == Subtotal - Discount and Total >= 0 hold exactly.
func Settle(subtotal, discount decimal.Decimal) Totals {
	sub := domain.RoundCurrency(subtotal)
	disc := domain.RoundCurrency(discount)
	if disc.IsNegative() {
		disc = decimal.Zero
	}
	if disc.GreaterThan(sub) {
		disc = sub
	}
	return Totals{
		Subtotal: sub,
		Discount: disc,
		Total:    sub.Sub(disc),
	}
}
