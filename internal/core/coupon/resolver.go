// Package coupon decides whether a discount code applies to a subtotal and
// how much it is worth. Resolving never consumes usage; that happens when the
// order is committed.
package coupon

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode returns the lookup key for a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply resolves the discount for code. c is the stored coupon found for the
// normalized code, or nil when the lookup found nothing. An empty code is
// always valid and yields a zero discount.
func Apply(c *domain.Coupon, code string, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if NormalizeCode(code) == "" {
		return decimal.Zero, nil
	}
	if c == nil || !strings.EqualFold(c.Code, NormalizeCode(code)) {
		return decimal.Zero, &domain.CouponError{Kind: domain.CouponNotFound}
	}
	if err := eligible(c, subtotal, now); err != nil {
		return decimal.Zero, err
	}

	var discount decimal.Decimal
	switch c.Kind {
	case domain.DiscountFixed:
		discount = c.Value
	case domain.DiscountPercentage:
		discount = domain.RoundCurrency(subtotal.Mul(c.Value).Div(hundred))
	default:
		return decimal.Zero, ineligible("regra de desconto desconhecida")
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, nil
}

func eligible(c *domain.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return ineligible("cupom inativo")
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ineligible("cupom ainda não está válido")
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ineligible("cupom expirado")
	}
	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return ineligible("limite de uso atingido")
	}
	if c.MinSubtotal.IsPositive() && subtotal.LessThan(c.MinSubtotal) {
		return ineligible(fmt.Sprintf("pedido mínimo de %s", domain.FormatPrice(c.MinSubtotal)))
	}
	return nil
}

func ineligible(reason string) error {
	return &domain.CouponError{Kind: domain.CouponIneligible, Reason: reason}
}
