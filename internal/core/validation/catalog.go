package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/coupon"
	"github.com/rl1809/cardapio/internal/core/domain"
)

const (
	ProductNameMin = 3
	ProductNameMax = 60
)

// PriceMax bounds product and option prices so a full line stays within the
// stored precision.
var PriceMax = decimal.RequireFromString("9999.99")

var couponCodeRe = regexp.MustCompile(`^[A-Z0-9_-]{3,30}$`)

// Lines checks that each requested line refers to an active product and that
// every selected option belongs to a group linked to that product. Single
// choice groups accept at most one option.
func Lines(reqs []domain.LineRequest, products map[string]domain.Product) domain.FieldErrors {
	errs := domain.FieldErrors{}
	for i, r := range reqs {
		p, ok := products[r.ProductID]
		if !ok || p.Status != domain.ProductStatusActive {
			errs.Add(ItemField(i, "product_id"), "produto indisponível")
			continue
		}

		picked := map[string]int{}
		for _, id := range r.OptionIDs {
			g, _, ok := p.FindOption(id)
			if !ok {
				errs.Add(ItemField(i, "options"), "opção não pertence ao produto")
				break
			}
			picked[g.ID]++
			if g.SelectionType == domain.SelectionSingle && picked[g.ID] > 1 {
				errs.Add(ItemField(i, "options"), fmt.Sprintf("escolha apenas uma opção em %q", g.Name))
				break
			}
		}
	}
	return errs
}

// Product validates an admin product edit.
func Product(p domain.Product) domain.FieldErrors {
	errs := domain.FieldErrors{}

	n := utf8.RuneCountInString(strings.TrimSpace(p.Name))
	switch {
	case n == 0:
		errs.Add("name", msgRequired)
	case n < ProductNameMin || n > ProductNameMax:
		errs.Add("name", fmt.Sprintf("deve ter entre %d e %d caracteres", ProductNameMin, ProductNameMax))
	}
	validatePrice(errs, "price", p.Price)
	if strings.TrimSpace(p.CategoryID) == "" {
		errs.Add("category_id", msgRequired)
	}
	if !p.Status.Valid() {
		errs.Add("status", "status inválido")
	}
	for gi, g := range p.OptionGroups {
		validateCatalogName(errs, fmt.Sprintf("option_groups[%d].name", gi), g.Name)
		if g.SelectionType != domain.SelectionSingle && g.SelectionType != domain.SelectionMulti {
			errs.Add(fmt.Sprintf("option_groups[%d].selection_type", gi), "tipo de seleção inválido")
		}
		for oi, o := range g.Options {
			field := fmt.Sprintf("option_groups[%d].options[%d]", gi, oi)
			validateCatalogName(errs, field+".name", o.Name)
			validatePrice(errs, field+".additional_price", o.AdditionalPrice)
		}
	}
	return errs
}

func validateCatalogName(errs domain.FieldErrors, field, name string) {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		errs.Add(field, msgRequired)
	case n > ProductNameMax:
		errs.Add(field, fmt.Sprintf("deve ter no máximo %d caracteres", ProductNameMax))
	}
}

func validatePrice(errs domain.FieldErrors, field string, price decimal.Decimal) {
	switch {
	case price.IsNegative():
		errs.Add(field, "preço não pode ser negativo")
	case domain.RoundCurrency(price).GreaterThan(PriceMax):
		errs.Add(field, "preço deve ser no máximo "+domain.FormatPrice(PriceMax))
	}
}

// Coupon validates an admin coupon edit.
func Coupon(c domain.Coupon) domain.FieldErrors {
	errs := domain.FieldErrors{}

	if !couponCodeRe.MatchString(coupon.NormalizeCode(c.Code)) {
		errs.Add("code", "use de 3 a 30 letras, números, _ ou -")
	}
	switch c.Kind {
	case domain.DiscountFixed:
		if !c.Value.IsPositive() {
			errs.Add("value", "valor deve ser maior que zero")
		}
	case domain.DiscountPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			errs.Add("value", "percentual deve estar entre 0 e 100")
		}
	default:
		errs.Add("kind", "tipo de desconto inválido")
	}
	if c.MinSubtotal.IsNegative() {
		errs.Add("min_subtotal", "não pode ser negativo")
	}
	if c.UsageLimit < 0 {
		errs.Add("usage_limit", "não pode ser negativo")
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && c.ValidUntil.Before(*c.ValidFrom) {
		errs.Add("valid_until", "deve ser posterior ao início")
	}
	return errs
}

// Category validates an admin category edit.
func Category(c domain.Category) domain.FieldErrors {
	errs := domain.FieldErrors{}
	n := utf8.RuneCountInString(strings.TrimSpace(c.Name))
	switch {
	case n == 0:
		errs.Add("name", msgRequired)
	case n > ProductNameMax:
		errs.Add("name", fmt.Sprintf("deve ter no máximo %d caracteres", ProductNameMax))
	}
	if c.DisplayOrder < 0 {
		errs.Add("display_order", "não pode ser negativo")
	}
	return errs
}
