// Package validation checks checkout and catalog input. Every rule is
// evaluated independently and all failures are reported together.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/coupon"
	"github.com/rl1809/cardapio/internal/core/domain"
)

const (
	FieldCustomerName  = "customer_name"
	FieldCustomerPhone = "customer_phone"
	FieldOrderType     = "order_type"
	FieldTableNumber   = "table_number"
	FieldItems         = "items"
	FieldCouponCode    = "coupon_code"
)

const (
	CustomerNameMin = 3
	CustomerNameMax = 100
	TableNumberMin  = 1
	TableNumberMax  = 999
	QuantityMax     = 99
	NoteMax         = 255
)

const msgRequired = "campo obrigatório"

// Checkout is the server-side context the order rules depend on.
type Checkout struct {
	Subtotal decimal.Decimal
	// Coupon is the stored coupon for the submitted code, nil when none was found.
	Coupon *domain.Coupon
	Now    time.Time
}

// Order validates checkout input. For pickup orders a table number is ignored.
func Order(in domain.OrderInput, co Checkout) domain.FieldErrors {
	errs := domain.FieldErrors{}

	validateCustomerName(errs, in.CustomerName)
	validatePhone(errs, FieldCustomerPhone, in.CustomerPhone)

	switch {
	case in.OrderType == "":
		errs.Add(FieldOrderType, msgRequired)
	case !in.OrderType.Valid():
		errs.Add(FieldOrderType, fmt.Sprintf("deve ser %q ou %q", domain.OrderTypePickup, domain.OrderTypeDineIn))
	case in.OrderType == domain.OrderTypeDineIn:
		validateTable(errs, in.TableNumber)
	}

	if len(in.Items) == 0 {
		errs.Add(FieldItems, "o carrinho está vazio")
	}
	for i, it := range in.Items {
		switch {
		case it.Quantity < 1:
			errs.Add(ItemField(i, "quantity"), "quantidade deve ser no mínimo 1")
		case it.Quantity > QuantityMax:
			errs.Add(ItemField(i, "quantity"), fmt.Sprintf("quantidade deve ser no máximo %d", QuantityMax))
		}
		if utf8.RuneCountInString(strings.TrimSpace(it.Note)) > NoteMax {
			errs.Add(ItemField(i, "note"), fmt.Sprintf("observação deve ter no máximo %d caracteres", NoteMax))
		}
	}

	if strings.TrimSpace(in.CouponCode) != "" {
		if _, err := coupon.Apply(co.Coupon, in.CouponCode, co.Subtotal, co.Now); err != nil {
			errs.Add(FieldCouponCode, CouponMessage(err))
		}
	}

	return errs
}

// Phone validates a lookup phone number on its own.
func Phone(raw string) domain.FieldErrors {
	errs := domain.FieldErrors{}
	validatePhone(errs, FieldCustomerPhone, raw)
	return errs
}

// ItemField names a per-line field, e.g. items[2].quantity.
func ItemField(i int, name string) string {
	return fmt.Sprintf("%s[%d].%s", FieldItems, i, name)
}

func validateCustomerName(errs domain.FieldErrors, name string) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		errs.Add(FieldCustomerName, msgRequired)
	case n < CustomerNameMin || n > CustomerNameMax:
		errs.Add(FieldCustomerName, fmt.Sprintf("deve ter entre %d e %d caracteres", CustomerNameMin, CustomerNameMax))
	}
}

func validatePhone(errs domain.FieldErrors, field, raw string) {
	if strings.TrimSpace(raw) == "" {
		errs.Add(field, msgRequired)
		return
	}
	digits := domain.NormalizePhone(raw)
	if len(digits) != 10 && len(digits) != 11 {
		errs.Add(field, "telefone deve ter 10 ou 11 dígitos com DDD")
	}
}

func validateTable(errs domain.FieldErrors, table *int) {
	if table == nil {
		errs.Add(FieldTableNumber, "obrigatório para consumo no local")
		return
	}
	if *table < TableNumberMin || *table > TableNumberMax {
		errs.Add(FieldTableNumber, fmt.Sprintf("deve estar entre %d e %d", TableNumberMin, TableNumberMax))
	}
}

// CouponMessage renders a coupon rejection for the coupon_code field.
func CouponMessage(err error) string {
	var ce *domain.CouponError
	if !errors.As(err, &ce) {
		return "cupom inválido"
	}
	if ce.Kind == domain.CouponNotFound {
		return "cupom não encontrado"
	}
	if ce.Reason != "" {
		return "cupom inválido: " + ce.Reason
	}
	return "cupom inválido"
}
