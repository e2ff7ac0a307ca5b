package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

type Category struct {
	ID           string
	Name         string
	DisplayOrder int
}

type Product struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	CategoryID   string
	Status       ProductStatus
	DisplayOrder int
	Description  string
	PhotoURL     string
	OptionGroups []OptionGroup
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SelectionType string

const (
	SelectionSingle SelectionType = "single"
	SelectionMulti  SelectionType = "multi"
)

type OptionGroup struct {
	ID            string
	Name          string
	SelectionType SelectionType
	Options       []Option
}

type Option struct {
	ID              string
	GroupID         string
	Name            string
	AdditionalPrice decimal.Decimal
}

// FindOption looks an option up among the groups linked to the product.
func (p Product) FindOption(optionID string) (OptionGroup, Option, bool) {
	for _, g := range p.OptionGroups {
		for _, o := range g.Options {
			if o.ID == optionID {
				return g, o, true
			}
		}
	}
	return OptionGroup{}, Option{}, false
}

type DiscountKind string

const (
	DiscountFixed      DiscountKind = "fixed"
	DiscountPercentage DiscountKind = "percentage"
)

// Coupon is matched case-insensitively on Code; codes are stored upper-case.
type Coupon struct {
	Code        string
	Kind        DiscountKind
	Value       decimal.Decimal // amount for fixed, 0..100 for percentage
	MinSubtotal decimal.Decimal
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	UsageLimit  int // 0 means unlimited
	UsageCount  int
	Active      bool
}
