package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rl1809/cardapio/internal/core/domain"
)

func product() domain.Product {
	return domain.Product{
		ID:         "p1",
		Name:       "X-Burger",
		Price:      decimal.RequireFromString("25.90"),
		CategoryID: "lanches",
		Status:     domain.ProductStatusActive,
		OptionGroups: []domain.OptionGroup{
			{
				ID:            "g-extras",
				Name:          "Adicionais",
				SelectionType: domain.SelectionMulti,
				Options: []domain.Option{
					{ID: "bacon", GroupID: "g-extras", Name: "Bacon", AdditionalPrice: decimal.RequireFromString("3")},
					{ID: "ovo", GroupID: "g-extras", Name: "Ovo", AdditionalPrice: decimal.Zero},
				},
			},
			{
				ID:            "g-ponto",
				Name:          "Ponto",
				SelectionType: domain.SelectionSingle,
				Options: []domain.Option{
					{ID: "mal", GroupID: "g-ponto", Name: "Mal passado"},
					{ID: "bem", GroupID: "g-ponto", Name: "Bem passado"},
				},
			},
		},
	}
}

func TestProduct_NameBoundaries(t *testing.T) {
	tests := []struct {
		length int
		ok     bool
	}{
		{2, false},
		{3, true},
		{60, true},
		{61, false},
	}

	for _, tt := range tests {
		p := product()
		p.Name = strings.Repeat("b", tt.length)
		_, failed := Product(p)["name"]
		assert.Equal(t, !tt.ok, failed, "length %d", tt.length)
	}
}

func TestProduct_Rules(t *testing.T) {
	p := product()
	p.Price = decimal.RequireFromString("-1")
	p.CategoryID = ""
	p.Status = "archived"
	p.OptionGroups[0].Options[0].AdditionalPrice = decimal.RequireFromString("-0.5")

	errs := Product(p)

	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "category_id")
	assert.Contains(t, errs, "status")
	assert.Contains(t, errs, "option_groups[0].options[0].additional_price")
}

func TestProduct_OptionNames(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"empty", "", false},
		{"blank", "   ", false},
		{"length 1", "Q", true},
		{"length 60", strings.Repeat("q", 60), true},
		{"length 60 multibyte", strings.Repeat("ç", 60), true},
		{"length 61", strings.Repeat("q", 61), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := product()
			p.OptionGroups[1].Options[0].Name = tt.value
			errs := Product(p)
			_, failed := errs["option_groups[1].options[0].name"]
			assert.Equal(t, !tt.ok, failed, "errors: %v", errs)
		})
	}

	p := product()
	p.OptionGroups[0].Name = strings.Repeat("g", 61)
	assert.Contains(t, Product(p), "option_groups[0].name")
}

func TestProduct_PriceCeiling(t *testing.T) {
	p := product()
	p.Price = decimal.RequireFromString("9999.99")
	p.OptionGroups[0].Options[0].AdditionalPrice = decimal.RequireFromString("9999.994")
	assert.Empty(t, Product(p))

	p.Price = decimal.RequireFromString("10000")
	p.OptionGroups[0].Options[0].AdditionalPrice = decimal.RequireFromString("9999.995")
	errs := Product(p)
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "option_groups[0].options[0].additional_price")
}

func TestLines(t *testing.T) {
	inactive := product()
	inactive.ID = "p2"
	inactive.Status = domain.ProductStatusInactive
	catalog := map[string]domain.Product{"p1": product(), "p2": inactive}

	tests := []struct {
		name  string
		req   domain.LineRequest
		field string
	}{
		{"valid", domain.LineRequest{ProductID: "p1", OptionIDs: []string{"bacon", "ovo", "mal"}, Quantity: 1}, ""},
		{"unknown product", domain.LineRequest{ProductID: "nope", Quantity: 1}, "items[0].product_id"},
		{"inactive product", domain.LineRequest{ProductID: "p2", Quantity: 1}, "items[0].product_id"},
		{"foreign option", domain.LineRequest{ProductID: "p1", OptionIDs: []string{"queijo"}, Quantity: 1}, "items[0].options"},
		{"two single choices", domain.LineRequest{ProductID: "p1", OptionIDs: []string{"mal", "bem"}, Quantity: 1}, "items[0].options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Lines([]domain.LineRequest{tt.req}, catalog)
			if tt.field == "" {
				assert.Empty(t, errs)
				return
			}
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestCoupon(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	valid := domain.Coupon{Code: "bem-vindo", Kind: domain.DiscountFixed, Value: decimal.NewFromInt(5)}
	assert.Empty(t, Coupon(valid))

	tests := []struct {
		name   string
		mutate func(c *domain.Coupon)
		field  string
	}{
		{"short code", func(c *domain.Coupon) { c.Code = "ab" }, "code"},
		{"bad chars", func(c *domain.Coupon) { c.Code = "DESC ONTO" }, "code"},
		{"zero fixed", func(c *domain.Coupon) { c.Value = decimal.Zero }, "value"},
		{"percentage over 100", func(c *domain.Coupon) {
			c.Kind = domain.DiscountPercentage
			c.Value = decimal.NewFromInt(101)
		}, "value"},
		{"unknown kind", func(c *domain.Coupon) { c.Kind = "bogo" }, "kind"},
		{"window reversed", func(c *domain.Coupon) { c.ValidFrom = &start; c.ValidUntil = &end }, "valid_until"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Contains(t, Coupon(c), tt.field)
		})
	}
}

func TestCategory(t *testing.T) {
	assert.Empty(t, Category(domain.Category{Name: "Bebidas"}))
	assert.Contains(t, Category(domain.Category{Name: "  "}), "name")
	assert.Contains(t, Category(domain.Category{Name: strings.Repeat("a", 61)}), "name")
	assert.Contains(t, Category(domain.Category{Name: "Doces", DisplayOrder: -1}), "display_order")
}
