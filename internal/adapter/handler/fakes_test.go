package handler

import (
	"context"
	"errors"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/lifecycle"
)

const (
	adminToken    = "admin-token"
	customerToken = "customer-token"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	switch idToken {
	case adminToken:
		return &auth.Token{UID: "u-admin", Claims: map[string]interface{}{"email": "dono@cardapio.com", "role": "admin"}}, nil
	case customerToken:
		return &auth.Token{UID: "u-cust", Claims: map[string]interface{}{"email": "cliente@cardapio.com"}}, nil
	}
	return nil, errors.New("token expired")
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestAuth() *Authenticator { return NewAuthenticator(fakeVerifier{}, "admin") }

var testTime = time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

func sampleOrder(id string) domain.Order {
	table := 4
	return domain.Order{
		ID:            id,
		OrderType:     domain.OrderTypeDineIn,
		CustomerName:  "Ana",
		CustomerPhone: "11987654321",
		TableNumber:   &table,
		Status:        domain.OrderStatusReceived,
		Subtotal:      decimal.RequireFromString("28.9"),
		Discount:      decimal.Zero,
		Total:         decimal.RequireFromString("28.9"),
		Items: []domain.OrderItem{{
			ID:          "i1",
			ProductID:   "burger",
			ProductName: "X-Burger",
			UnitPrice:   decimal.RequireFromString("25.90"),
			Quantity:    1,
			Options:     []domain.SelectedOption{{ID: "bacon", Name: "Bacon", AdditionalPrice: decimal.RequireFromString("3")}},
			LineTotal:   decimal.RequireFromString("28.9"),
		}},
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

// fakeOrders enforces admin access the same way the real service does so
// handler tests can check identity propagation.
type fakeOrders struct {
	submitted []domain.OrderInput
	tracked   []domain.Order
	filter    domain.OrderFilter
	accepting bool
	err       error
}

func (f *fakeOrders) SubmitOrder(_ context.Context, in domain.OrderInput) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	f.submitted = append(f.submitted, in)
	return sampleOrder("o-new"), nil
}

func (f *fakeOrders) TrackOrders(_ context.Context, phone string) (lifecycle.TrackResult, error) {
	if f.err != nil {
		return lifecycle.TrackResult{}, f.err
	}
	if len(f.tracked) == 0 {
		return lifecycle.TrackResult{}, domain.ErrNotFound
	}
	return lifecycle.TrackResult{Orders: f.tracked}, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	if id != "o1" {
		return domain.Order{}, domain.ErrNotFound
	}
	return sampleOrder(id), nil
}

func (f *fakeOrders) AdvanceOrderStatus(_ context.Context, caller domain.Identity, id, status string) (domain.Order, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return domain.Order{}, err
	}
	if f.err != nil {
		return domain.Order{}, f.err
	}
	st, err := lifecycle.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	return lifecycle.Advance(sampleOrder(id), st, testTime)
}

func (f *fakeOrders) ListOrders(_ context.Context, caller domain.Identity, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return nil, err
	}
	f.filter = filter
	return []domain.Order{sampleOrder("o1"), sampleOrder("o2")}, nil
}

func (f *fakeOrders) AcceptingOrders() bool { return f.accepting }

func (f *fakeOrders) SetAcceptingOrders(caller domain.Identity, open bool) error {
	if err := domain.RequireAdmin(caller); err != nil {
		return err
	}
	f.accepting = open
	return nil
}

type fakeReports struct {
	limit int
	term  string
}

func (f *fakeReports) GetMetrics(_ context.Context, caller domain.Identity, p domain.Period) (domain.MetricsSummary, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return domain.MetricsSummary{}, err
	}
	if !p.Valid() {
		return domain.MetricsSummary{}, &domain.ValidationError{Fields: domain.FieldErrors{"period": "período inválido"}}
	}
	return domain.MetricsSummary{Period: p, TotalOrders: 3, TotalRevenue: decimal.RequireFromString("90.5"), AverageOrdersPerDay: decimal.NewFromInt(3)}, nil
}

func (f *fakeReports) GetTopProducts(_ context.Context, caller domain.Identity, _ domain.Period, limit int) ([]domain.TopProduct, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return nil, err
	}
	f.limit = limit
	return []domain.TopProduct{{Position: 1, ProductID: "burger", ProductName: "X-Burger", Quantity: 7}}, nil
}

func (f *fakeReports) SearchCustomers(_ context.Context, caller domain.Identity, term string, limit int) ([]domain.CustomerSummary, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return nil, err
	}
	f.term, f.limit = term, limit
	return []domain.CustomerSummary{{Name: "Ana", Phone: "11987654321", TotalOrders: 2}}, nil
}

type fakeCatalog struct {
	saved  []domain.Product
	status map[string]domain.ProductStatus
	coupon domain.Coupon
	err    error
}

func (f *fakeCatalog) ListMenu(context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Product{{
		ID:         "burger",
		Name:       "X-Burger",
		Price:      decimal.RequireFromString("25.9"),
		CategoryID: "lanches",
		Status:     domain.ProductStatusActive,
		OptionGroups: []domain.OptionGroup{{
			ID: "g1", Name: "Adicionais", SelectionType: domain.SelectionMulti,
			Options: []domain.Option{{ID: "bacon", GroupID: "g1", Name: "Bacon", AdditionalPrice: decimal.RequireFromString("3")}},
		}},
	}}, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "lanches", Name: "Lanches", DisplayOrder: 1}}, nil
}

func (f *fakeCatalog) SaveCategory(_ context.Context, caller domain.Identity, c domain.Category) (domain.Category, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return domain.Category{}, err
	}
	if c.ID == "" {
		c.ID = "cat-new"
	}
	return c, nil
}

func (f *fakeCatalog) SaveProduct(_ context.Context, caller domain.Identity, p domain.Product) (domain.Product, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return domain.Product{}, err
	}
	if f.err != nil {
		return domain.Product{}, f.err
	}
	f.saved = append(f.saved, p)
	if p.ID == "" {
		p.ID = "p-new"
	}
	return p, nil
}

func (f *fakeCatalog) SetProductStatus(_ context.Context, caller domain.Identity, id string, status domain.ProductStatus) error {
	if err := domain.RequireAdmin(caller); err != nil {
		return err
	}
	if f.status == nil {
		f.status = map[string]domain.ProductStatus{}
	}
	f.status[id] = status
	return nil
}

func (f *fakeCatalog) SaveCoupon(_ context.Context, caller domain.Identity, c domain.Coupon) (domain.Coupon, error) {
	if err := domain.RequireAdmin(caller); err != nil {
		return domain.Coupon{}, err
	}
	f.coupon = c
	return c, nil
}
