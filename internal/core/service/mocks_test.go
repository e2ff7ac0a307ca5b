package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

// Mock DatabaseRepository
type mockDB struct {
	mu       sync.Mutex
	products map[string]domain.Product
	coupons  map[string]domain.Coupon
	orders   map[string]domain.Order
	cats     map[string]domain.Category

	// err, when set, is returned by every call
	err error
	// createErr, when set, is returned by CreateOrder only
	createErr error
}

func newMockDB() *mockDB {
	return &mockDB{
		products: map[string]domain.Product{},
		coupons:  map[string]domain.Coupon{},
		orders:   map[string]domain.Order{},
		cats:     map[string]domain.Category{},
	}
}

func (m *mockDB) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.createErr != nil {
		return m.createErr
	}
	if order.CouponCode != "" {
		c := m.coupons[order.CouponCode]
		if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
			return &domain.CouponError{Kind: domain.CouponIneligible, Reason: "limite de uso atingido"}
		}
		c.UsageCount++
		m.coupons[order.CouponCode] = c
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockDB) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Order{}, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

func (m *mockDB) ListActiveOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.CustomerPhone == phone && o.Status != domain.OrderStatusReady {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockDB) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	m.orders[id] = o
	return nil
}

func (m *mockDB) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockDB) ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockDB) ListOrdersOfRecentCustomers(ctx context.Context, term string, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if term == "" || strings.Contains(strings.ToLower(o.CustomerName), strings.ToLower(term)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockDB) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockDB) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if p.Status == domain.ProductStatusActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (m *mockDB) ListCategories(ctx context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Category
	for _, c := range m.cats {
		out = append(out, c)
	}
	return out, m.err
}

func (m *mockDB) SaveCategory(ctx context.Context, c domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cats[c.ID] = c
	return nil
}

func (m *mockDB) SaveProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockDB) SetProductStatus(ctx context.Context, id string, status domain.ProductStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = at
	m.products[id] = p
	return nil
}

func (m *mockDB) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[code]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockDB) SaveCoupon(ctx context.Context, c domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.coupons[c.Code] = c
	return nil
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	metrics        map[string]domain.MetricsSummary
	metricsReads   int
	err            error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		idempotencySet: map[string]bool{},
		metrics:        map[string]domain.MetricsSummary{},
	}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCacheRepo) GetMetrics(ctx context.Context, key string) (*domain.MetricsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricsReads++
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.metrics[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockCacheRepo) SetMetrics(ctx context.Context, key string, s domain.MetricsSummary, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.metrics[key] = s
	return nil
}

var (
	admin    = domain.Identity{UserID: "u-admin", Email: "gerente@restaurante.com", Role: domain.RoleAdmin}
	customer = domain.Identity{UserID: "u-cliente", Email: "cliente@gmail.com"}
	nobody   = domain.Identity{}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedMenu(db *mockDB) {
	db.products["burger"] = domain.Product{
		ID:         "burger",
		Name:       "X-Burger",
		Price:      dec("25.90"),
		CategoryID: "lanches",
		Status:     domain.ProductStatusActive,
		OptionGroups: []domain.OptionGroup{{
			ID:            "extras",
			Name:          "Adicionais",
			SelectionType: domain.SelectionMulti,
			Options: []domain.Option{
				{ID: "bacon", GroupID: "extras", Name: "Bacon", AdditionalPrice: dec("3.00")},
				{ID: "cheddar", GroupID: "extras", Name: "Cheddar", AdditionalPrice: dec("4.00")},
			},
		}},
	}
	db.products["agua"] = domain.Product{
		ID:         "agua",
		Name:       "Água",
		Price:      dec("4.50"),
		CategoryID: "bebidas",
		Status:     domain.ProductStatusActive,
	}
	db.products["old"] = domain.Product{
		ID:         "old",
		Name:       "Fora do cardápio",
		Price:      dec("10"),
		CategoryID: "lanches",
		Status:     domain.ProductStatusInactive,
	}
}
