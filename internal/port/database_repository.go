package port

import (
	"context"
	"time"

	"github.com/rl1809/cardapio/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists an order with its items in one transaction and
	// consumes one use of its coupon, if any
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder returns the order with its items or domain.ErrNotFound
	GetOrder(ctx context.Context, id string) (domain.Order, error)

	// ListActiveOrdersByPhone returns orders not yet in a terminal status
	ListActiveOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error)

	// UpdateOrderStatus overwrites status and updated_at; last write wins
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error

	// ListOrders returns orders matching filter, newest first
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// ListOrdersCreatedBetween returns orders with items created in [from, to]
	ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error)

	// ListOrdersOfRecentCustomers returns every order of the limit most recent
	// customers whose name or phone matches term
	ListOrdersOfRecentCustomers(ctx context.Context, term string, limit int) ([]domain.Order, error)
}

type CatalogRepository interface {
	// GetProducts returns the requested products keyed by id; unknown ids are absent
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)

	// ListActiveProducts returns the menu in category and display order
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)

	SaveCategory(ctx context.Context, category domain.Category) error

	// SaveProduct upserts a product and replaces its option groups
	SaveProduct(ctx context.Context, product domain.Product) error

	SetProductStatus(ctx context.Context, id string, status domain.ProductStatus, updatedAt time.Time) error

	// GetCoupon returns nil, nil when no coupon has the code
	GetCoupon(ctx context.Context, code string) (*domain.Coupon, error)

	SaveCoupon(ctx context.Context, coupon domain.Coupon) error
}

type DatabaseRepository interface {
	OrderRepository
	CatalogRepository
}
