package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/port"
	"github.com/rl1809/cardapio/internal/telemetry"
)

const breakerName = "mysql"

var (
	_ port.DatabaseRepository = (*MySQLAdapter)(nil)
	_ port.DatabaseRepository = (*GuardedStore)(nil)
	_ port.CacheRepository    = (*RedisAdapter)(nil)
)

// GuardedStore bounds every store call with a deadline and sheds load through a
// circuit breaker once the store keeps failing.
type GuardedStore struct {
	next          port.DatabaseRepository
	cb            *gobreaker.CircuitBreaker
	lookupTimeout time.Duration
	writeTimeout  time.Duration
}

func NewGuardedStore(next port.DatabaseRepository, lookupTimeout, writeTimeout time.Duration) *GuardedStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,                // Max requests allowed in half-open state
		Interval:    15 * time.Second, // Window to track failures
		Timeout:     30 * time.Second, // Time to wait before half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))

			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	telemetry.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &GuardedStore{
		next:          next,
		cb:            cb,
		lookupTimeout: lookupTimeout,
		writeTimeout:  writeTimeout,
	}
}

// breakerSuccess treats answers from a healthy store as successes, even when
// the answer is "not found" or a rejected coupon.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled) {
		return true
	}
	var ce *domain.CouponError
	return errors.As(err, &ce)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func guard[T any](g *GuardedStore, ctx context.Context, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := g.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	case err != nil && !errors.Is(err, domain.ErrTimeout) && errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}

	telemetry.StoreOperationDuration.WithLabelValues(op, resultLabel(err)).Observe(time.Since(start).Seconds())

	var zero T
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	return res.(T), nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func guardErr(g *GuardedStore, ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	_, err := guard(g, ctx, op, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (g *GuardedStore) CreateOrder(ctx context.Context, order domain.Order) error {
	return guardErr(g, ctx, "create_order", g.writeTimeout, func(ctx context.Context) error {
		return g.next.CreateOrder(ctx, order)
	})
}

func (g *GuardedStore) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return guard(g, ctx, "get_order", g.lookupTimeout, func(ctx context.Context) (domain.Order, error) {
		return g.next.GetOrder(ctx, id)
	})
}

func (g *GuardedStore) ListActiveOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return guard(g, ctx, "track_orders", g.lookupTimeout, func(ctx context.Context) ([]domain.Order, error) {
		return g.next.ListActiveOrdersByPhone(ctx, phone)
	})
}

func (g *GuardedStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	return guardErr(g, ctx, "update_order_status", g.writeTimeout, func(ctx context.Context) error {
		return g.next.UpdateOrderStatus(ctx, id, status, updatedAt)
	})
}

func (g *GuardedStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return guard(g, ctx, "list_orders", g.lookupTimeout, func(ctx context.Context) ([]domain.Order, error) {
		return g.next.ListOrders(ctx, filter)
	})
}

func (g *GuardedStore) ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return guard(g, ctx, "list_orders_by_period", g.lookupTimeout, func(ctx context.Context) ([]domain.Order, error) {
		return g.next.ListOrdersCreatedBetween(ctx, from, to)
	})
}

func (g *GuardedStore) ListOrdersOfRecentCustomers(ctx context.Context, term string, limit int) ([]domain.Order, error) {
	return guard(g, ctx, "search_customers", g.lookupTimeout, func(ctx context.Context) ([]domain.Order, error) {
		return g.next.ListOrdersOfRecentCustomers(ctx, term, limit)
	})
}

func (g *GuardedStore) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	return guard(g, ctx, "get_products", g.lookupTimeout, func(ctx context.Context) (map[string]domain.Product, error) {
		return g.next.GetProducts(ctx, ids)
	})
}

func (g *GuardedStore) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return guard(g, ctx, "list_menu", g.lookupTimeout, func(ctx context.Context) ([]domain.Product, error) {
		return g.next.ListActiveProducts(ctx)
	})
}

func (g *GuardedStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return guard(g, ctx, "list_categories", g.lookupTimeout, func(ctx context.Context) ([]domain.Category, error) {
		return g.next.ListCategories(ctx)
	})
}

func (g *GuardedStore) SaveCategory(ctx context.Context, category domain.Category) error {
	return guardErr(g, ctx, "save_category", g.writeTimeout, func(ctx context.Context) error {
		return g.next.SaveCategory(ctx, category)
	})
}

func (g *GuardedStore) SaveProduct(ctx context.Context, product domain.Product) error {
	return guardErr(g, ctx, "save_product", g.writeTimeout, func(ctx context.Context) error {
		return g.next.SaveProduct(ctx, product)
	})
}

func (g *GuardedStore) SetProductStatus(ctx context.Context, id string, status domain.ProductStatus, updatedAt time.Time) error {
	return guardErr(g, ctx, "set_product_status", g.writeTimeout, func(ctx context.Context) error {
		return g.next.SetProductStatus(ctx, id, status, updatedAt)
	})
}

func (g *GuardedStore) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	return guard(g, ctx, "get_coupon", g.lookupTimeout, func(ctx context.Context) (*domain.Coupon, error) {
		return g.next.GetCoupon(ctx, code)
	})
}

func (g *GuardedStore) SaveCoupon(ctx context.Context, coupon domain.Coupon) error {
	return guardErr(g, ctx, "save_coupon", g.writeTimeout, func(ctx context.Context) error {
		return g.next.SaveCoupon(ctx, coupon)
	})
}
