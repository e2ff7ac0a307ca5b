package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/coupon"
	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/lifecycle"
	"github.com/rl1809/cardapio/internal/core/metrics"
	"github.com/rl1809/cardapio/internal/core/pricing"
	"github.com/rl1809/cardapio/internal/core/validation"
	"github.com/rl1809/cardapio/internal/port"
	"github.com/rl1809/cardapio/internal/telemetry"
)

type OrderService struct {
	db             port.DatabaseRepository
	cache          port.CacheRepository
	idempotencyTTL time.Duration
	accepting      atomic.Bool
	now            func() time.Time
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, idempotencyTTL time.Duration) *OrderService {
	s := &OrderService{
		db:             db,
		cache:          cache,
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
	}
	s.accepting.Store(true)
	telemetry.AcceptingOrders.Set(1)
	return s
}

func (s *OrderService) AcceptingOrders() bool {
	return s.accepting.Load()
}

// SetAcceptingOrders opens or closes the store for new submissions.
func (s *OrderService) SetAcceptingOrders(caller domain.Identity, open bool) error {
	if err := authorize("set accepting orders", caller); err != nil {
		return err
	}
	s.accepting.Store(open)
	if open {
		telemetry.AcceptingOrders.Set(1)
	} else {
		telemetry.AcceptingOrders.Set(0)
	}
	log.WithFields(log.Fields{"user_id": caller.UserID, "open": open}).Info("Store order intake changed")
	return nil
}

// SubmitOrder validates a checkout, prices it from current catalog data and
// persists it with its items in one write. Validation and coupon problems come
// back as *domain.ValidationError.
func (s *OrderService) SubmitOrder(ctx context.Context, in domain.OrderInput) (domain.Order, error) {
	if !s.accepting.Load() {
		telemetry.OrdersSubmitted.WithLabelValues("closed").Inc()
		return domain.Order{}, domain.ErrStoreClosed
	}

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CouponCode = coupon.NormalizeCode(in.CouponCode)
	if in.OrderType == domain.OrderTypePickup {
		in.TableNumber = nil
	}
	now := s.now().UTC()

	products, err := s.db.GetProducts(ctx, productIDs(in.Items))
	if err != nil {
		return domain.Order{}, s.submitFailed(err)
	}

	errs := validation.Lines(in.Items, products)
	items, lineSum := priceLines(in.Items, products, errs)
	subtotal := domain.RoundCurrency(lineSum)

	var stored *domain.Coupon
	if in.CouponCode != "" {
		if stored, err = s.db.GetCoupon(ctx, in.CouponCode); err != nil {
			return domain.Order{}, s.submitFailed(err)
		}
	}

	errs.Merge(validation.Order(in, validation.Checkout{Subtotal: subtotal, Coupon: stored, Now: now}))
	if !errs.Empty() {
		telemetry.OrdersSubmitted.WithLabelValues("invalid").Inc()
		return domain.Order{}, &domain.ValidationError{Fields: errs}
	}

	discount, err := coupon.Apply(stored, in.CouponCode, subtotal, now)
	if err != nil {
		// validation already accepted the coupon
		return domain.Order{}, s.submitFailed(err)
	}
	totals := pricing.Settle(subtotal, discount)

	if in.RequestID != "" {
		ok, err := s.cache.SetIdempotency(ctx, in.RequestID, s.idempotencyTTL)
		if err != nil {
			return domain.Order{}, s.submitFailed(fmt.Errorf("idempotency check failed: %w", err))
		}
		if !ok {
			telemetry.OrdersSubmitted.WithLabelValues("duplicate").Inc()
			return domain.Order{}, domain.ErrDuplicateRequest
		}
	}

	order := domain.Order{
		ID:            uuid.NewString(),
		OrderType:     in.OrderType,
		CustomerName:  in.CustomerName,
		CustomerPhone: domain.NormalizePhone(in.CustomerPhone),
		TableNumber:   in.TableNumber,
		Status:        lifecycle.Initial,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Total:         totals.Total,
		CouponCode:    in.CouponCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range items {
		items[i].OrderID = order.ID
		items[i].LineTotal = domain.RoundCurrency(items[i].LineTotal)
	}
	order.Items = items

	if err := s.db.CreateOrder(ctx, order); err != nil {
		s.releaseRequest(in.RequestID)

		var ce *domain.CouponError
		if errors.As(err, &ce) {
			telemetry.OrdersSubmitted.WithLabelValues("invalid").Inc()
			return domain.Order{}, &domain.ValidationError{Fields: domain.FieldErrors{
				validation.FieldCouponCode: validation.CouponMessage(ce),
			}}
		}
		return domain.Order{}, s.submitFailed(err)
	}

	telemetry.OrdersSubmitted.WithLabelValues("created").Inc()
	log.WithFields(log.Fields{
		"order_id": order.ID,
		"type":     order.OrderType,
		"items":    len(order.Items),
		"total":    order.Total.StringFixed(2),
	}).Info("Order created")

	return order, nil
}

func (s *OrderService) submitFailed(err error) error {
	telemetry.OrdersSubmitted.WithLabelValues("error").Inc()
	logStoreError("submit order", err)
	return err
}

func (s *OrderService) releaseRequest(requestID string) {
	if requestID == "" {
		return
	}
	// the caller's context may already be done
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.ReleaseIdempotency(ctx, requestID); err != nil {
		log.WithError(err).WithField("request_id", requestID).Warn("Failed to release idempotency key")
	}
}

// TrackOrders finds the caller's unfinished orders by phone, newest first.
// No active order yields domain.ErrNotFound.
func (s *OrderService) TrackOrders(ctx context.Context, phone string) (lifecycle.TrackResult, error) {
	if errs := validation.Phone(phone); !errs.Empty() {
		return lifecycle.TrackResult{}, &domain.ValidationError{Fields: errs}
	}
	digits := domain.NormalizePhone(phone)

	orders, err := s.db.ListActiveOrdersByPhone(ctx, digits)
	if err != nil {
		logStoreError("track orders", err)
		return lifecycle.TrackResult{}, err
	}

	result := lifecycle.Track(orders)
	if !result.Found() {
		return result, fmt.Errorf("active orders for %s: %w", digits, domain.ErrNotFound)
	}
	return result, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, &domain.ValidationError{Fields: domain.FieldErrors{"id": "campo obrigatório"}}
	}

	order, err := s.db.GetOrder(ctx, id)
	if err != nil {
		logStoreError("get order", err)
		return domain.Order{}, err
	}
	return order, nil
}

// AdvanceOrderStatus moves an order forward. The write is last-write-wins.
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, caller domain.Identity, id, status string) (domain.Order, error) {
	if err := authorize("advance order status", caller); err != nil {
		return domain.Order{}, err
	}

	to, err := lifecycle.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.db.GetOrder(ctx, id)
	if err != nil {
		logStoreError("advance order status", err)
		return domain.Order{}, err
	}

	from := order.Status
	order, err = lifecycle.Advance(order, to, s.now().UTC())
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.db.UpdateOrderStatus(ctx, order.ID, order.Status, order.UpdatedAt); err != nil {
		logStoreError("advance order status", err)
		return domain.Order{}, err
	}

	telemetry.OrderStatusTransitions.WithLabelValues(string(order.Status)).Inc()
	log.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       order.Status,
		"user_id":  caller.UserID,
	}).Info("Order status changed")

	return order, nil
}

// ListOrders returns orders for the back-office, newest first.
func (s *OrderService) ListOrders(ctx context.Context, caller domain.Identity, f domain.OrderFilter) ([]domain.Order, error) {
	if err := authorize("list orders", caller); err != nil {
		return nil, err
	}

	errs := domain.FieldErrors{}
	if f.OrderType != "" && !f.OrderType.Valid() {
		errs.Add("order_type", "tipo de pedido inválido")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		errs.Add("to", "deve ser posterior a from")
	}
	if !errs.Empty() {
		return nil, &domain.ValidationError{Fields: errs}
	}
	f.Limit = metrics.ClampLimit(f.Limit, domain.DefaultOrderListLimit, domain.MaxOrderListLimit)

	orders, err := s.db.ListOrders(ctx, f)
	if err != nil {
		logStoreError("list orders", err)
		return nil, err
	}
	return orders, nil
}

func productIDs(lines []domain.LineRequest) []string {
	seen := map[string]bool{}
	var ids []string
	for _, l := range lines {
		if l.ProductID == "" || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	return ids
}

// priceLines snapshots and prices every line that passed catalog checks.
func priceLines(lines []domain.LineRequest, products map[string]domain.Product, errs domain.FieldErrors) ([]domain.OrderItem, decimal.Decimal) {
	items := make([]domain.OrderItem, 0, len(lines))
	totals := make([]decimal.Decimal, 0, len(lines))

	for i, l := range lines {
		if _, bad := errs[validation.ItemField(i, "product_id")]; bad {
			continue
		}
		if _, bad := errs[validation.ItemField(i, "options")]; bad {
			continue
		}
		p := products[l.ProductID]

		opts := make([]domain.SelectedOption, 0, len(l.OptionIDs))
		for _, id := range l.OptionIDs {
			_, o, _ := p.FindOption(id)
			opts = append(opts, domain.SelectedOption{ID: o.ID, Name: o.Name, AdditionalPrice: o.AdditionalPrice})
		}

		qty := l.Quantity
		if qty < 0 {
			qty = 0
		}
		line := pricing.LineTotal(p.Price, opts, qty)
		totals = append(totals, line)
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    l.Quantity,
			Options:     opts,
			Note:        strings.TrimSpace(l.Note),
			LineTotal:   line,
		})
	}
	return items, pricing.Subtotal(totals)
}
