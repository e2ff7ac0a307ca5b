package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/cardapio/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cardapio?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := NewMySQLAdapter(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}

	return db
}

func testOrder(phone string, coupon string) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New().String()
	return domain.Order{
		ID:            id,
		OrderType:     domain.OrderTypePickup,
		CustomerName:  "Cliente Teste",
		CustomerPhone: phone,
		Status:        domain.OrderStatusReceived,
		Subtotal:      decimal.RequireFromString("39.00"),
		Discount:      decimal.Zero,
		Total:         decimal.RequireFromString("39.00"),
		CouponCode:    coupon,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items: []domain.OrderItem{
			{
				ID:          uuid.New().String(),
				OrderID:     id,
				ProductID:   "test-burger",
				ProductName: "X-Burger",
				UnitPrice:   decimal.RequireFromString("18.00"),
				Quantity:    2,
				Options:     []domain.SelectedOption{{ID: "test-bacon", Name: "Bacon", AdditionalPrice: decimal.RequireFromString("1.50")}},
				LineTotal:   decimal.RequireFromString("39.00"),
			},
			{
				ID:          uuid.New().String(),
				OrderID:     id,
				ProductID:   "test-soda",
				ProductName: "Refrigerante",
				UnitPrice:   decimal.Zero,
				Quantity:    1,
				Note:        "sem gelo",
				LineTotal:   decimal.Zero,
			},
		},
	}
}

func cleanupOrders(ctx context.Context, db *sql.DB, phone string) {
	db.ExecContext(ctx, `DELETE i FROM order_items i JOIN orders o ON o.id = i.order_id WHERE o.customer_phone = ?`, phone)
	db.ExecContext(ctx, `DELETE FROM orders WHERE customer_phone = ?`, phone)
}

func TestCreateOrder_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	const phone = "11900000001"
	cleanupOrders(ctx, db, phone)
	defer cleanupOrders(ctx, db, phone)

	order := testOrder(phone, "")
	if err := adapter.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := adapter.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != domain.OrderStatusReceived {
		t.Errorf("expected status Recebido, got %s", got.Status)
	}
	if got.TableNumber != nil {
		t.Errorf("expected no table number, got %d", *got.TableNumber)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[0].ProductID != "test-burger" || got.Items[1].ProductID != "test-soda" {
		t.Errorf("items out of order: %s, %s", got.Items[0].ProductID, got.Items[1].ProductID)
	}
	if len(got.Items[0].Options) != 1 || got.Items[0].Options[0].Name != "Bacon" {
		t.Errorf("unexpected options: %+v", got.Items[0].Options)
	}
	if !got.Total.Equal(order.Total) {
		t.Errorf("expected total %s, got %s", order.Total, got.Total)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)

	_, err := adapter.GetOrder(context.Background(), "nonexistent-order")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUpdateOrderStatus_AndTracking(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	const phone = "11900000002"
	cleanupOrders(ctx, db, phone)
	defer cleanupOrders(ctx, db, phone)

	first := testOrder(phone, "")
	second := testOrder(phone, "")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	for _, o := range []domain.Order{first, second} {
		if err := adapter.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	active, err := adapter.ListActiveOrdersByPhone(ctx, phone)
	if err != nil {
		t.Fatalf("ListActiveOrdersByPhone failed: %v", err)
	}
	if len(active) != 2 || active[0].ID != second.ID {
		t.Fatalf("expected newest first among 2 active orders, got %d", len(active))
	}

	if err := adapter.UpdateOrderStatus(ctx, second.ID, domain.OrderStatusReady, time.Now().UTC()); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}

	active, err = adapter.ListActiveOrdersByPhone(ctx, phone)
	if err != nil {
		t.Fatalf("ListActiveOrdersByPhone failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Errorf("expected only the unfinished order, got %d", len(active))
	}

	err = adapter.UpdateOrderStatus(ctx, "nonexistent-order", domain.OrderStatusReady, time.Now().UTC())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestCreateOrder_CouponUsageLimit(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	const phone = "11900000003"
	cleanupOrders(ctx, db, phone)
	defer cleanupOrders(ctx, db, phone)

	coupon := domain.Coupon{
		Code:       "TESTONCE",
		Kind:       domain.DiscountFixed,
		Value:      decimal.NewFromInt(5),
		UsageLimit: 1,
		Active:     true,
	}
	if err := adapter.SaveCoupon(ctx, coupon); err != nil {
		t.Fatalf("SaveCoupon failed: %v", err)
	}
	db.ExecContext(ctx, `UPDATE coupons SET usage_count = 0 WHERE code = ?`, coupon.Code)
	defer db.ExecContext(ctx, `DELETE FROM coupons WHERE code = ?`, coupon.Code)

	if err := adapter.CreateOrder(ctx, testOrder(phone, coupon.Code)); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	rejected := testOrder(phone, coupon.Code)
	err := adapter.CreateOrder(ctx, rejected)
	var ce *domain.CouponError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CouponError, got: %v", err)
	}

	// the rejected order must not be half-written
	if _, err := adapter.GetOrder(ctx, rejected.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected rolled back order, got: %v", err)
	}

	got, err := adapter.GetCoupon(ctx, coupon.Code)
	if err != nil || got == nil {
		t.Fatalf("GetCoupon failed: %v", err)
	}
	if got.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", got.UsageCount)
	}
}

func TestGetCoupon_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)

	c, err := adapter.GetCoupon(context.Background(), "NOPE-NOT-HERE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Error("expected nil for unknown coupon")
	}
}

func TestSaveProduct_ReplacesOptions(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	product := domain.Product{
		ID:         "test-product-opts",
		Name:       "Açaí 500ml",
		Price:      decimal.RequireFromString("22.00"),
		CategoryID: "test-category",
		Status:     domain.ProductStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
		OptionGroups: []domain.OptionGroup{{
			ID:            "test-group-size",
			Name:          "Cobertura",
			SelectionType: domain.SelectionMulti,
			Options: []domain.Option{
				{ID: "test-opt-granola", Name: "Granola", AdditionalPrice: decimal.RequireFromString("2.00")},
				{ID: "test-opt-leite", Name: "Leite em pó", AdditionalPrice: decimal.RequireFromString("1.50")},
			},
		}},
	}
	defer func() {
		db.ExecContext(ctx, `DELETE FROM options WHERE group_id = 'test-group-size'`)
		db.ExecContext(ctx, `DELETE FROM option_groups WHERE product_id = ?`, product.ID)
		db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, product.ID)
	}()

	if err := adapter.SaveProduct(ctx, product); err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}

	product.OptionGroups[0].Options = product.OptionGroups[0].Options[1:]
	if err := adapter.SaveProduct(ctx, product); err != nil {
		t.Fatalf("second SaveProduct failed: %v", err)
	}

	got, err := adapter.GetProducts(ctx, []string{product.ID, "missing"})
	if err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	if _, ok := got["missing"]; ok {
		t.Error("unknown id should be absent")
	}
	p, ok := got[product.ID]
	if !ok {
		t.Fatal("product not found")
	}
	if len(p.OptionGroups) != 1 || len(p.OptionGroups[0].Options) != 1 {
		t.Fatalf("expected 1 group with 1 option, got %+v", p.OptionGroups)
	}
	if p.OptionGroups[0].Options[0].ID != "test-opt-leite" {
		t.Errorf("unexpected option %s", p.OptionGroups[0].Options[0].ID)
	}

	if err := adapter.SetProductStatus(ctx, product.ID, domain.ProductStatusInactive, now); err != nil {
		t.Fatalf("SetProductStatus failed: %v", err)
	}
	menu, err := adapter.ListActiveProducts(ctx)
	if err != nil {
		t.Fatalf("ListActiveProducts failed: %v", err)
	}
	for _, m := range menu {
		if m.ID == product.ID {
			t.Error("inactive product listed on the menu")
		}
	}

	err = adapter.SetProductStatus(ctx, "missing", domain.ProductStatusInactive, now)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}
