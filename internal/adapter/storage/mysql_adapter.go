package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/lifecycle"
)

//go:embed schema.sql
var schemaSQL string

const orderColumns = `id, order_type, customer_name, customer_phone, table_number, status,
	subtotal, discount, total, coupon_code, created_at, updated_at`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates missing tables.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return storeError("ensure schema", "", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	const op = "create order"

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(op, order.ID, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderType, order.CustomerName, order.CustomerPhone, nullInt(order.TableNumber),
		order.Status, order.Subtotal, order.Discount, order.Total, nullString(order.CouponCode),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return storeError(op, order.ID, fmt.Errorf("insert order: %w", err))
	}

	for pos, it := range order.Items {
		opts, err := json.Marshal(it.Options)
		if err != nil {
			return storeError(op, order.ID, fmt.Errorf("encode options: %w", err))
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, line_no, product_id, product_name, unit_price, quantity, options, note, line_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, order.ID, pos, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, string(opts), it.Note, it.LineTotal,
		)
		if err != nil {
			return storeError(op, order.ID, fmt.Errorf("insert item %s: %w", it.ID, err))
		}
	}

	if order.CouponCode != "" {
		result, err := tx.ExecContext(ctx, `
			UPDATE coupons
			SET usage_count = usage_count + 1
			WHERE code = ? AND active AND (usage_limit = 0 OR usage_count < usage_limit)`,
			order.CouponCode,
		)
		if err != nil {
			return storeError(op, order.ID, fmt.Errorf("consume coupon: %w", err))
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return &domain.CouponError{Kind: domain.CouponIneligible, Reason: "limite de uso atingido"}
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, order.ID, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	const op = "get order"

	orders, err := m.queryOrders(ctx, op, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return orders[0], nil
}

func (m *MySQLAdapter) ListActiveOrdersByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return m.queryOrders(ctx, "track orders", `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_phone = ? AND status <> ?
		ORDER BY created_at DESC
		LIMIT ?`,
		phone, domain.OrderStatusReady, domain.MaxOrderListLimit,
	)
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	const op = "update order status"

	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id,
	)
	if err != nil {
		return storeError(op, id, err)
	}

	// unchanged rows also report zero, so confirm the row is really missing
	if rows, _ := result.RowsAffected(); rows == 0 {
		return m.mustExist(ctx, op, "orders", "order", id)
	}
	return nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.OrderType != "" {
		where = append(where, "order_type = ?")
		args = append(args, f.OrderType)
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *f.To)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = domain.DefaultOrderListLimit
	}
	if limit > domain.MaxOrderListLimit {
		limit = domain.MaxOrderListLimit
	}
	args = append(args, limit)

	return m.queryOrders(ctx, "list orders", fmt.Sprintf(`
		SELECT %s FROM orders %s
		ORDER BY created_at DESC, id ASC
		LIMIT ?`, orderColumns, whereSQL), args...)
}

func (m *MySQLAdapter) ListOrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return m.queryOrders(ctx, "list orders by period", `
		SELECT `+orderColumns+` FROM orders
		WHERE created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC`,
		from, to,
	)
}

func (m *MySQLAdapter) ListOrdersOfRecentCustomers(ctx context.Context, term string, limit int) ([]domain.Order, error) {
	const op = "search customers"

	whereSQL := ""
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		whereSQL = "WHERE customer_name LIKE ?"
		args = append(args, "%"+escapeLike(term)+"%")
		if digits := domain.NormalizePhone(term); digits != "" {
			whereSQL += " OR customer_phone LIKE ?"
			args = append(args, "%"+digits+"%")
		}
	}
	args = append(args, limit)

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT customer_phone, MAX(created_at) AS last_order
		FROM orders %s
		GROUP BY customer_phone
		ORDER BY last_order DESC
		LIMIT ?`, whereSQL), args...)
	if err != nil {
		return nil, storeError(op, "", err)
	}
	defer rows.Close()

	var phones []any
	for rows.Next() {
		var phone string
		var last time.Time
		if err := rows.Scan(&phone, &last); err != nil {
			return nil, mappingError(op, "", err)
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, "", err)
	}
	if len(phones) == 0 {
		return nil, nil
	}

	return m.queryOrdersNoItems(ctx, op, fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE customer_phone IN (%s)`, orderColumns, placeholders(len(phones))), phones...)
}

// queryOrders runs an order query and attaches items.
func (m *MySQLAdapter) queryOrders(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	orders, err := m.queryOrdersNoItems(ctx, op, query, args...)
	if err != nil || len(orders) == 0 {
		return orders, err
	}

	ids := make([]any, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, order_id, product_id, product_name, unit_price, quantity, options, note, line_total
		FROM order_items WHERE order_id IN (%s)
		ORDER BY order_id, line_no`, placeholders(len(ids))), ids...)
	if err != nil {
		return nil, storeError(op, "", fmt.Errorf("query items: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		var opts []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &opts, &it.Note, &it.LineTotal); err != nil {
			return nil, mappingError(op, it.OrderID, err)
		}
		if err := json.Unmarshal(opts, &it.Options); err != nil {
			return nil, mappingError(op, it.OrderID, fmt.Errorf("options: %w", err))
		}
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, "", err)
	}
	return orders, nil
}

func (m *MySQLAdapter) queryOrdersNoItems(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, "", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, mappingError(op, o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, "", err)
	}
	return orders, nil
}

func scanOrder(rows *sql.Rows) (domain.Order, error) {
	var o domain.Order
	var orderType, status string
	var table sql.NullInt64
	var coupon sql.NullString

	err := rows.Scan(&o.ID, &orderType, &o.CustomerName, &o.CustomerPhone, &table, &status,
		&o.Subtotal, &o.Discount, &o.Total, &coupon, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	o.OrderType = domain.OrderType(orderType)
	if !o.OrderType.Valid() {
		return o, fmt.Errorf("unknown order type %q", orderType)
	}
	if o.Status, err = lifecycle.ParseStatus(status); err != nil {
		return o, err
	}
	if table.Valid {
		n := int(table.Int64)
		o.TableNumber = &n
	}
	o.CouponCode = coupon.String
	return o, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (m *MySQLAdapter) mustExist(ctx context.Context, op, table, entity, id string) error {
	var one int
	err := m.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return storeError(op, id, err)
}
