package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/cardapio/internal/core/domain"
)

const productColumns = `p.id, p.name, p.price, p.category_id, p.status, p.display_order,
	p.description, p.photo_url, p.created_at, p.updated_at`

func (m *MySQLAdapter) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	const op = "get products"

	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	products, err := m.queryProducts(ctx, op, fmt.Sprintf(`
		SELECT %s FROM products p
		WHERE p.id IN (%s)`, productColumns, placeholders(len(args))), args...)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (m *MySQLAdapter) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return m.queryProducts(ctx, "list menu", `
		SELECT `+productColumns+` FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.status = ?
		ORDER BY COALESCE(c.display_order, 0), p.category_id, p.display_order, p.name`,
		domain.ProductStatusActive,
	)
}

func (m *MySQLAdapter) ListCategories(ctx context.Context) ([]domain.Category, error) {
	const op = "list categories"

	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, display_order FROM categories
		ORDER BY display_order, name`)
	if err != nil {
		return nil, storeError(op, "", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayOrder); err != nil {
			return nil, mappingError(op, "", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, "", err)
	}
	return out, nil
}

func (m *MySQLAdapter) SaveCategory(ctx context.Context, c domain.Category) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, display_order) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), display_order = VALUES(display_order)`,
		c.ID, c.Name, c.DisplayOrder,
	)
	return storeError("save category", c.ID, err)
}

func (m *MySQLAdapter) SaveProduct(ctx context.Context, p domain.Product) error {
	const op = "save product"

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(op, p.ID, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, price, category_id, status, display_order, description, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), price = VALUES(price), category_id = VALUES(category_id),
			status = VALUES(status), display_order = VALUES(display_order),
			description = VALUES(description), photo_url = VALUES(photo_url),
			updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.Price, p.CategoryID, p.Status, p.DisplayOrder,
		nullString(p.Description), nullString(p.PhotoURL), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return storeError(op, p.ID, fmt.Errorf("upsert product: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE o FROM options o
		JOIN option_groups g ON g.id = o.group_id
		WHERE g.product_id = ?`, p.ID); err != nil {
		return storeError(op, p.ID, fmt.Errorf("clear options: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM option_groups WHERE product_id = ?`, p.ID); err != nil {
		return storeError(op, p.ID, fmt.Errorf("clear groups: %w", err))
	}

	for gi, g := range p.OptionGroups {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO option_groups (id, product_id, name, selection_type, display_order)
			VALUES (?, ?, ?, ?, ?)`,
			g.ID, p.ID, g.Name, g.SelectionType, gi,
		); err != nil {
			return storeError(op, p.ID, fmt.Errorf("insert group %s: %w", g.ID, err))
		}
		for oi, o := range g.Options {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO options (id, group_id, name, additional_price, display_order)
				VALUES (?, ?, ?, ?, ?)`,
				o.ID, g.ID, o.Name, o.AdditionalPrice, oi,
			); err != nil {
				return storeError(op, p.ID, fmt.Errorf("insert option %s: %w", o.ID, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(op, p.ID, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (m *MySQLAdapter) SetProductStatus(ctx context.Context, id string, status domain.ProductStatus, updatedAt time.Time) error {
	const op = "set product status"

	result, err := m.db.ExecContext(ctx, `
		UPDATE products SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id,
	)
	if err != nil {
		return storeError(op, id, err)
	}

	// unchanged rows also report zero, so confirm the row is really missing
	if rows, _ := result.RowsAffected(); rows == 0 {
		return m.mustExist(ctx, op, "products", "product", id)
	}
	return nil
}

func (m *MySQLAdapter) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	const op = "get coupon"

	var c domain.Coupon
	var kind string
	var from, until sql.NullTime
	err := m.db.QueryRowContext(ctx, `
		SELECT code, kind, value, min_subtotal, valid_from, valid_until, usage_limit, usage_count, active
		FROM coupons WHERE code = ?`, code,
	).Scan(&c.Code, &kind, &c.Value, &c.MinSubtotal, &from, &until, &c.UsageLimit, &c.UsageCount, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, code, err)
	}

	c.Kind = domain.DiscountKind(kind)
	if from.Valid {
		t := from.Time
		c.ValidFrom = &t
	}
	if until.Valid {
		t := until.Time
		c.ValidUntil = &t
	}
	return &c, nil
}

func (m *MySQLAdapter) SaveCoupon(ctx context.Context, c domain.Coupon) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO coupons (code, kind, value, min_subtotal, valid_from, valid_until, usage_limit, usage_count, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			kind = VALUES(kind), value = VALUES(value), min_subtotal = VALUES(min_subtotal),
			valid_from = VALUES(valid_from), valid_until = VALUES(valid_until),
			usage_limit = VALUES(usage_limit), active = VALUES(active)`,
		c.Code, c.Kind, c.Value, c.MinSubtotal, nullTime(c.ValidFrom), nullTime(c.ValidUntil),
		c.UsageLimit, c.UsageCount, c.Active,
	)
	return storeError("save coupon", c.Code, err)
}

// queryProducts loads products and attaches their option groups in display order.
func (m *MySQLAdapter) queryProducts(ctx context.Context, op, query string, args ...any) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, "", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var status string
		var desc, photo sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID, &status, &p.DisplayOrder,
			&desc, &photo, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mappingError(op, p.ID, err)
		}
		p.Status = domain.ProductStatus(status)
		if !p.Status.Valid() {
			return nil, mappingError(op, p.ID, fmt.Errorf("unknown product status %q", status))
		}
		p.Description = desc.String
		p.PhotoURL = photo.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, "", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	if err := m.attachOptionGroups(ctx, op, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (m *MySQLAdapter) attachOptionGroups(ctx context.Context, op string, products []domain.Product) error {
	ids := make([]any, 0, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids = append(ids, p.ID)
		index[p.ID] = i
	}

	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT g.product_id, g.id, g.name, g.selection_type, o.id, o.name, o.additional_price
		FROM option_groups g
		LEFT JOIN options o ON o.group_id = g.id
		WHERE g.product_id IN (%s)
		ORDER BY g.product_id, g.display_order, o.display_order`, placeholders(len(ids))), ids...)
	if err != nil {
		return storeError(op, "", fmt.Errorf("query options: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var productID, groupID, groupName, selection string
		var optID, optName sql.NullString
		var optPrice sql.NullString
		if err := rows.Scan(&productID, &groupID, &groupName, &selection, &optID, &optName, &optPrice); err != nil {
			return mappingError(op, productID, err)
		}

		p := &products[index[productID]]
		n := len(p.OptionGroups)
		if n == 0 || p.OptionGroups[n-1].ID != groupID {
			p.OptionGroups = append(p.OptionGroups, domain.OptionGroup{
				ID:            groupID,
				Name:          groupName,
				SelectionType: domain.SelectionType(selection),
			})
			n++
		}
		if !optID.Valid {
			continue
		}

		opt := domain.Option{ID: optID.String, GroupID: groupID, Name: optName.String}
		if err := opt.AdditionalPrice.Scan(optPrice.String); err != nil {
			return mappingError(op, productID, fmt.Errorf("option %s price: %w", opt.ID, err))
		}
		p.OptionGroups[n-1].Options = append(p.OptionGroups[n-1].Options, opt)
	}
	if err := rows.Err(); err != nil {
		return storeError(op, "", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
