package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/coupon"
	"github.com/rl1809/cardapio/internal/core/domain"
	"github.com/rl1809/cardapio/internal/core/validation"
	"github.com/rl1809/cardapio/internal/port"
)

type CatalogService struct {
	db  port.CatalogRepository
	now func() time.Time
}

func NewCatalogService(db port.CatalogRepository) *CatalogService {
	return &CatalogService{db: db, now: time.Now}
}

// ListMenu returns active products in menu order.
func (s *CatalogService) ListMenu(ctx context.Context) ([]domain.Product, error) {
	products, err := s.db.ListActiveProducts(ctx)
	if err != nil {
		logStoreError("list menu", err)
		return nil, err
	}
	return products, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.db.ListCategories(ctx)
	if err != nil {
		logStoreError("list categories", err)
		return nil, err
	}
	return categories, nil
}

func (s *CatalogService) SaveCategory(ctx context.Context, caller domain.Identity, c domain.Category) (domain.Category, error) {
	if err := authorize("save category", caller); err != nil {
		return domain.Category{}, err
	}

	c.Name = strings.TrimSpace(c.Name)
	if errs := validation.Category(c); !errs.Empty() {
		return domain.Category{}, &domain.ValidationError{Fields: errs}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	if err := s.db.SaveCategory(ctx, c); err != nil {
		logStoreError("save category", err)
		return domain.Category{}, err
	}
	return c, nil
}

// SaveProduct creates a product when it has no id and replaces it otherwise.
// Orders already placed keep their own snapshots of name and price.
func (s *CatalogService) SaveProduct(ctx context.Context, caller domain.Identity, p domain.Product) (domain.Product, error) {
	if err := authorize("save product", caller); err != nil {
		return domain.Product{}, err
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	if errs := validation.Product(p); !errs.Empty() {
		return domain.Product{}, &domain.ValidationError{Fields: errs}
	}

	now := s.now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	} else {
		existing, err := s.db.GetProducts(ctx, []string{p.ID})
		if err != nil {
			logStoreError("save product", err)
			return domain.Product{}, err
		}
		prev, ok := existing[p.ID]
		if !ok {
			return domain.Product{}, fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
		}
		p.CreatedAt = prev.CreatedAt
	}
	p.UpdatedAt = now
	p.Price = domain.RoundCurrency(p.Price)

	for gi := range p.OptionGroups {
		g := &p.OptionGroups[gi]
		g.Name = strings.TrimSpace(g.Name)
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		for oi := range g.Options {
			o := &g.Options[oi]
			o.Name = strings.TrimSpace(o.Name)
			o.AdditionalPrice = domain.RoundCurrency(o.AdditionalPrice)
			o.GroupID = g.ID
			if o.ID == "" {
				o.ID = uuid.NewString()
			}
		}
	}

	if err := s.db.SaveProduct(ctx, p); err != nil {
		logStoreError("save product", err)
		return domain.Product{}, err
	}

	log.WithFields(log.Fields{
		"product_id": p.ID,
		"user_id":    caller.UserID,
	}).Info("Product saved")
	return p, nil
}

func (s *CatalogService) SetProductStatus(ctx context.Context, caller domain.Identity, id string, status domain.ProductStatus) error {
	if err := authorize("set product status", caller); err != nil {
		return err
	}
	if !status.Valid() {
		return &domain.ValidationError{Fields: domain.FieldErrors{"status": "use active ou inactive"}}
	}

	if err := s.db.SetProductStatus(ctx, id, status, s.now().UTC()); err != nil {
		logStoreError("set product status", err)
		return err
	}
	return nil
}

// SaveCoupon creates or replaces a coupon. The usage count is never reset by
// an edit.
func (s *CatalogService) SaveCoupon(ctx context.Context, caller domain.Identity, c domain.Coupon) (domain.Coupon, error) {
	if err := authorize("save coupon", caller); err != nil {
		return domain.Coupon{}, err
	}

	c.Code = coupon.NormalizeCode(c.Code)
	if errs := validation.Coupon(c); !errs.Empty() {
		return domain.Coupon{}, &domain.ValidationError{Fields: errs}
	}
	c.Value = domain.RoundCurrency(c.Value)
	c.MinSubtotal = domain.RoundCurrency(c.MinSubtotal)

	if err := s.db.SaveCoupon(ctx, c); err != nil {
		logStoreError("save coupon", err)
		return domain.Coupon{}, err
	}

	log.WithFields(log.Fields{
		"code":    c.Code,
		"user_id": caller.UserID,
	}).Info("Coupon saved")
	return c, nil
}
